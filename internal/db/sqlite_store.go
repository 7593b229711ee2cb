// Package db provides the sqlite-backed Store. The in-memory store in
// internal/api remains the default; this one is selected by setting
// PULSE_SQLITE_PATH.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/officepulse/officepulse/internal/api"
	"github.com/officepulse/officepulse/internal/services"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore applies the standard pragmas and bootstraps the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// NewStore adapts the sqlite store to the api.Store interface.
func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func decodeOptionalTime(ns sql.NullString) *time.Time {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	t := decodeTime(ns.String)
	return &t
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func (s *SQLiteStore) InsertPresenter(p *services.Presenter) error {
	_, err := s.db.Exec(
		`INSERT INTO presenters (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Email, p.PassHash, encodeTime(p.CreatedAt),
	)
	return err
}

func (s *SQLiteStore) FindPresenterByEmail(email string) (*services.Presenter, error) {
	row := s.db.QueryRow(
		`SELECT id, email, pass_hash, created_at FROM presenters WHERE email = ?`, email,
	)
	var p services.Presenter
	var createdAt string
	if err := row.Scan(&p.ID, &p.Email, &p.PassHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.CreatedAt = decodeTime(createdAt)
	return &p, nil
}

func (s *SQLiteStore) InsertSession(sess *services.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, code, name, owner_id, active, created_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Code, sess.Name, sess.OwnerID,
		boolToInt64(sess.Active), encodeTime(sess.CreatedAt), encodeOptionalTime(sess.EndedAt),
	)
	return err
}

const sessionColumns = `id, code, name, owner_id, active, created_at, ended_at`

func scanSession(row interface{ Scan(...any) error }) (*services.Session, error) {
	var sess services.Session
	var active int64
	var createdAt string
	var endedAt sql.NullString
	if err := row.Scan(&sess.ID, &sess.Code, &sess.Name, &sess.OwnerID, &active, &createdAt, &endedAt); err != nil {
		return nil, err
	}
	sess.Active = active != 0
	sess.CreatedAt = decodeTime(createdAt)
	sess.EndedAt = decodeOptionalTime(endedAt)
	return &sess, nil
}

func (s *SQLiteStore) getSessionWhere(clause string, arg any) (*services.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE `+clause, arg)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

func (s *SQLiteStore) GetSession(id string) (*services.Session, error) {
	return s.getSessionWhere(`id = ?`, id)
}

func (s *SQLiteStore) GetSessionByCode(code string) (*services.Session, error) {
	return s.getSessionWhere(`code = ?`, code)
}

func (s *SQLiteStore) ListSessionsByOwner(ownerID string) ([]*services.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionColumns+` FROM sessions WHERE owner_id = ? ORDER BY created_at`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateSession(sess *services.Session) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET code = ?, name = ?, owner_id = ?, active = ?, ended_at = ? WHERE id = ?`,
		sess.Code, sess.Name, sess.OwnerID, boolToInt64(sess.Active), encodeOptionalTime(sess.EndedAt), sess.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "session not found")
}

func (s *SQLiteStore) DeleteSession(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "session not found")
}

func (s *SQLiteStore) InsertParticipant(p *services.Participant) error {
	answers, scores, err := encodeParticipantJSON(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO participants (id, session_id, name, generation, answers, completed, scores, joined_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SessionID, p.Name, string(p.Generation), answers,
		boolToInt64(p.Completed), scores, encodeTime(p.JoinedAt), encodeOptionalTime(p.CompletedAt),
	)
	return err
}

const participantColumns = `id, session_id, name, generation, answers, completed, scores, joined_at, completed_at`

func scanParticipant(row interface{ Scan(...any) error }) (*services.Participant, error) {
	var p services.Participant
	var generation, answers, joinedAt string
	var completed int64
	var scores, completedAt sql.NullString
	if err := row.Scan(&p.ID, &p.SessionID, &p.Name, &generation, &answers, &completed, &scores, &joinedAt, &completedAt); err != nil {
		return nil, err
	}
	p.Generation = services.Generation(generation)
	p.Completed = completed != 0
	p.JoinedAt = decodeTime(joinedAt)
	p.CompletedAt = decodeOptionalTime(completedAt)
	p.Answers = map[int]string{}
	if strings.TrimSpace(answers) != "" {
		if err := json.Unmarshal([]byte(answers), &p.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for participant %s: %w", p.ID, err)
		}
	}
	if scores.Valid && strings.TrimSpace(scores.String) != "" {
		var sc services.PreferenceScores
		if err := json.Unmarshal([]byte(scores.String), &sc); err != nil {
			return nil, fmt.Errorf("decode scores for participant %s: %w", p.ID, err)
		}
		p.Scores = &sc
	}
	return &p, nil
}

func (s *SQLiteStore) GetParticipant(id string) (*services.Participant, error) {
	row := s.db.QueryRow(`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *SQLiteStore) UpdateParticipant(p *services.Participant) error {
	answers, scores, err := encodeParticipantJSON(p)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE participants SET name = ?, generation = ?, answers = ?, completed = ?, scores = ?, completed_at = ? WHERE id = ?`,
		p.Name, string(p.Generation), answers, boolToInt64(p.Completed), scores, encodeOptionalTime(p.CompletedAt), p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "participant not found")
}

func (s *SQLiteStore) ListParticipants(sessionID string) ([]*services.Participant, error) {
	rows, err := s.db.Query(
		`SELECT `+participantColumns+` FROM participants WHERE session_id = ? ORDER BY joined_at, id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteParticipant(id string) error {
	res, err := s.db.Exec(`DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "participant not found")
}

func encodeParticipantJSON(p *services.Participant) (string, sql.NullString, error) {
	answers := p.Answers
	if answers == nil {
		answers = map[int]string{}
	}
	ab, err := json.Marshal(answers)
	if err != nil {
		return "", sql.NullString{}, err
	}
	var scores sql.NullString
	if p.Scores != nil {
		sb, err := json.Marshal(p.Scores)
		if err != nil {
			return "", sql.NullString{}, err
		}
		scores = sql.NullString{String: string(sb), Valid: true}
	}
	return string(ab), scores, nil
}

func requireRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return services.NewNotFoundError(msg)
	}
	return nil
}
