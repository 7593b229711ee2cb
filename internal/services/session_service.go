package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/officepulse/officepulse/internal/cache"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(id) {
		n = len(id)
	}
	return id[:n]
}

// SessionStore abstracts persistence operations required by SessionService.
type SessionStore interface {
	InsertSession(s *Session) error
	GetSession(id string) (*Session, error)
	GetSessionByCode(code string) (*Session, error)
	ListSessionsByOwner(ownerID string) ([]*Session, error)
	UpdateSession(s *Session) error
	DeleteSession(id string) error
	ListParticipants(sessionID string) ([]*Participant, error)
	DeleteParticipant(id string) error
}

// SessionService owns the session lifecycle. Every mutation explicitly
// invalidates the read cache; the cache has no write-through of its own.
type SessionService struct {
	store   SessionStore
	cache   *cache.TTL
	now     func() time.Time
	idGen   func() string
	codeGen func() string
}

func NewSessionService(store SessionStore, c *cache.TTL) *SessionService {
	return &SessionService{
		store:   store,
		cache:   c,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func() string { return shortID(8) },
		codeGen: defaultJoinCode,
	}
}

func defaultJoinCode() string {
	return strings.ToUpper(shortID(6))
}

// CreateSession opens a new live session with a fresh join code.
func (s *SessionService) CreateSession(ownerID, name string) (*Session, error) {
	if ownerID == "" {
		return nil, NewUnauthorizedError("presenter required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidError("name required")
	}
	code, err := s.uniqueCode()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        s.idGen(),
		Code:      code,
		Name:      name,
		OwnerID:   ownerID,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertSession(sess); err != nil {
		return nil, err
	}
	s.invalidate(sess)
	return sess, nil
}

// uniqueCode retries a few times on collision; codes are short enough that
// collisions happen in practice.
func (s *SessionService) uniqueCode() (string, error) {
	for i := 0; i < 5; i++ {
		code := s.codeGen()
		existing, err := s.store.GetSessionByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", NewConflictError("could not allocate a unique join code")
}

// GetByCode resolves a session from its join code, serving from the read
// cache when fresh.
func (s *SessionService) GetByCode(code string) (*Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, NewInvalidError("code required")
	}
	key := cache.SessionByCode(code)
	if v, ok := s.cache.Get(key); ok {
		return v.(*Session), nil
	}
	sess, err := s.store.GetSessionByCode(code)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	s.cache.Set(key, sess, cache.SessionTTL)
	return sess, nil
}

// ListSessions returns the presenter's sessions.
func (s *SessionService) ListSessions(ownerID string) ([]*Session, error) {
	if ownerID == "" {
		return nil, NewUnauthorizedError("presenter required")
	}
	return s.store.ListSessionsByOwner(ownerID)
}

func (s *SessionService) owned(ownerID, id string) (*Session, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	if sess.OwnerID != ownerID {
		return nil, NewForbiddenError("forbidden")
	}
	return sess, nil
}

// EndSession marks a session inactive. Idempotent: ending an ended session
// leaves its original end timestamp.
func (s *SessionService) EndSession(ownerID, id string) (*Session, error) {
	sess, err := s.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	if sess.Active {
		now := s.now()
		sess.Active = false
		sess.EndedAt = &now
		if err := s.store.UpdateSession(sess); err != nil {
			return nil, err
		}
	}
	s.invalidate(sess)
	return sess, nil
}

// DeleteSession removes a session and cascades to its participants.
func (s *SessionService) DeleteSession(ownerID, id string) error {
	sess, err := s.owned(ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSession(id); err != nil {
		return err
	}
	s.invalidate(sess)
	return nil
}

// RemoveParticipant deletes one respondent from an owned session.
func (s *SessionService) RemoveParticipant(ownerID, sessionID, participantID string) error {
	sess, err := s.owned(ownerID, sessionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteParticipant(participantID); err != nil {
		return err
	}
	s.invalidate(sess)
	return nil
}

// Participants lists a session's respondents through the read cache.
func (s *SessionService) Participants(sessionID string) ([]*Participant, error) {
	key := cache.ParticipantsBySession(sessionID)
	if v, ok := s.cache.Get(key); ok {
		return v.([]*Participant), nil
	}
	ps, err := s.store.ListParticipants(sessionID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, ps, cache.ParticipantsTTL)
	return ps, nil
}

func (s *SessionService) invalidate(sess *Session) {
	s.cache.Delete(
		cache.SessionByID(sess.ID),
		cache.SessionByCode(sess.Code),
		cache.ParticipantsBySession(sess.ID),
		cache.AnalyticsBySession(sess.ID),
	)
}
