package services

import (
	"strings"
	"time"

	"github.com/officepulse/officepulse/internal/cache"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	GetSessionByCode(code string) (*Session, error)
	GetSession(id string) (*Session, error)
	InsertParticipant(p *Participant) error
	GetParticipant(id string) (*Participant, error)
	UpdateParticipant(p *Participant) error
}

// EventPublisher pushes confirmed mutations to every connected dashboard.
// Implemented by realtime.Hub; a no-op implementation is fine for tests.
type EventPublisher interface {
	PublishJoin(sessionID string, p *Participant)
	PublishAnswer(sessionID, participantID string, questionIndex int, answerID string)
	PublishComplete(sessionID string, p *Participant)
	PublishAnalyticsChanged(sessionID string)
}

// ResponseService hosts the respondent workflow: join, answer, complete.
type ResponseService struct {
	store ResponseStore
	cache *cache.TTL
	pub   EventPublisher
	now   func() time.Time
	idGen func() string
}

func NewResponseService(store ResponseStore, c *cache.TTL, pub EventPublisher) *ResponseService {
	return &ResponseService{
		store: store,
		cache: c,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Join registers a respondent in the session identified by code.
func (s *ResponseService) Join(code, name, generation string) (*Participant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, NewInvalidError("code and name required")
	}
	gen, ok := ParseGeneration(generation)
	if !ok {
		return nil, NewInvalidError("unknown generation")
	}
	sess, err := s.store.GetSessionByCode(code)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	if !sess.Active {
		return nil, NewConflictError("session has ended")
	}
	p := &Participant{
		ID:         s.idGen(),
		SessionID:  sess.ID,
		Name:       name,
		Generation: gen,
		Answers:    map[int]string{},
		JoinedAt:   s.now(),
	}
	if err := s.store.InsertParticipant(p); err != nil {
		return nil, err
	}
	s.invalidate(sess.ID)
	s.pub.PublishJoin(sess.ID, p)
	return p, nil
}

// SaveAnswer merges one answer into the participant's answer map. Re-sending
// the same answer overwrites in place, so duplicate deliveries are harmless.
func (s *ResponseService) SaveAnswer(sessionID, participantID string, questionIndex int, answerID string) (*Participant, error) {
	if questionIndex < 0 || questionIndex >= QuestionCount {
		return nil, NewInvalidError("question index out of range")
	}
	if answerID == "" {
		return nil, NewInvalidError("answer required")
	}
	p, err := s.participantIn(sessionID, participantID)
	if err != nil {
		return nil, err
	}
	if p.Completed {
		return nil, NewConflictError("participant already completed")
	}
	if p.Answers == nil {
		p.Answers = map[int]string{}
	}
	p.Answers[questionIndex] = answerID
	if err := s.store.UpdateParticipant(p); err != nil {
		return nil, err
	}
	s.invalidate(sessionID)
	s.pub.PublishAnswer(sessionID, participantID, questionIndex, answerID)
	return p, nil
}

// Complete finalizes a participant: computes the preference vector from the
// answer set and freezes it. Completing twice is a no-op.
func (s *ResponseService) Complete(sessionID, participantID string) (*Participant, error) {
	p, err := s.participantIn(sessionID, participantID)
	if err != nil {
		return nil, err
	}
	if p.Completed {
		return p, nil
	}
	scores := ComputeScores(p.Answers)
	now := s.now()
	p.Completed = true
	p.Scores = &scores
	p.CompletedAt = &now
	if err := s.store.UpdateParticipant(p); err != nil {
		return nil, err
	}
	s.invalidate(sessionID)
	s.pub.PublishComplete(sessionID, p)
	s.pub.PublishAnalyticsChanged(sessionID)
	return p, nil
}

func (s *ResponseService) participantIn(sessionID, participantID string) (*Participant, error) {
	if sessionID == "" || participantID == "" {
		return nil, NewInvalidError("session and participant required")
	}
	p, err := s.store.GetParticipant(participantID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.SessionID != sessionID {
		return nil, NewNotFoundError("participant not found")
	}
	return p, nil
}

func (s *ResponseService) invalidate(sessionID string) {
	s.cache.Delete(
		cache.ParticipantsBySession(sessionID),
		cache.AnalyticsBySession(sessionID),
	)
}
