package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/officepulse/officepulse/internal/services"
)

// memoryStore is the default non-persistent Store. Reads return copies so
// callers can mutate and write back without tearing shared state.
type memoryStore struct {
	mu              sync.RWMutex
	sessions        map[string]*services.Session
	sessionsByCode  map[string]string
	participants    map[string]*services.Participant
	participantsBy  map[string][]string
	presentersEmail map[string]*services.Presenter
}

// NewMemoryStore builds an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions:        map[string]*services.Session{},
		sessionsByCode:  map[string]string{},
		participants:    map[string]*services.Participant{},
		participantsBy:  map[string][]string{},
		presentersEmail: map[string]*services.Presenter{},
	}
}

func (s *memoryStore) InsertPresenter(p *services.Presenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.presentersEmail[strings.ToLower(p.Email)] = &cp
	return nil
}

func (s *memoryStore) FindPresenterByEmail(email string) (*services.Presenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.presentersEmail[strings.ToLower(email)]
	if p == nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) InsertSession(sess *services.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	s.sessionsByCode[sess.Code] = sess.ID
	return nil
}

func (s *memoryStore) GetSession(id string) (*services.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.sessions[id]), nil
}

func (s *memoryStore) GetSessionByCode(code string) (*services.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.sessions[s.sessionsByCode[code]]), nil
}

func (s *memoryStore) ListSessionsByOwner(ownerID string) ([]*services.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Session{}
	for _, sess := range s.sessions {
		if sess.OwnerID == ownerID {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) UpdateSession(sess *services.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return services.NewNotFoundError("session not found")
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	s.sessionsByCode[sess.Code] = sess.ID
	return nil
}

func (s *memoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return services.NewNotFoundError("session not found")
	}
	delete(s.sessions, id)
	delete(s.sessionsByCode, sess.Code)
	for _, pid := range s.participantsBy[id] {
		delete(s.participants, pid)
	}
	delete(s.participantsBy, id)
	return nil
}

func (s *memoryStore) InsertParticipant(p *services.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = copyParticipant(p)
	s.participantsBy[p.SessionID] = append(s.participantsBy[p.SessionID], p.ID)
	return nil
}

func (s *memoryStore) GetParticipant(id string) (*services.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyParticipant(s.participants[id]), nil
}

func (s *memoryStore) UpdateParticipant(p *services.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.ID]; !ok {
		return services.NewNotFoundError("participant not found")
	}
	s.participants[p.ID] = copyParticipant(p)
	return nil
}

func (s *memoryStore) ListParticipants(sessionID string) ([]*services.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.participantsBy[sessionID]
	out := make([]*services.Participant, 0, len(ids))
	for _, id := range ids {
		if p := s.participants[id]; p != nil {
			out = append(out, copyParticipant(p))
		}
	}
	return out, nil
}

func (s *memoryStore) DeleteParticipant(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return services.NewNotFoundError("participant not found")
	}
	delete(s.participants, id)
	ids := s.participantsBy[p.SessionID]
	for i, pid := range ids {
		if pid == id {
			s.participantsBy[p.SessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func copySession(sess *services.Session) *services.Session {
	if sess == nil {
		return nil
	}
	cp := *sess
	return &cp
}

func copyParticipant(p *services.Participant) *services.Participant {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Answers != nil {
		cp.Answers = make(map[int]string, len(p.Answers))
		for k, v := range p.Answers {
			cp.Answers[k] = v
		}
	}
	if p.Scores != nil {
		sc := *p.Scores
		cp.Scores = &sc
	}
	return &cp
}
