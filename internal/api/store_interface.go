package api

import "github.com/officepulse/officepulse/internal/services"

// Store is the persistence surface the API layer requires. Both the
// in-memory store and the sqlite store in internal/db implement it; the
// narrow per-service interfaces in internal/services are subsets of it.
type Store interface {
	InsertPresenter(p *services.Presenter) error
	FindPresenterByEmail(email string) (*services.Presenter, error)

	InsertSession(s *services.Session) error
	GetSession(id string) (*services.Session, error)
	GetSessionByCode(code string) (*services.Session, error)
	ListSessionsByOwner(ownerID string) ([]*services.Session, error)
	UpdateSession(s *services.Session) error
	DeleteSession(id string) error

	InsertParticipant(p *services.Participant) error
	GetParticipant(id string) (*services.Participant, error)
	UpdateParticipant(p *services.Participant) error
	ListParticipants(sessionID string) ([]*services.Participant, error)
	DeleteParticipant(id string) error
}

var _ Store = (*memoryStore)(nil)

var (
	_ services.SessionStore  = (Store)(nil)
	_ services.ResponseStore = (Store)(nil)
	_ services.SnapshotStore = (Store)(nil)
	_ services.AuthStore     = (Store)(nil)
)
