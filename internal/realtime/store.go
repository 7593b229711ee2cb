package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/officepulse/officepulse/internal/services"
)

// DefaultPendingTTL bounds how long a lost optimistic update may diverge
// from authoritative state before a reconcile sweep drops it.
const DefaultPendingTTL = 5 * time.Second

const refreshTimeout = 5 * time.Second

// UpdateKind enumerates the optimistic mutation types.
type UpdateKind string

const (
	UpdateJoin     UpdateKind = "join"
	UpdateAnswer   UpdateKind = "answer"
	UpdateComplete UpdateKind = "complete"
)

// Update is one optimistic client-side mutation, applied locally before the
// server confirms it.
type Update struct {
	Kind          UpdateKind
	SessionID     string
	Participant   *services.Participant // join payload
	ParticipantID string
	QuestionIndex int
	AnswerID      string
	Scores        *services.PreferenceScores // complete payload
	At            time.Time
}

// DedupKey must construct the exact key the confirming server event yields.
func (u Update) DedupKey() string {
	pid := u.ParticipantID
	if pid == "" && u.Participant != nil {
		pid = u.Participant.ID
	}
	switch u.Kind {
	case UpdateJoin:
		return joinKey(u.SessionID, pid)
	case UpdateAnswer:
		return answerKey(u.SessionID, pid, u.QuestionIndex)
	case UpdateComplete:
		return completeKey(u.SessionID, pid)
	}
	return ""
}

// ConnState is the push-channel connection status.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

// Health grades the connection by time since the last event. Any state other
// than connected reports HealthDisconnected regardless of elapsed time.
type Health string

const (
	HealthExcellent    Health = "excellent"
	HealthGood         Health = "good"
	HealthFair         Health = "fair"
	HealthPoor         Health = "poor"
	HealthDisconnected Health = "disconnected"
)

// Fetcher re-reads authoritative participant state for one session.
type Fetcher interface {
	FetchParticipants(ctx context.Context, sessionID string) ([]*services.Participant, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, sessionID string) ([]*services.Participant, error)

func (f FetcherFunc) FetchParticipants(ctx context.Context, sessionID string) ([]*services.Participant, error) {
	return f(ctx, sessionID)
}

// Stats summarizes store activity for the dashboard's status widget.
type Stats struct {
	EventsReceived    int    `json:"events_received"`
	OptimisticUpdates int    `json:"optimistic_updates"`
	Reconciliations   int    `json:"reconciliations"`
	PendingCount      int    `json:"pending_count"`
	QueueLength       int    `json:"queue_length"`
	ConnectionHealth  Health `json:"connection_health"`
}

// Store keeps one dashboard's live view of its sessions: the
// authoritative-as-known participant collections plus in-flight optimistic
// mutations. Local actions show instantly; server events either acknowledge
// them (dedup) or merge in changes from other clients; a periodic reconcile
// sweep re-fetches truth and ages out lost updates.
type Store struct {
	mu           sync.Mutex
	fetcher      Fetcher
	participants map[string][]*services.Participant
	pendingKeys  map[string]struct{}
	pendingQueue []Update
	state        ConnState
	lastEvent    time.Time

	eventsReceived    int
	optimisticApplied int
	reconciliations   int

	ttl       time.Duration
	debouncer *Debouncer
	refreshFn func(sessionID string)
	now       func() time.Time
}

func NewStore(fetcher Fetcher) *Store {
	s := &Store{
		fetcher:      fetcher,
		participants: map[string][]*services.Participant{},
		pendingKeys:  map[string]struct{}{},
		state:        StateConnecting,
		ttl:          DefaultPendingTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
	s.refreshFn = s.refreshSession
	s.debouncer = NewDebouncer(DefaultDebounceWindow, func(sessionID string) { s.refreshFn(sessionID) })
	return s
}

// Close cancels any pending refresh timers.
func (s *Store) Close() {
	s.debouncer.Stop()
}

// ApplyOptimistic mutates the local view immediately and registers the
// update so the echoing server event can be recognized and discarded.
func (s *Store) ApplyOptimistic(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.At.IsZero() {
		u.At = s.now()
	}
	s.apply(u)
	if key := u.DedupKey(); key != "" {
		s.pendingKeys[key] = struct{}{}
		s.pendingQueue = append(s.pendingQueue, u)
	}
	s.optimisticApplied++
}

// OnServerEvent folds one push-channel event into local state. An event
// whose dedup key is pending is the acknowledgment of our own optimistic
// update: it is dropped and the pending entry cleared. Anything else
// originated elsewhere and is applied directly.
func (s *Store) OnServerEvent(e Event) {
	var refresh string
	s.mu.Lock()
	s.eventsReceived++
	s.lastEvent = s.now()
	switch e.Kind {
	case EventConnected:
		s.state = StateConnected
	case EventDisconnected:
		s.state = StateDisconnected
	case EventAnalyticsChanged:
		refresh = e.SessionID
	case EventParticipantJoined, EventResponseReceived, EventParticipantCompleted:
		key := e.DedupKey()
		if _, pending := s.pendingKeys[key]; pending {
			s.clearPending(key)
		} else {
			s.apply(eventToUpdate(e))
		}
	}
	s.mu.Unlock()
	if refresh != "" {
		s.ScheduleRefresh(refresh)
	}
}

func eventToUpdate(e Event) Update {
	u := Update{
		SessionID:     e.SessionID,
		Participant:   e.Participant,
		ParticipantID: e.ParticipantID,
		QuestionIndex: e.QuestionIndex,
		AnswerID:      e.AnswerID,
		At:            e.At,
	}
	switch e.Kind {
	case EventParticipantJoined:
		u.Kind = UpdateJoin
	case EventResponseReceived:
		u.Kind = UpdateAnswer
	case EventParticipantCompleted:
		u.Kind = UpdateComplete
		if e.Participant != nil {
			u.ParticipantID = e.Participant.ID
			u.Scores = e.Participant.Scores
		}
	}
	return u
}

// apply is idempotent by construction: joins overwrite by ID, answers
// overwrite map entries, completion is a one-way flag.
func (s *Store) apply(u Update) {
	switch u.Kind {
	case UpdateJoin:
		if u.Participant == nil {
			return
		}
		list := s.participants[u.SessionID]
		for i, p := range list {
			if p.ID == u.Participant.ID {
				list[i] = u.Participant
				return
			}
		}
		s.participants[u.SessionID] = append(list, u.Participant)
	case UpdateAnswer:
		p := s.find(u.SessionID, u.ParticipantID)
		if p == nil {
			return
		}
		if p.Answers == nil {
			p.Answers = map[int]string{}
		}
		p.Answers[u.QuestionIndex] = u.AnswerID
	case UpdateComplete:
		p := s.find(u.SessionID, u.ParticipantID)
		if p == nil || p.Completed {
			return
		}
		p.Completed = true
		p.Scores = u.Scores
		at := u.At
		p.CompletedAt = &at
	}
}

func (s *Store) find(sessionID, participantID string) *services.Participant {
	for _, p := range s.participants[sessionID] {
		if p.ID == participantID {
			return p
		}
	}
	return nil
}

func (s *Store) clearPending(key string) {
	delete(s.pendingKeys, key)
	for i, u := range s.pendingQueue {
		if u.DedupKey() == key {
			s.pendingQueue = append(s.pendingQueue[:i], s.pendingQueue[i+1:]...)
			return
		}
	}
}

// Reconcile re-fetches authoritative participant data for every session a
// pending update references, then prunes pending entries older than the TTL.
// A failed fetch is logged and skipped; it never aborts the rest of the
// sweep.
func (s *Store) Reconcile(ctx context.Context) {
	s.mu.Lock()
	sessions := map[string]struct{}{}
	for _, u := range s.pendingQueue {
		sessions[u.SessionID] = struct{}{}
	}
	s.mu.Unlock()

	for sid := range sessions {
		ps, err := s.fetcher.FetchParticipants(ctx, sid)
		if err != nil {
			log.Printf("realtime: reconcile fetch for session %s: %v", sid, err)
			continue
		}
		s.mu.Lock()
		s.participants[sid] = ps
		s.mu.Unlock()
	}

	s.mu.Lock()
	cutoff := s.now().Add(-s.ttl)
	kept := s.pendingQueue[:0]
	keys := map[string]struct{}{}
	for _, u := range s.pendingQueue {
		if u.At.Before(cutoff) {
			continue
		}
		kept = append(kept, u)
		keys[u.DedupKey()] = struct{}{}
	}
	s.pendingQueue = kept
	s.pendingKeys = keys
	s.reconciliations++
	s.mu.Unlock()
}

// ScheduleRefresh requests a debounced re-fetch of one session. Rapid
// repeated signals collapse into a single fetch at the window's trailing
// edge.
func (s *Store) ScheduleRefresh(sessionID string) {
	s.debouncer.Trigger(sessionID)
}

func (s *Store) refreshSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	ps, err := s.fetcher.FetchParticipants(ctx, sessionID)
	if err != nil {
		log.Printf("realtime: refresh fetch for session %s: %v", sessionID, err)
		return
	}
	s.mu.Lock()
	s.participants[sessionID] = ps
	s.mu.Unlock()
}

// Participants returns a copy of the local collection for one session.
func (s *Store) Participants(sessionID string) []*services.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*services.Participant(nil), s.participants[sessionID]...)
}

// Snapshot aggregates the local participant view. The aggregation never
// mutates its input, so holding the lock only for the copy is enough.
func (s *Store) Snapshot(sessionID string) *services.AnalyticsSnapshot {
	return services.ComputeAnalytics(s.Participants(sessionID))
}

// ConnectionHealth grades liveness from the time since the last event.
func (s *Store) ConnectionHealth() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health()
}

func (s *Store) health() Health {
	if s.state != StateConnected {
		return HealthDisconnected
	}
	switch elapsed := s.now().Sub(s.lastEvent); {
	case elapsed < 5*time.Second:
		return HealthExcellent
	case elapsed < 30*time.Second:
		return HealthGood
	case elapsed < 60*time.Second:
		return HealthFair
	default:
		return HealthPoor
	}
}

// Stats reports the store's counters and current health.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		EventsReceived:    s.eventsReceived,
		OptimisticUpdates: s.optimisticApplied,
		Reconciliations:   s.reconciliations,
		PendingCount:      len(s.pendingKeys),
		QueueLength:       len(s.pendingQueue),
		ConnectionHealth:  s.health(),
	}
}
