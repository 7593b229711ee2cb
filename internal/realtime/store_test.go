package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/officepulse/officepulse/internal/services"
)

type stubFetcher struct {
	bySession map[string][]*services.Participant
	errFor    map[string]error
	calls     map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bySession: map[string][]*services.Participant{},
		errFor:    map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *stubFetcher) FetchParticipants(ctx context.Context, sessionID string) ([]*services.Participant, error) {
	f.calls[sessionID]++
	if err := f.errFor[sessionID]; err != nil {
		return nil, err
	}
	return f.bySession[sessionID], nil
}

func newTestStore(f Fetcher) *Store {
	s := NewStore(f)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func joinUpdate(sessionID, pid string) Update {
	return Update{
		Kind:        UpdateJoin,
		SessionID:   sessionID,
		Participant: &services.Participant{ID: pid, SessionID: sessionID, Generation: services.GenerationGenZ},
	}
}

func TestOptimisticJoinThenEcho(t *testing.T) {
	s := newTestStore(newStubFetcher())
	defer s.Close()

	s.ApplyOptimistic(joinUpdate("s1", "x"))
	if got := len(s.Participants("s1")); got != 1 {
		t.Fatalf("expected 1 participant after optimistic join, got %d", got)
	}
	if st := s.Stats(); st.PendingCount != 1 || st.QueueLength != 1 {
		t.Fatalf("expected pending entry, got %+v", st)
	}

	// The server echo of our own join is an acknowledgment, not a new apply.
	s.OnServerEvent(Event{
		Kind:        EventParticipantJoined,
		SessionID:   "s1",
		Participant: &services.Participant{ID: "x", SessionID: "s1"},
	})
	if got := len(s.Participants("s1")); got != 1 {
		t.Fatalf("echoed join must not duplicate, got %d participants", got)
	}
	if st := s.Stats(); st.PendingCount != 0 || st.QueueLength != 0 {
		t.Fatalf("acknowledgment must clear the pending entry: %+v", st)
	}
}

func TestRemoteEventApplies(t *testing.T) {
	s := newTestStore(newStubFetcher())
	defer s.Close()

	s.OnServerEvent(Event{
		Kind:        EventParticipantJoined,
		SessionID:   "s1",
		Participant: &services.Participant{ID: "y", SessionID: "s1"},
	})
	if got := len(s.Participants("s1")); got != 1 {
		t.Fatalf("remote join must apply, got %d participants", got)
	}

	s.OnServerEvent(Event{
		Kind:          EventResponseReceived,
		SessionID:     "s1",
		ParticipantID: "y",
		QuestionIndex: 2,
		AnswerID:      "b",
	})
	ps := s.Participants("s1")
	if ps[0].Answers[2] != "b" {
		t.Fatalf("remote answer must merge: %+v", ps[0].Answers)
	}

	// Duplicate delivery is idempotent.
	s.OnServerEvent(Event{
		Kind:          EventResponseReceived,
		SessionID:     "s1",
		ParticipantID: "y",
		QuestionIndex: 2,
		AnswerID:      "b",
	})
	ps = s.Participants("s1")
	if len(ps[0].Answers) != 1 {
		t.Fatalf("duplicate answer must not accumulate: %+v", ps[0].Answers)
	}
}

func TestOptimisticAnswerDedupMatchesAlone(t *testing.T) {
	base := newTestStore(newStubFetcher())
	defer base.Close()
	echoed := newTestStore(newStubFetcher())
	defer echoed.Close()

	for _, s := range []*Store{base, echoed} {
		s.ApplyOptimistic(joinUpdate("s1", "x"))
		s.ApplyOptimistic(Update{Kind: UpdateAnswer, SessionID: "s1", ParticipantID: "x", QuestionIndex: 1, AnswerID: "c"})
	}
	echoed.OnServerEvent(Event{Kind: EventResponseReceived, SessionID: "s1", ParticipantID: "x", QuestionIndex: 1, AnswerID: "c"})

	b := base.Participants("s1")[0]
	e := echoed.Participants("s1")[0]
	if len(b.Answers) != len(e.Answers) || b.Answers[1] != e.Answers[1] {
		t.Fatalf("optimistic+echo must equal optimistic alone: %+v vs %+v", b.Answers, e.Answers)
	}
}

func TestCompleteEventFreezesOnce(t *testing.T) {
	s := newTestStore(newStubFetcher())
	defer s.Close()
	s.OnServerEvent(Event{Kind: EventParticipantJoined, SessionID: "s1", Participant: &services.Participant{ID: "x", SessionID: "s1"}})

	scores := &services.PreferenceScores{Collaboration: 8}
	s.OnServerEvent(Event{Kind: EventParticipantCompleted, SessionID: "s1", Participant: &services.Participant{ID: "x", SessionID: "s1", Completed: true, Scores: scores}})
	p := s.Participants("s1")[0]
	if !p.Completed || p.Scores == nil || p.Scores.Collaboration != 8 {
		t.Fatalf("completion not applied: %+v", p)
	}

	// A late duplicate with different scores must not overwrite the vector.
	late := &services.PreferenceScores{Collaboration: 1}
	s.OnServerEvent(Event{Kind: EventParticipantCompleted, SessionID: "s1", Participant: &services.Participant{ID: "x", SessionID: "s1", Completed: true, Scores: late}})
	if s.Participants("s1")[0].Scores.Collaboration != 8 {
		t.Fatalf("completed scores must be immutable")
	}
}

func TestReconcilePrunesExpiredPending(t *testing.T) {
	f := newStubFetcher()
	s := newTestStore(f)
	defer s.Close()

	now := s.now()
	stale := joinUpdate("s1", "old")
	stale.At = now.Add(-6 * time.Second)
	fresh := joinUpdate("s1", "new")
	fresh.At = now.Add(-1 * time.Second)
	s.ApplyOptimistic(stale)
	s.ApplyOptimistic(fresh)

	f.bySession["s1"] = []*services.Participant{{ID: "new", SessionID: "s1"}}
	s.Reconcile(context.Background())

	st := s.Stats()
	if st.PendingCount != 1 || st.QueueLength != 1 {
		t.Fatalf("expected stale entry pruned, got %+v", st)
	}
	if st.Reconciliations != 1 {
		t.Fatalf("expected one reconciliation, got %+v", st)
	}
	s.mu.Lock()
	_, stalePending := s.pendingKeys[stale.DedupKey()]
	_, freshPending := s.pendingKeys[fresh.DedupKey()]
	s.mu.Unlock()
	if stalePending || !freshPending {
		t.Fatalf("stale key must age out, fresh key must survive")
	}
	// Authoritative data replaced the local collection.
	if ps := s.Participants("s1"); len(ps) != 1 || ps[0].ID != "new" {
		t.Fatalf("reconcile must replace local state: %+v", ps)
	}
}

func TestReconcileIsolatesFailures(t *testing.T) {
	f := newStubFetcher()
	s := newTestStore(f)
	defer s.Close()

	s.ApplyOptimistic(joinUpdate("bad", "p1"))
	s.ApplyOptimistic(joinUpdate("good", "p2"))
	f.errFor["bad"] = errors.New("boom")
	f.bySession["good"] = []*services.Participant{{ID: "p2", SessionID: "good"}, {ID: "p3", SessionID: "good"}}

	s.Reconcile(context.Background())

	if f.calls["good"] != 1 {
		t.Fatalf("healthy session must still be fetched")
	}
	if ps := s.Participants("good"); len(ps) != 2 {
		t.Fatalf("healthy session must be refreshed: %+v", ps)
	}
	// The failed session keeps its stale local view.
	if ps := s.Participants("bad"); len(ps) != 1 || ps[0].ID != "p1" {
		t.Fatalf("failed fetch must leave local state intact: %+v", ps)
	}
}

func TestConnectionHealth(t *testing.T) {
	s := newTestStore(newStubFetcher())
	defer s.Close()

	if got := s.ConnectionHealth(); got != HealthDisconnected {
		t.Fatalf("connecting state must report disconnected, got %s", got)
	}

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.OnServerEvent(Event{Kind: EventConnected})

	cases := []struct {
		elapsed time.Duration
		want    Health
	}{
		{time.Second, HealthExcellent},
		{10 * time.Second, HealthGood},
		{45 * time.Second, HealthFair},
		{2 * time.Minute, HealthPoor},
	}
	for _, c := range cases {
		s.now = func() time.Time { return base.Add(c.elapsed) }
		if got := s.ConnectionHealth(); got != c.want {
			t.Fatalf("health after %s = %s, want %s", c.elapsed, got, c.want)
		}
	}

	s.OnServerEvent(Event{Kind: EventDisconnected})
	s.now = func() time.Time { return base }
	if got := s.ConnectionHealth(); got != HealthDisconnected {
		t.Fatalf("disconnected state wins over elapsed time, got %s", got)
	}
}

func TestStatsCounters(t *testing.T) {
	s := newTestStore(newStubFetcher())
	defer s.Close()

	s.ApplyOptimistic(joinUpdate("s1", "x"))
	s.OnServerEvent(Event{Kind: EventConnected})
	s.OnServerEvent(Event{Kind: EventParticipantJoined, SessionID: "s1", Participant: &services.Participant{ID: "y", SessionID: "s1"}})
	s.Reconcile(context.Background())

	st := s.Stats()
	if st.OptimisticUpdates != 1 || st.EventsReceived != 2 || st.Reconciliations != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
}

func TestSnapshotUsesLocalView(t *testing.T) {
	s := newTestStore(newStubFetcher())
	defer s.Close()

	s.ApplyOptimistic(joinUpdate("s1", "x"))
	s.ApplyOptimistic(Update{
		Kind:          UpdateComplete,
		SessionID:     "s1",
		ParticipantID: "x",
		Scores:        &services.PreferenceScores{Collaboration: 8, Formality: 2, Technology: 9, Wellness: 7},
	})
	snap := s.Snapshot("s1")
	if snap.CompletedCount != 1 || snap.PreferenceScores.Technology != 9 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestScheduleRefreshDebounces(t *testing.T) {
	f := newStubFetcher()
	s := NewStore(f)
	defer s.Close()
	s.debouncer = NewDebouncer(50*time.Millisecond, func(id string) { s.refreshFn(id) })

	fired := make(chan string, 8)
	s.refreshFn = func(sessionID string) { fired <- sessionID }

	for i := 0; i < 5; i++ {
		s.ScheduleRefresh("s1")
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case id := <-fired:
		if id != "s1" {
			t.Fatalf("unexpected session refreshed: %s", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("refresh never fired")
	}
	select {
	case <-fired:
		t.Fatalf("burst must collapse into one refresh")
	case <-time.After(150 * time.Millisecond):
	}
}
