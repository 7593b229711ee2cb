package realtime

import (
	"sync"
	"time"

	"github.com/officepulse/officepulse/internal/services"
)

// subscriber channel depth. Sends never block: a full channel drops the
// event, and the subscriber's next reconcile pass repairs any gap.
const subscriberBuffer = 16

// Hub fans session events out to every subscribed client.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		subs: map[string]map[chan Event]struct{}{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers a listener for one session's events.
func (h *Hub) Subscribe(sessionID string) chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	set := h.subs[sessionID]
	if set == nil {
		set = map[chan Event]struct{}{}
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (h *Hub) Unsubscribe(sessionID string, ch chan Event) {
	h.mu.Lock()
	if set, ok := h.subs[sessionID]; ok {
		if _, member := set[ch]; member {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(h.subs, sessionID)
		}
	}
	h.mu.Unlock()
}

// SubscriberCount reports how many listeners a session currently has.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Publish delivers an event to every subscriber of its session.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = h.now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[e.SessionID] {
		select {
		case ch <- e:
		default:
			// Slow consumer: drop rather than stall the publisher.
		}
	}
}

// Convenience publishers used by the services layer.

func (h *Hub) PublishJoin(sessionID string, p *services.Participant) {
	h.Publish(Event{Kind: EventParticipantJoined, SessionID: sessionID, Participant: p, ParticipantID: participantID(p)})
}

func (h *Hub) PublishAnswer(sessionID, participantID string, questionIndex int, answerID string) {
	h.Publish(Event{
		Kind:          EventResponseReceived,
		SessionID:     sessionID,
		ParticipantID: participantID,
		QuestionIndex: questionIndex,
		AnswerID:      answerID,
	})
}

func (h *Hub) PublishComplete(sessionID string, p *services.Participant) {
	h.Publish(Event{Kind: EventParticipantCompleted, SessionID: sessionID, Participant: p, ParticipantID: participantID(p)})
}

func (h *Hub) PublishAnalyticsChanged(sessionID string) {
	h.Publish(Event{Kind: EventAnalyticsChanged, SessionID: sessionID})
}

func participantID(p *services.Participant) string {
	if p == nil {
		return ""
	}
	return p.ID
}

var _ services.EventPublisher = (*Hub)(nil)
