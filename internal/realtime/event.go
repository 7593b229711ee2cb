// Package realtime carries live session state between the server and the
// presenter dashboards: a push hub fanning out confirmed mutations, and a
// reconciliation store that keeps a dashboard's local view consistent with
// optimistic updates applied ahead of server confirmation.
package realtime

import (
	"strconv"
	"time"

	"github.com/officepulse/officepulse/internal/services"
)

// EventKind enumerates the push-channel event taxonomy.
type EventKind string

const (
	EventConnected            EventKind = "connected"
	EventDisconnected         EventKind = "disconnected"
	EventParticipantJoined    EventKind = "participant-joined"
	EventResponseReceived     EventKind = "response-received"
	EventParticipantCompleted EventKind = "participant-completed"
	EventAnalyticsChanged     EventKind = "analytics-changed"
)

// Event is one push-channel message. Delivery is at-least-once and unordered
// across participants; dedup and idempotent application are the store's job.
type Event struct {
	Kind          EventKind             `json:"kind"`
	SessionID     string                `json:"session_id,omitempty"`
	Participant   *services.Participant `json:"participant,omitempty"`
	ParticipantID string                `json:"participant_id,omitempty"`
	QuestionIndex int                   `json:"question_index,omitempty"`
	AnswerID      string                `json:"answer_id,omitempty"`
	At            time.Time             `json:"at"`
}

// DedupKey identifies the logical mutation an event confirms. It must match
// the key the optimistic path registered, or acknowledgments never pair up.
// Connection and analytics events carry no mutation and return "".
func (e Event) DedupKey() string {
	pid := e.ParticipantID
	if pid == "" && e.Participant != nil {
		pid = e.Participant.ID
	}
	switch e.Kind {
	case EventParticipantJoined:
		return joinKey(e.SessionID, pid)
	case EventResponseReceived:
		return answerKey(e.SessionID, pid, e.QuestionIndex)
	case EventParticipantCompleted:
		return completeKey(e.SessionID, pid)
	}
	return ""
}

func joinKey(sessionID, participantID string) string {
	return sessionID + "-" + participantID
}

func answerKey(sessionID, participantID string, questionIndex int) string {
	return sessionID + "-" + participantID + "-" + strconv.Itoa(questionIndex)
}

func completeKey(sessionID, participantID string) string {
	return sessionID + "-" + participantID + "-complete"
}
