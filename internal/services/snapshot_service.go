package services

import (
	"github.com/officepulse/officepulse/internal/cache"
)

// SnapshotStore abstracts the single read AnalyticsService needs.
type SnapshotStore interface {
	ListParticipants(sessionID string) ([]*Participant, error)
}

// AnalyticsService serves dashboard snapshots through the memoized cache.
// Every refresh re-aggregates the full participant set, so the cache keeps
// hot sessions from recomputing on each poll.
type AnalyticsService struct {
	store SnapshotStore
	cache *cache.TTL
}

func NewAnalyticsService(store SnapshotStore, c *cache.TTL) *AnalyticsService {
	return &AnalyticsService{store: store, cache: c}
}

// Snapshot returns the current analytics aggregate for a session.
func (s *AnalyticsService) Snapshot(sessionID string) (*AnalyticsSnapshot, error) {
	if sessionID == "" {
		return nil, NewInvalidError("session required")
	}
	key := cache.AnalyticsBySession(sessionID)
	if v, ok := s.cache.Get(key); ok {
		return v.(*AnalyticsSnapshot), nil
	}
	ps, err := s.store.ListParticipants(sessionID)
	if err != nil {
		return nil, err
	}
	snap := ComputeAnalytics(ps)
	s.cache.Set(key, snap, cache.AnalyticsTTL)
	return snap, nil
}
