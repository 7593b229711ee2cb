package services

import (
	"strings"
	"testing"
	"time"
)

func TestExportParticipantsCSV(t *testing.T) {
	joined := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	done := joined.Add(5 * time.Minute)
	ps := []*Participant{
		{
			ID: "p1", Name: "Ada", Generation: GenerationGenZ, Completed: true,
			Scores:   &PreferenceScores{Collaboration: 8, Formality: 2, Technology: 9, Wellness: 7},
			JoinedAt: joined, CompletedAt: &done,
		},
		{ID: "p2", Name: "Grace", Generation: GenerationGenX, JoinedAt: joined},
		nil,
	}
	b, err := ExportParticipantsCSV(ps)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "participant_id,name,generation,completed") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Ada,Gen Z,true,8,2,9,7") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	// Incomplete participants export zero scores and no completion time.
	if !strings.Contains(lines[2], "Grace,Gen X,false,0,0,0,0") {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}
