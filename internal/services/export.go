package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// ExportParticipantsCSV renders a session's participants into a CSV, one row
// per respondent with the four scored dimensions.
func ExportParticipantsCSV(participants []*Participant) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"participant_id", "name", "generation", "completed",
		"collaboration", "formality", "technology", "wellness",
		"joined_at", "completed_at",
	})
	for _, p := range participants {
		if p == nil {
			continue
		}
		var scores PreferenceScores
		if p.Scores != nil {
			scores = *p.Scores
		}
		rec := []string{
			p.ID,
			p.Name,
			string(p.Generation),
			strconv.FormatBool(p.Completed),
			itoa(scores.Collaboration),
			itoa(scores.Formality),
			itoa(scores.Technology),
			itoa(scores.Wellness),
			p.JoinedAt.Format(time.RFC3339),
			formatOptionalTime(p.CompletedAt),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func itoa(v int) string { return strconv.Itoa(v) }

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
