package services

import (
	"encoding/json"
	"math"
	"time"
)

// Generation is one of the four fixed respondent cohorts.
type Generation string

const (
	GenerationBabyBoomer Generation = "Baby Boomer"
	GenerationGenX       Generation = "Gen X"
	GenerationMillennial Generation = "Millennial"
	GenerationGenZ       Generation = "Gen Z"
)

// Generations lists the four cohorts in presentation order.
var Generations = []Generation{GenerationBabyBoomer, GenerationGenX, GenerationMillennial, GenerationGenZ}

// ParseGeneration maps a label to a known cohort. Unknown labels report false.
func ParseGeneration(s string) (Generation, bool) {
	for _, g := range Generations {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// Session is one live survey instance owned by a presenter.
type Session struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	OwnerID   string     `json:"owner_id,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Participant is one respondent within a session. Answers maps question index
// to the chosen answer ID. Scores is set exactly once, on completion; after
// that the vector is immutable.
type Participant struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Name        string            `json:"name"`
	Generation  Generation        `json:"generation"`
	Answers     map[int]string    `json:"answers"`
	Completed   bool              `json:"completed"`
	Scores      *PreferenceScores `json:"scores,omitempty"`
	JoinedAt    time.Time         `json:"joined_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Presenter is an account that owns sessions.
type Presenter struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// PreferenceScores is the four-dimension preference vector, each dimension on
// the canonical 0-10 scale. Use ScorePercent to render a 0-100 view.
type PreferenceScores struct {
	Collaboration int `json:"collaboration"`
	Formality     int `json:"formality"`
	Technology    int `json:"technology"`
	Wellness      int `json:"wellness"`
}

// UnmarshalJSON accepts both "technology" and the abbreviated "tech" key that
// older score producers emit. Missing dimensions decode to 0.
func (p *PreferenceScores) UnmarshalJSON(b []byte) error {
	var raw struct {
		Collaboration *float64 `json:"collaboration"`
		Formality     *float64 `json:"formality"`
		Technology    *float64 `json:"technology"`
		Tech          *float64 `json:"tech"`
		Wellness      *float64 `json:"wellness"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Collaboration = roundDim(raw.Collaboration)
	p.Formality = roundDim(raw.Formality)
	if raw.Technology != nil {
		p.Technology = roundDim(raw.Technology)
	} else {
		p.Technology = roundDim(raw.Tech)
	}
	p.Wellness = roundDim(raw.Wellness)
	return nil
}

func roundDim(v *float64) int {
	if v == nil {
		return 0
	}
	return int(math.Round(*v))
}

// ScorePercent converts a 0-10 dimension score to a 0-100 percentage.
func ScorePercent(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 100
	}
	return score * 10
}
