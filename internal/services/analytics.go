package services

import (
	"math"
	"strings"
)

// Workplace DNA thresholds on the 0-10 scale. A dimension average at or above
// dnaHigh contributes the first adjective of its pair, at or below dnaLow the
// second, otherwise nothing.
const (
	dnaHigh = 7
	dnaLow  = 3
)

const dnaSeparator = " · "

// Word-cloud sizing. Dimension entries scale linearly with the averaged
// score, generation entries with member count.
const (
	cloudDimensionBase   = 16
	cloudDimensionScale  = 4
	cloudGenerationBase  = 14
	cloudGenerationScale = 2
	cloudAdjectiveSize   = 32
	cloudBonusSize       = 22
	cloudBonusThreshold  = 8
)

// AnalyticsSnapshot is a derived aggregate over one session's participants.
// It is a pure function of the participant set: recomputing over the same
// input yields an identical snapshot.
type AnalyticsSnapshot struct {
	TotalCount             int                             `json:"total_count"`
	ActiveCount            int                             `json:"active_count"`
	CompletedCount         int                             `json:"completed_count"`
	ResponseRate           int                             `json:"response_rate"`
	GenerationDistribution map[Generation]int              `json:"generation_distribution"`
	PreferenceScores       PreferenceScores                `json:"preference_scores"`
	GenerationBreakdown    map[Generation]*GenerationStats `json:"generation_breakdown"`
	WorkplaceDNA           string                          `json:"workplace_dna"`
	WordCloud              []WordEntry                     `json:"word_cloud"`
}

// GenerationStats is the per-cohort slice of the aggregate, restricted to
// completed members of that cohort.
type GenerationStats struct {
	Count  int              `json:"count"`
	Scores PreferenceScores `json:"scores"`
}

// WordEntry is one weighted word-cloud term.
type WordEntry struct {
	Text string `json:"text"`
	Size int    `json:"size"`
}

type scoreSums struct {
	collaboration int
	formality     int
	technology    int
	wellness      int
	n             int
}

func (s *scoreSums) add(p *Participant) {
	s.n++
	if p.Scores == nil {
		return
	}
	s.collaboration += p.Scores.Collaboration
	s.formality += p.Scores.Formality
	s.technology += p.Scores.Technology
	s.wellness += p.Scores.Wellness
}

func (s *scoreSums) average() PreferenceScores {
	if s.n == 0 {
		return PreferenceScores{}
	}
	div := func(sum int) int { return int(math.Round(float64(sum) / float64(s.n))) }
	return PreferenceScores{
		Collaboration: div(s.collaboration),
		Formality:     div(s.formality),
		Technology:    div(s.technology),
		Wellness:      div(s.wellness),
	}
}

// ComputeAnalytics aggregates a participant set into a snapshot in a single
// pass. It never fails: malformed records (missing scores, unknown
// generation labels) are defaulted or skipped, and an empty input yields a
// zeroed snapshot with DNA "Balanced".
func ComputeAnalytics(participants []*Participant) *AnalyticsSnapshot {
	total := 0
	dist := make(map[Generation]int, len(Generations))
	for _, g := range Generations {
		dist[g] = 0
	}
	var overall scoreSums
	byGen := map[Generation]*scoreSums{}

	for _, p := range participants {
		if p == nil {
			continue
		}
		total++
		if !p.Completed {
			continue
		}
		overall.add(p)
		if _, known := dist[p.Generation]; !known {
			// Unrecognized cohort labels are skipped, not bucketed.
			continue
		}
		dist[p.Generation]++
		gs := byGen[p.Generation]
		if gs == nil {
			gs = &scoreSums{}
			byGen[p.Generation] = gs
		}
		gs.add(p)
	}

	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(overall.n) / float64(total) * 100))
	}

	avg := overall.average()
	breakdown := make(map[Generation]*GenerationStats, len(byGen))
	for g, gs := range byGen {
		breakdown[g] = &GenerationStats{Count: gs.n, Scores: gs.average()}
	}

	dna, adjectives := workplaceDNA(avg)

	return &AnalyticsSnapshot{
		TotalCount:             total,
		ActiveCount:            total - overall.n,
		CompletedCount:         overall.n,
		ResponseRate:           rate,
		GenerationDistribution: dist,
		PreferenceScores:       avg,
		GenerationBreakdown:    breakdown,
		WorkplaceDNA:           dna,
		WordCloud:              buildWordCloud(avg, dist, adjectives),
	}
}

type dnaPair struct {
	value int
	high  string
	low   string
}

func dnaPairs(avg PreferenceScores) []dnaPair {
	return []dnaPair{
		{avg.Collaboration, "Collaborative", "Independent"},
		{avg.Formality, "Structured", "Flexible"},
		{avg.Technology, "Tech-Forward", "Traditional"},
		{avg.Wellness, "Wellness-Focused", "Performance-Driven"},
	}
}

// workplaceDNA builds the descriptive label from the averaged scores and
// returns the contributing adjectives for word-cloud weighting.
func workplaceDNA(avg PreferenceScores) (string, []string) {
	var adjectives []string
	for _, p := range dnaPairs(avg) {
		switch {
		case p.value >= dnaHigh:
			adjectives = append(adjectives, p.high)
		case p.value <= dnaLow:
			adjectives = append(adjectives, p.low)
		}
	}
	if len(adjectives) == 0 {
		return "Balanced", nil
	}
	return strings.Join(adjectives, dnaSeparator), adjectives
}

var dimensionLabels = []struct {
	label string
	bonus string
	value func(PreferenceScores) int
}{
	{"Collaboration", "Team Players", func(p PreferenceScores) int { return p.Collaboration }},
	{"Formality", "Process Driven", func(p PreferenceScores) int { return p.Formality }},
	{"Technology", "Digital Natives", func(p PreferenceScores) int { return p.Technology }},
	{"Wellness", "Balance Seekers", func(p PreferenceScores) int { return p.Wellness }},
}

// buildWordCloud assembles the weighted terms in a fixed order so repeated
// computation over the same input is byte-identical.
func buildWordCloud(avg PreferenceScores, dist map[Generation]int, adjectives []string) []WordEntry {
	entries := make([]WordEntry, 0, len(dimensionLabels)+len(dist)+len(adjectives))
	for _, d := range dimensionLabels {
		entries = append(entries, WordEntry{Text: d.label, Size: cloudDimensionBase + cloudDimensionScale*d.value(avg)})
	}
	for _, g := range Generations {
		if n := dist[g]; n > 0 {
			entries = append(entries, WordEntry{Text: string(g), Size: cloudGenerationBase + cloudGenerationScale*n})
		}
	}
	for _, adj := range adjectives {
		entries = append(entries, WordEntry{Text: adj, Size: cloudAdjectiveSize})
	}
	for _, d := range dimensionLabels {
		if d.value(avg) >= cloudBonusThreshold {
			entries = append(entries, WordEntry{Text: d.bonus, Size: cloudBonusSize})
		}
	}
	return entries
}
