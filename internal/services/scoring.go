package services

import "math"

// QuestionCount is the length of the fixed question set every session uses.
const QuestionCount = 8

const (
	dimCollaboration = iota
	dimFormality
	dimTechnology
	dimWellness
	dimCount
)

// questionTable maps each question index to the dimension it probes and the
// points each answer option contributes on the 0-10 scale. Two questions per
// dimension; the final dimension score is the rounded mean of its questions,
// with unanswered questions counting as 0.
var questionTable = []struct {
	dimension int
	points    map[string]int
}{
	{dimCollaboration, map[string]int{"a": 10, "b": 7, "c": 3, "d": 0}},
	{dimFormality, map[string]int{"a": 10, "b": 7, "c": 3, "d": 0}},
	{dimTechnology, map[string]int{"a": 0, "b": 3, "c": 7, "d": 10}},
	{dimWellness, map[string]int{"a": 10, "b": 7, "c": 3, "d": 0}},
	{dimCollaboration, map[string]int{"a": 0, "b": 3, "c": 7, "d": 10}},
	{dimFormality, map[string]int{"a": 0, "b": 3, "c": 7, "d": 10}},
	{dimTechnology, map[string]int{"a": 10, "b": 7, "c": 3, "d": 0}},
	{dimWellness, map[string]int{"a": 0, "b": 3, "c": 7, "d": 10}},
}

// ComputeScores derives the preference vector from a full answer set.
// Deterministic: the same answers always produce the same vector. Unknown
// answer IDs and missing questions contribute 0.
func ComputeScores(answers map[int]string) PreferenceScores {
	var sums, counts [dimCount]int
	for i, q := range questionTable {
		counts[q.dimension]++
		if answers == nil {
			continue
		}
		sums[q.dimension] += q.points[answers[i]]
	}
	avg := func(d int) int {
		if counts[d] == 0 {
			return 0
		}
		return int(math.Round(float64(sums[d]) / float64(counts[d])))
	}
	return PreferenceScores{
		Collaboration: avg(dimCollaboration),
		Formality:     avg(dimFormality),
		Technology:    avg(dimTechnology),
		Wellness:      avg(dimWellness),
	}
}
