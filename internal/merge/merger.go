// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge reconciles several annotators' answers into one consensus
// record per task and detects conflicting tasks.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/datalabel/pkg/types"
)

// Strategy names a merge policy.
type Strategy string

const (
	// Majority picks the most frequent value; ties go to the smallest.
	Majority Strategy = "majority"
	// Average takes the arithmetic mean of scores. Choices fall back to
	// majority and rankings to Borda count.
	Average Strategy = "average"
	// Strict keeps a value only when every annotator gave it.
	Strict Strategy = "strict"
)

// Strategies lists the recognised strategies.
var Strategies = []Strategy{Majority, Average, Strict}

// Known reports whether s is a recognised strategy. Unknown strategies
// are not errors: they merge to the first annotator's value.
func (s Strategy) Known() bool {
	switch s {
	case Majority, Average, Strict:
		return true
	}
	return false
}

// ErrMixedKinds is returned when one task received values of different kinds.
var ErrMixedKinds = fmt.Errorf("%w: mixed annotation kinds", types.ErrData)

// commentSep joins annotator comments in a merged record.
const commentSep = " | "

// Merger combines the values one task received. It holds no state; a new
// instance per call site is fine.
type Merger struct{}

// NewMerger returns a Merger.
func NewMerger() *Merger {
	return &Merger{}
}

// Merge returns the consensus of values under strategy, or nil when the
// strategy declines to produce one. A single value is returned unchanged.
// The kind of the first value decides the per-kind rule; any value of a
// different kind yields ErrMixedKinds.
func (m *Merger) Merge(values []types.AnnotationValue, strategy Strategy) (*types.AnnotationValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	kind := values[0].Kind
	for i, v := range values[1:] {
		if v.Kind != kind {
			return nil, fmt.Errorf("%w: value %d is %s, first is %s", ErrMixedKinds, i+1, v.Kind, kind)
		}
	}
	if len(values) == 1 {
		v := values[0]
		return &v, nil
	}

	switch kind {
	case types.KindScore:
		return mergeScores(values, strategy), nil
	case types.KindChoice:
		return mergeChoices(values, strategy), nil
	case types.KindMultiChoice:
		return mergeMultiChoice(values, strategy), nil
	case types.KindText:
		// Free text has no automatic consensus; the individual texts stay
		// on the record for review.
		v := values[0]
		return &v, nil
	case types.KindRanking:
		return mergeRankings(values, strategy), nil
	}
	return nil, nil
}

// MergeTask builds the merged record for one task's responses, given in
// annotator order.
func (m *Merger) MergeTask(taskID string, responses []types.Response, strategy Strategy) (types.MergedRecord, error) {
	values := make([]types.AnnotationValue, len(responses))
	var comments []string
	for i, r := range responses {
		values[i] = r.Value
		if r.Comment != "" {
			comments = append(comments, r.Comment)
		}
	}

	merged, err := m.Merge(values, strategy)
	if err != nil {
		return types.MergedRecord{}, fmt.Errorf("task %s: %w", taskID, err)
	}

	rec := types.MergedRecord{
		TaskID:           taskID,
		Kind:             types.KindUnknown,
		Value:            merged,
		IndividualValues: values,
		AnnotationCount:  len(responses),
		Comment:          strings.Join(comments, commentSep),
	}
	if len(values) > 0 {
		rec.Kind = values[0].Kind
	}
	return rec, nil
}

func mergeScores(values []types.AnnotationValue, strategy Strategy) *types.AnnotationValue {
	switch strategy {
	case Majority:
		counts := make(map[float64]int, len(values))
		for _, v := range values {
			counts[v.Score]++
		}
		best, bestCount := 0.0, 0
		for score, n := range counts {
			if n > bestCount || (n == bestCount && score < best) {
				best, bestCount = score, n
			}
		}
		out := types.ScoreValue(best)
		return &out

	case Average:
		scores := make(stats.Float64Data, len(values))
		for i, v := range values {
			scores[i] = v.Score
		}
		mean, err := stats.Mean(scores)
		if err != nil {
			return nil
		}
		out := types.ScoreValue(mean)
		return &out

	case Strict:
		return common(values)
	}

	v := values[0]
	return &v
}

func mergeChoices(values []types.AnnotationValue, strategy Strategy) *types.AnnotationValue {
	switch strategy {
	case Majority, Average:
		counts := make(map[string]int, len(values))
		for _, v := range values {
			counts[v.Choice]++
		}
		best, bestCount := "", 0
		for choice, n := range counts {
			if n > bestCount || (n == bestCount && choice < best) {
				best, bestCount = choice, n
			}
		}
		out := types.ChoiceValue(best)
		return &out

	case Strict:
		return common(values)
	}

	v := values[0]
	return &v
}

func mergeMultiChoice(values []types.AnnotationValue, strategy Strategy) *types.AnnotationValue {
	var threshold func(count int) bool
	n := len(values)
	switch strategy {
	case Strict:
		threshold = func(count int) bool { return count == n }
	case Majority:
		threshold = func(count int) bool { return 2*count > n }
	default:
		out := types.MultiChoiceValue(values[0].Choices)
		return &out
	}

	// Items are reported in the order annotators first listed them.
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		seen := make(map[string]bool, len(v.Choices))
		for _, item := range v.Choices {
			if seen[item] {
				continue
			}
			seen[item] = true
			if counts[item] == 0 {
				order = append(order, item)
			}
			counts[item]++
		}
	}

	selected := make([]string, 0, len(order))
	for _, item := range order {
		if threshold(counts[item]) {
			selected = append(selected, item)
		}
	}
	out := types.MultiChoiceValue(selected)
	return &out
}

func mergeRankings(values []types.AnnotationValue, strategy Strategy) *types.AnnotationValue {
	if strategy == Strict {
		return common(values)
	}

	// Borda count: in a ranking of length n the item at position p earns
	// n-p points.
	points := make(map[string]int)
	var order []string
	for _, v := range values {
		n := len(v.Ranking)
		for p, item := range v.Ranking {
			if _, seen := points[item]; !seen {
				order = append(order, item)
			}
			points[item] += n - p
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return points[order[a]] > points[order[b]] })

	out := types.RankingValue(order)
	return &out
}

// common returns the shared value when every canonical key matches, else nil.
func common(values []types.AnnotationValue) *types.AnnotationValue {
	key := values[0].Key()
	for _, v := range values[1:] {
		if v.Key() != key {
			return nil
		}
	}
	v := values[0]
	return &v
}
