// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary computes value distributions and progress figures over a
// set of annotator result files.
package summary

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/datalabel/internal/merge"
	"github.com/pdiddy/datalabel/pkg/types"
)

// annotatedAtKey is the optional response timestamp used for the per-day
// breakdown; only its date part (first ten characters) is used.
const annotatedAtKey = "annotated_at"

// AnnotatorProgress reports how many of all known tasks one annotator answered.
type AnnotatorProgress struct {
	Annotator  string         `json:"annotator" yaml:"annotator"`
	Completed  int            `json:"completed" yaml:"completed"`
	Total      int            `json:"total" yaml:"total"`
	Percentage float64        `json:"percentage" yaml:"percentage"`
	Counts     map[string]int `json:"counts" yaml:"counts"`
}

// ScoreSummary holds descriptive statistics of score values.
type ScoreSummary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summary is the distribution of annotation values across result sets.
type Summary struct {
	// Kind is the value kind of the first recognised response.
	Kind types.Kind `json:"kind" yaml:"kind"`

	TotalTasks        int                 `json:"total_tasks" yaml:"total_tasks"`
	OverallCompletion float64             `json:"overall_completion" yaml:"overall_completion"`
	Labels            []string            `json:"labels" yaml:"labels"`
	Aggregate         map[string]int      `json:"aggregate" yaml:"aggregate"`
	Annotators        []AnnotatorProgress `json:"annotators" yaml:"annotators"`
	Scores            *ScoreSummary       `json:"scores,omitempty" yaml:"scores,omitempty"`
	PerDay            map[string]int      `json:"per_day,omitempty" yaml:"per_day,omitempty"`
}

// Compute summarises sets. Only responses of the detected kind are
// counted: multi-choice counts every selected item, rankings count the
// first-place item, and free text is not counted.
func Compute(sets []types.AnnotatorResultSet) Summary {
	tasks := merge.GroupByTask(sets)
	s := Summary{
		Kind:       detectKind(sets),
		TotalTasks: len(tasks),
		Aggregate:  make(map[string]int),
		Labels:     []string{},
	}

	var scores stats.Float64Data
	perDay := make(map[string]int)
	var completion []float64

	for _, set := range sets {
		p := AnnotatorProgress{
			Annotator: set.Annotator,
			Completed: len(set.Responses),
			Total:     s.TotalTasks,
			Counts:    make(map[string]int),
		}
		if s.TotalTasks > 0 {
			ratio := float64(p.Completed) / float64(s.TotalTasks)
			completion = append(completion, ratio)
			p.Percentage = math.Round(ratio*1000) / 10
		}

		for _, id := range set.IDs() {
			r := set.Responses[id]
			if day := dayOf(r); day != "" {
				perDay[day]++
			}
			if r.Value.Kind != s.Kind {
				continue
			}
			for _, label := range labelsOf(r.Value) {
				p.Counts[label]++
				s.Aggregate[label]++
			}
			if r.Value.Kind == types.KindScore {
				scores = append(scores, r.Value.Score)
			}
		}
		s.Annotators = append(s.Annotators, p)
	}

	if len(completion) > 0 {
		if mean, err := stats.Mean(completion); err == nil {
			s.OverallCompletion = mean
		}
	}
	if len(perDay) > 0 {
		s.PerDay = perDay
	}
	s.Labels = sortedLabels(s.Aggregate, s.Kind)
	s.Scores = summarizeScores(scores)
	return s
}

func detectKind(sets []types.AnnotatorResultSet) types.Kind {
	for _, set := range sets {
		for _, id := range set.IDs() {
			if v := set.Responses[id].Value; !v.IsUnknown() {
				return v.Kind
			}
		}
	}
	return types.KindUnknown
}

func labelsOf(v types.AnnotationValue) []string {
	switch v.Kind {
	case types.KindScore:
		return []string{types.FormatScore(v.Score)}
	case types.KindChoice:
		if v.Choice == "" {
			return nil
		}
		return []string{v.Choice}
	case types.KindMultiChoice:
		return v.Choices
	case types.KindRanking:
		if len(v.Ranking) == 0 {
			return nil
		}
		return v.Ranking[:1]
	}
	return nil
}

func dayOf(r types.Response) string {
	ts, ok := r.Raw[annotatedAtKey].(string)
	if !ok || len(ts) < 10 {
		return ""
	}
	return ts[:10]
}

// sortedLabels orders score labels numerically and everything else
// lexicographically.
func sortedLabels(counts map[string]int, kind types.Kind) []string {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	if kind != types.KindScore {
		sort.Strings(labels)
		return labels
	}
	sort.Slice(labels, func(i, j int) bool {
		a, _ := strconv.ParseFloat(labels[i], 64)
		b, _ := strconv.ParseFloat(labels[j], 64)
		return a < b
	})
	return labels
}

func summarizeScores(scores stats.Float64Data) *ScoreSummary {
	if len(scores) == 0 {
		return nil
	}
	out := &ScoreSummary{Count: len(scores)}
	out.Mean, _ = scores.Mean()
	out.Median, _ = scores.Median()
	out.StdDev, _ = scores.StandardDeviation()
	out.Min, _ = scores.Min()
	out.Max, _ = scores.Max()
	return out
}
