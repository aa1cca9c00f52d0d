// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datalabel/pkg/types"
)

type entry struct {
	id    string
	value types.AnnotationValue
	at    string
}

func set(annotator string, entries ...entry) types.AnnotatorResultSet {
	s := types.AnnotatorResultSet{Annotator: annotator, Responses: make(map[string]types.Response)}
	for _, e := range entries {
		raw := map[string]any{"task_id": e.id}
		if e.at != "" {
			raw["annotated_at"] = e.at
		}
		s.TaskIDs = append(s.TaskIDs, e.id)
		s.Responses[e.id] = types.Response{TaskID: e.id, Value: e.value, Raw: raw}
	}
	return s
}

func TestComputeScores(t *testing.T) {
	sets := []types.AnnotatorResultSet{
		set("a",
			entry{id: "T1", value: types.ScoreValue(3), at: "2026-01-15T10:00:00Z"},
			entry{id: "T2", value: types.ScoreValue(10), at: "2026-01-16T10:00:00Z"}),
		set("b",
			entry{id: "T1", value: types.ScoreValue(3), at: "2026-01-15T11:00:00Z"}),
	}

	s := Compute(sets)
	assert.Equal(t, types.KindScore, s.Kind)
	assert.Equal(t, 2, s.TotalTasks)
	assert.Equal(t, []string{"3", "10"}, s.Labels)
	assert.Equal(t, map[string]int{"3": 2, "10": 1}, s.Aggregate)
	assert.InDelta(t, 0.75, s.OverallCompletion, 1e-9)
	assert.Equal(t, map[string]int{"2026-01-15": 2, "2026-01-16": 1}, s.PerDay)

	require.Len(t, s.Annotators, 2)
	assert.Equal(t, 100.0, s.Annotators[0].Percentage)
	assert.Equal(t, 50.0, s.Annotators[1].Percentage)
	assert.Equal(t, map[string]int{"3": 1}, s.Annotators[1].Counts)

	require.NotNil(t, s.Scores)
	assert.Equal(t, 3, s.Scores.Count)
	assert.InDelta(t, 16.0/3.0, s.Scores.Mean, 1e-9)
	assert.Equal(t, 3.0, s.Scores.Median)
	assert.Equal(t, 3.0, s.Scores.Min)
	assert.Equal(t, 10.0, s.Scores.Max)
}

func TestComputeMultiChoiceAndRanking(t *testing.T) {
	multi := Compute([]types.AnnotatorResultSet{
		set("a", entry{id: "T1", value: types.MultiChoiceValue([]string{"x", "y"})}),
		set("b", entry{id: "T1", value: types.MultiChoiceValue([]string{"y"})}),
	})
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, multi.Aggregate)
	assert.Nil(t, multi.Scores)
	assert.Nil(t, multi.PerDay)

	ranking := Compute([]types.AnnotatorResultSet{
		set("a", entry{id: "T1", value: types.RankingValue([]string{"p", "q"})}),
		set("b", entry{id: "T1", value: types.RankingValue([]string{"q", "p"})}),
		set("c", entry{id: "T1", value: types.RankingValue([]string{"p", "q"})}),
	})
	assert.Equal(t, map[string]int{"p": 2, "q": 1}, ranking.Aggregate)
	assert.Equal(t, []string{"p", "q"}, ranking.Labels)
}

func TestComputeTextNotCounted(t *testing.T) {
	s := Compute([]types.AnnotatorResultSet{
		set("a", entry{id: "T1", value: types.UnknownValue()}, entry{id: "T2", value: types.TextValue("hi")}),
	})
	assert.Equal(t, types.KindText, s.Kind)
	assert.Empty(t, s.Aggregate)
	assert.Empty(t, s.Labels)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	assert.Equal(t, types.KindUnknown, s.Kind)
	assert.Equal(t, 0, s.TotalTasks)
	assert.Equal(t, 0.0, s.OverallCompletion)
	assert.NotNil(t, s.Labels)
}

func TestComputeSetsWithoutTaskIDs(t *testing.T) {
	s := Compute([]types.AnnotatorResultSet{
		{Annotator: "a", Responses: map[string]types.Response{
			"t1": {TaskID: "t1", Value: types.ChoiceValue("pos")},
			"t2": {TaskID: "t2", Value: types.ChoiceValue("neg")},
		}},
	})
	assert.Equal(t, types.KindChoice, s.Kind)
	assert.Equal(t, 2, s.TotalTasks)
	assert.Equal(t, map[string]int{"neg": 1, "pos": 1}, s.Aggregate)
}
