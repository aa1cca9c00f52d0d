// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datalabel/pkg/types"
)

func scores(vs ...float64) []types.AnnotationValue {
	out := make([]types.AnnotationValue, len(vs))
	for i, v := range vs {
		out[i] = types.ScoreValue(v)
	}
	return out
}

func choices(vs ...string) []types.AnnotationValue {
	out := make([]types.AnnotationValue, len(vs))
	for i, v := range vs {
		out[i] = types.ChoiceValue(v)
	}
	return out
}

func mergeOne(t *testing.T, values []types.AnnotationValue, s Strategy) *types.AnnotationValue {
	t.Helper()
	got, err := NewMerger().Merge(values, s)
	require.NoError(t, err)
	return got
}

func TestMergeSingleValueIsIdentity(t *testing.T) {
	values := []types.AnnotationValue{
		types.ScoreValue(4),
		types.ChoiceValue("pos"),
		types.MultiChoiceValue([]string{"b", "a"}),
		types.TextValue("only one"),
		types.RankingValue([]string{"x", "y"}),
		types.UnknownValue(),
	}
	for _, v := range values {
		for _, s := range append(Strategies, "bogus") {
			got := mergeOne(t, []types.AnnotationValue{v}, s)
			require.NotNil(t, got, "%s/%s", v.Kind, s)
			assert.Equal(t, v, *got, "%s/%s", v.Kind, s)
		}
	}
}

func TestMergeScores(t *testing.T) {
	tests := []struct {
		name     string
		values   []types.AnnotationValue
		strategy Strategy
		want     *types.AnnotationValue
	}{
		{"majority unanimous", scores(3, 3, 3), Majority, ptr(types.ScoreValue(3))},
		{"majority 2-1", scores(2, 1, 2), Majority, ptr(types.ScoreValue(2))},
		{"majority 3-3-2", scores(3, 3, 2), Majority, ptr(types.ScoreValue(3))},
		{"majority tie picks smallest", scores(2, 1), Majority, ptr(types.ScoreValue(1))},
		{"majority even tie picks smallest", scores(5, 4, 5, 4), Majority, ptr(types.ScoreValue(4))},
		{"average", scores(2, 1, 2), Average, ptr(types.ScoreValue(5.0 / 3.0))},
		{"strict disagreement", scores(2, 1, 2), Strict, nil},
		{"strict agreement", scores(3, 3, 3), Strict, ptr(types.ScoreValue(3))},
		{"strict treats 3 and 3.0 alike", scores(3, 3.0), Strict, ptr(types.ScoreValue(3))},
		{"unknown strategy takes first", scores(1, 2, 2), "median", ptr(types.ScoreValue(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeOne(t, tt.values, tt.strategy))
		})
	}
}

func TestMergeChoices(t *testing.T) {
	tests := []struct {
		name     string
		values   []types.AnnotationValue
		strategy Strategy
		want     *types.AnnotationValue
	}{
		{"majority", choices("pos", "pos", "neg"), Majority, ptr(types.ChoiceValue("pos"))},
		{"majority later votes", choices("neg", "pos", "pos"), Majority, ptr(types.ChoiceValue("pos"))},
		{"tie picks lexicographically smallest", choices("pos", "neg"), Majority, ptr(types.ChoiceValue("neg"))},
		{"average behaves as majority", choices("a", "b", "b"), Average, ptr(types.ChoiceValue("b"))},
		{"strict disagreement", choices("a", "b"), Strict, nil},
		{"strict agreement", choices("a", "a"), Strict, ptr(types.ChoiceValue("a"))},
		{"unknown strategy takes first", choices("b", "a", "a"), "first", ptr(types.ChoiceValue("b"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeOne(t, tt.values, tt.strategy))
		})
	}
}

func TestMergeMultiChoice(t *testing.T) {
	values := []types.AnnotationValue{
		types.MultiChoiceValue([]string{"a", "b"}),
		types.MultiChoiceValue([]string{"a", "c"}),
		types.MultiChoiceValue([]string{"b", "a"}),
	}

	tests := []struct {
		strategy Strategy
		want     []string
	}{
		{Majority, []string{"a", "b"}},
		{Strict, []string{"a"}},
		{Average, []string{"a", "b"}},
		{"other", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			got := mergeOne(t, values, tt.strategy)
			require.NotNil(t, got)
			assert.Equal(t, types.KindMultiChoice, got.Kind)
			assert.Equal(t, tt.want, got.Choices)
		})
	}
}

func TestMergeMultiChoiceHalfIsNotMajority(t *testing.T) {
	values := []types.AnnotationValue{
		types.MultiChoiceValue([]string{"x", "y"}),
		types.MultiChoiceValue([]string{"x"}),
		types.MultiChoiceValue([]string{"x", "y", "y"}),
		types.MultiChoiceValue([]string{"x", "z"}),
	}
	got := mergeOne(t, values, Majority)
	require.NotNil(t, got)
	assert.Equal(t, []string{"x"}, got.Choices)
}

func TestMergeMultiChoiceEmptyIntersection(t *testing.T) {
	values := []types.AnnotationValue{
		types.MultiChoiceValue([]string{"a"}),
		types.MultiChoiceValue([]string{"b"}),
	}
	got := mergeOne(t, values, Strict)
	require.NotNil(t, got)
	assert.Empty(t, got.Choices)
}

func TestMergeTextKeepsFirst(t *testing.T) {
	values := []types.AnnotationValue{types.TextValue("first"), types.TextValue("second")}
	for _, s := range append(Strategies, "x") {
		got := mergeOne(t, values, s)
		require.NotNil(t, got)
		assert.Equal(t, "first", got.Text, string(s))
	}
}

func TestMergeRankings(t *testing.T) {
	abc := types.RankingValue([]string{"a", "b", "c"})
	acb := types.RankingValue([]string{"a", "c", "b"})

	t.Run("borda", func(t *testing.T) {
		got := mergeOne(t, []types.AnnotationValue{abc, acb}, Majority)
		require.NotNil(t, got)
		// a=6, b=3, c=3; b appeared first so it leads the tie.
		assert.Equal(t, []string{"a", "b", "c"}, got.Ranking)
	})

	t.Run("borda reorders", func(t *testing.T) {
		cab := types.RankingValue([]string{"c", "a", "b"})
		got := mergeOne(t, []types.AnnotationValue{abc, cab, cab}, Average)
		require.NotNil(t, got)
		// a=3+2+2=7, b=2+1+1=4, c=1+3+3=7; a appeared first.
		assert.Equal(t, []string{"a", "c", "b"}, got.Ranking)
	})

	t.Run("strict disagreement", func(t *testing.T) {
		assert.Nil(t, mergeOne(t, []types.AnnotationValue{abc, acb}, Strict))
	})

	t.Run("strict agreement", func(t *testing.T) {
		got := mergeOne(t, []types.AnnotationValue{abc, types.RankingValue([]string{"a", "b", "c"})}, Strict)
		require.NotNil(t, got)
		assert.Equal(t, []string{"a", "b", "c"}, got.Ranking)
	})
}

func TestMergeUnknownKind(t *testing.T) {
	got := mergeOne(t, []types.AnnotationValue{types.UnknownValue(), types.UnknownValue()}, Majority)
	assert.Nil(t, got)
}

func TestMergeMixedKinds(t *testing.T) {
	_, err := NewMerger().Merge([]types.AnnotationValue{types.ScoreValue(1), types.ChoiceValue("1")}, Majority)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMixedKinds))
	assert.True(t, types.IsDataError(err))
}

func TestMergeTask(t *testing.T) {
	responses := []types.Response{
		{TaskID: "T1", Value: types.ScoreValue(2), Comment: "borderline"},
		{TaskID: "T1", Value: types.ScoreValue(1)},
		{TaskID: "T1", Value: types.ScoreValue(2), Comment: "fine"},
	}

	rec, err := NewMerger().MergeTask("T1", responses, Strict)
	require.NoError(t, err)
	assert.Equal(t, "T1", rec.TaskID)
	assert.Equal(t, types.KindScore, rec.Kind)
	assert.Nil(t, rec.Value)
	assert.Equal(t, 3, rec.AnnotationCount)
	assert.Equal(t, "borderline | fine", rec.Comment)
	assert.Equal(t, scores(2, 1, 2), rec.IndividualValues)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "score")
	assert.Nil(t, decoded["score"])
	assert.Equal(t, []any{2.0, 1.0, 2.0}, decoded["individual_values"])
}

func TestMergeTaskMixedKindsNamesTask(t *testing.T) {
	responses := []types.Response{
		{Value: types.TextValue("a")},
		{Value: types.RankingValue([]string{"a"})},
	}
	_, err := NewMerger().MergeTask("T9", responses, Majority)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task T9")
}

func ptr(v types.AnnotationValue) *types.AnnotationValue {
	return &v
}
