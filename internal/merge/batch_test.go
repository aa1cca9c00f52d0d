// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datalabel/pkg/types"
)

// --- test helpers ---

func scoreSet(annotator string, byTask map[string]float64) types.AnnotatorResultSet {
	values := make(map[string]types.AnnotationValue, len(byTask))
	for id, v := range byTask {
		values[id] = types.ScoreValue(v)
	}
	return valueSet(annotator, values)
}

func valueSet(annotator string, byTask map[string]types.AnnotationValue) types.AnnotatorResultSet {
	set := types.AnnotatorResultSet{
		Annotator: annotator,
		Source:    annotator + ".json",
		Responses: make(map[string]types.Response, len(byTask)),
	}
	for id, v := range byTask {
		set.TaskIDs = append(set.TaskIDs, id)
		set.Responses[id] = types.Response{TaskID: id, Value: v}
	}
	sort.Strings(set.TaskIDs)
	return set
}

// workedExample is the three-annotator scoring fixture:
// TASK_001 3/3/3, TASK_002 2/1/2, TASK_003 3/3/2.
func workedExample() []types.AnnotatorResultSet {
	return []types.AnnotatorResultSet{
		scoreSet("ann1", map[string]float64{"TASK_001": 3, "TASK_002": 2, "TASK_003": 3}),
		scoreSet("ann2", map[string]float64{"TASK_001": 3, "TASK_002": 1, "TASK_003": 3}),
		scoreSet("ann3", map[string]float64{"TASK_001": 3, "TASK_002": 2, "TASK_003": 2}),
	}
}

func byTaskID(out *types.MergeOutput) map[string]types.MergedRecord {
	m := make(map[string]types.MergedRecord, len(out.Responses))
	for _, r := range out.Responses {
		m[r.TaskID] = r
	}
	return m
}

// --- batch tests ---

func TestMergeMajorityWorkedExample(t *testing.T) {
	out, err := Merge(workedExample(), Options{Strategy: Majority})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Metadata.AnnotatorCount)
	assert.Equal(t, 3, out.Metadata.TotalTasks)
	assert.Equal(t, 1.0/3.0, out.Metadata.AgreementRate)
	assert.Equal(t, 2, out.Metadata.ConflictCount)

	got := byTaskID(out)
	want := map[string]float64{"TASK_001": 3, "TASK_002": 2, "TASK_003": 3}
	for id, score := range want {
		require.NotNil(t, got[id].Value, id)
		assert.Equal(t, score, got[id].Value.Score, id)
		assert.Equal(t, 3, got[id].AnnotationCount, id)
	}
}

func TestMergeAverageAndStrict(t *testing.T) {
	avg, err := Merge(workedExample(), Options{Strategy: Average})
	require.NoError(t, err)
	assert.Equal(t, 5.0/3.0, byTaskID(avg)["TASK_002"].Value.Score)

	strict, err := Merge(workedExample(), Options{Strategy: Strict})
	require.NoError(t, err)
	got := byTaskID(strict)
	require.NotNil(t, got["TASK_001"].Value)
	assert.Equal(t, 3.0, got["TASK_001"].Value.Score)
	assert.Nil(t, got["TASK_002"].Value)
	assert.Nil(t, got["TASK_003"].Value)
}

func TestMergeMetadata(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	out, err := Merge(workedExample(), Options{
		Strategy: Majority,
		RunID:    "run-1",
		Version:  "1.2.3",
		Now:      func() time.Time { return fixed },
	})
	require.NoError(t, err)

	md := out.Metadata
	assert.Equal(t, "run-1", md.RunID)
	assert.Equal(t, fixed, md.MergedAt)
	assert.Equal(t, "majority", md.Strategy)
	assert.Equal(t, ToolName, md.Tool)
	assert.Equal(t, "1.2.3", md.Version)
	assert.Equal(t, []string{"ann1.json", "ann2.json", "ann3.json"}, md.SourceFiles)
}

func TestMergeDefaults(t *testing.T) {
	out, err := Merge(workedExample(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "majority", out.Metadata.Strategy)
	assert.Equal(t, DefaultVersion, out.Metadata.Version)
	assert.NotEmpty(t, out.Metadata.RunID)
}

func TestMergeUnknownStrategyIsLenient(t *testing.T) {
	sets := []types.AnnotatorResultSet{
		scoreSet("ann1", map[string]float64{"T1": 1}),
		scoreSet("ann2", map[string]float64{"T1": 2}),
		scoreSet("ann3", map[string]float64{"T1": 2}),
	}
	out, err := Merge(sets, Options{Strategy: "weighted"})
	require.NoError(t, err)
	assert.Equal(t, "weighted", out.Metadata.Strategy)
	assert.Equal(t, 1.0, byTaskID(out)["T1"].Value.Score)
}

func TestMergeDisjointTasks(t *testing.T) {
	sets := []types.AnnotatorResultSet{
		scoreSet("ann1", map[string]float64{"TASK_A": 3}),
		scoreSet("ann2", map[string]float64{"TASK_B": 2}),
	}
	out, err := Merge(sets, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Metadata.TotalTasks)
	assert.Equal(t, 0.0, out.Metadata.AgreementRate)
	assert.Empty(t, out.Conflicts)
	for _, r := range out.Responses {
		assert.Equal(t, 1, r.AnnotationCount)
		assert.Len(t, r.IndividualValues, 1)
	}
}

func TestMergeMixedKindsAbortsBatch(t *testing.T) {
	sets := []types.AnnotatorResultSet{
		valueSet("ann1", map[string]types.AnnotationValue{"T1": types.ScoreValue(1), "T2": types.ScoreValue(2)}),
		valueSet("ann2", map[string]types.AnnotationValue{"T1": types.ScoreValue(1), "T2": types.ChoiceValue("2")}),
	}
	out, err := Merge(sets, Options{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, types.IsDataError(err))
	assert.Contains(t, err.Error(), "task T2")
}

func TestMergeTextKeepsIndividualTexts(t *testing.T) {
	sets := []types.AnnotatorResultSet{
		valueSet("ann1", map[string]types.AnnotationValue{"T1": types.TextValue("translation A")}),
		valueSet("ann2", map[string]types.AnnotationValue{"T1": types.TextValue("translation B")}),
	}
	out, err := Merge(sets, Options{})
	require.NoError(t, err)
	require.Len(t, out.Responses, 1)

	r := out.Responses[0]
	assert.Equal(t, "translation A", r.Value.Text)
	assert.Equal(t, []types.AnnotationValue{types.TextValue("translation A"), types.TextValue("translation B")}, r.IndividualValues)
	require.Len(t, out.Conflicts, 1)
}

func TestWriteFile(t *testing.T) {
	out, err := Merge(workedExample(), Options{RunID: "r"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "merged.json")
	require.NoError(t, WriteFile(path, out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Metadata  map[string]any   `json:"metadata"`
		Responses []map[string]any `json:"responses"`
		Conflicts []map[string]any `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"merged_at", "strategy", "annotator_count", "total_tasks",
		"agreement_rate", "conflict_count", "source_files", "tool", "version"} {
		assert.Contains(t, doc.Metadata, key)
	}
	assert.Len(t, doc.Responses, 3)
	assert.Len(t, doc.Conflicts, 2)
	assert.Equal(t, "TASK_001", doc.Responses[0]["task_id"])
}

func TestEncodeKeepsNonASCII(t *testing.T) {
	sets := []types.AnnotatorResultSet{
		valueSet("ann1", map[string]types.AnnotationValue{"T1": types.TextValue("翻译<A>")}),
	}
	out, err := Merge(sets, Options{})
	require.NoError(t, err)

	data, err := Encode(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "翻译<A>")
}
