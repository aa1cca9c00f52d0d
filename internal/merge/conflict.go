// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"sort"

	"github.com/pdiddy/datalabel/pkg/types"
)

// TaskResponses holds the answers one task received, in annotator order.
// Annotators[i] gave Responses[i].
type TaskResponses struct {
	TaskID     string
	Annotators []string
	Responses  []types.Response
}

// Unanimous reports whether every response carries the same canonical value.
func (t TaskResponses) Unanimous() bool {
	if len(t.Responses) == 0 {
		return true
	}
	key := t.Responses[0].Value.Key()
	for _, r := range t.Responses[1:] {
		if r.Value.Key() != key {
			return false
		}
	}
	return true
}

// GroupByTask collects every task answered by at least one set, sorted by
// task ID. Responses within a task follow the order of sets.
func GroupByTask(sets []types.AnnotatorResultSet) []TaskResponses {
	byTask := make(map[string]*TaskResponses)
	for _, set := range sets {
		for _, id := range set.IDs() {
			r := set.Responses[id]
			t, ok := byTask[id]
			if !ok {
				t = &TaskResponses{TaskID: id}
				byTask[id] = t
			}
			t.Annotators = append(t.Annotators, set.Annotator)
			t.Responses = append(t.Responses, r)
		}
	}

	ids := make([]string, 0, len(byTask))
	for id := range byTask {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]TaskResponses, len(ids))
	for i, id := range ids {
		out[i] = *byTask[id]
	}
	return out
}

// DetectConflicts returns a record for every task with at least two
// responses whose canonical values are not all identical. Tasks answered
// by a single annotator never conflict.
func DetectConflicts(tasks []TaskResponses) []types.ConflictRecord {
	conflicts := []types.ConflictRecord{}
	for _, t := range tasks {
		if len(t.Responses) < 2 || t.Unanimous() {
			continue
		}
		rec := types.ConflictRecord{
			TaskID:      t.TaskID,
			Annotations: make([]types.ConflictEntry, len(t.Responses)),
		}
		for i, r := range t.Responses {
			rec.Annotations[i] = types.ConflictEntry{Annotator: t.Annotators[i], Value: r.Value}
		}
		conflicts = append(conflicts, rec)
	}
	return conflicts
}

// AgreementRate is the share of tasks with at least two responses whose
// responses are unanimous. It is 0 when no task has two responses.
func AgreementRate(tasks []TaskResponses) float64 {
	var compared, agreed int
	for _, t := range tasks {
		if len(t.Responses) < 2 {
			continue
		}
		compared++
		if t.Unanimous() {
			agreed++
		}
	}
	if compared == 0 {
		return 0
	}
	return float64(agreed) / float64(compared)
}
