// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/datalabel/internal/extract"
	"github.com/pdiddy/datalabel/pkg/types"
)

// valueKeys are the record keys a merged value may be written under.
var valueKeys = []types.Kind{
	types.KindScore,
	types.KindChoice,
	types.KindMultiChoice,
	types.KindText,
	types.KindRanking,
}

type mergedFile struct {
	Metadata  types.MergeMetadata          `json:"metadata"`
	Responses []map[string]json.RawMessage `json:"responses"`
	Conflicts []conflictDoc                `json:"conflicts"`
}

type conflictDoc struct {
	TaskID      string `json:"task_id"`
	Annotations []struct {
		Annotator string `json:"annotator"`
		Value     any    `json:"value"`
	} `json:"annotations"`
}

// LoadMergeOutput reads a merge output file written by the merge command.
// Value kinds are recovered from the key each record stores its value
// under.
func LoadMergeOutput(path string) (*types.MergeOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc mergedFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.DataError("%s: parsing merge output: %v", path, err)
	}

	out := &types.MergeOutput{
		Metadata:  doc.Metadata,
		Responses: make([]types.MergedRecord, 0, len(doc.Responses)),
		Conflicts: make([]types.ConflictRecord, 0, len(doc.Conflicts)),
	}

	kinds := make(map[string]types.Kind, len(doc.Responses))
	for i, raw := range doc.Responses {
		rec, err := mergedRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: response %d: %w", path, i, err)
		}
		kinds[rec.TaskID] = rec.Kind
		out.Responses = append(out.Responses, rec)
	}

	for _, c := range doc.Conflicts {
		kind := kinds[c.TaskID]
		rec := types.ConflictRecord{TaskID: c.TaskID}
		for _, a := range c.Annotations {
			v, err := extract.ValueOf(kind, a.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: conflict %s: %w", path, c.TaskID, err)
			}
			rec.Annotations = append(rec.Annotations, types.ConflictEntry{Annotator: a.Annotator, Value: v})
		}
		out.Conflicts = append(out.Conflicts, rec)
	}
	return out, nil
}

func mergedRecord(raw map[string]json.RawMessage) (types.MergedRecord, error) {
	var rec types.MergedRecord
	if err := json.Unmarshal(raw["task_id"], &rec.TaskID); err != nil || rec.TaskID == "" {
		return rec, types.DataError("missing task_id")
	}

	rec.Kind = types.KindUnknown
	for _, k := range valueKeys {
		if _, ok := raw[string(k)]; ok {
			rec.Kind = k
			break
		}
	}

	valueKey := string(rec.Kind)
	if rec.Kind == types.KindUnknown {
		valueKey = "value"
	}
	merged, err := decodeAny(raw[valueKey])
	if err != nil {
		return rec, types.DataError("task %s: %v", rec.TaskID, err)
	}
	if merged != nil {
		v, err := extract.ValueOf(rec.Kind, merged)
		if err != nil {
			return rec, fmt.Errorf("task %s: %w", rec.TaskID, err)
		}
		rec.Value = &v
	}

	var individual []any
	if data, ok := raw["individual_values"]; ok {
		if err := json.Unmarshal(data, &individual); err != nil {
			return rec, types.DataError("task %s: individual_values: %v", rec.TaskID, err)
		}
	}
	for _, item := range individual {
		v, err := extract.ValueOf(rec.Kind, item)
		if err != nil {
			return rec, fmt.Errorf("task %s: %w", rec.TaskID, err)
		}
		rec.IndividualValues = append(rec.IndividualValues, v)
	}

	if data, ok := raw["annotation_count"]; ok {
		if err := json.Unmarshal(data, &rec.AnnotationCount); err != nil {
			return rec, types.DataError("task %s: annotation_count: %v", rec.TaskID, err)
		}
	}
	if data, ok := raw["comment"]; ok {
		_ = json.Unmarshal(data, &rec.Comment)
	}
	return rec, nil
}

func decodeAny(data json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
