// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader reads annotator result files into result sets.
//
// A result file is JSON or YAML shaped as {"metadata": {...}, "responses":
// [...]}; a bare list of responses is accepted too. The annotator name comes
// from metadata.annotator and falls back to the file name without its
// extension.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/datalabel/internal/extract"
	"github.com/pdiddy/datalabel/pkg/types"
)

const annotatorKey = "annotator"

// Load reads and parses one result file.
func Load(path string) (types.AnnotatorResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.AnnotatorResultSet{}, fmt.Errorf("reading %s: %w", path, err)
	}

	rf, err := Parse(data, formatOf(path))
	if err != nil {
		return types.AnnotatorResultSet{}, fmt.Errorf("%s: %w", path, err)
	}

	set, err := FromResultFile(rf, path)
	if err != nil {
		return types.AnnotatorResultSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadAll loads paths concurrently. Sets are returned in argument order;
// the first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string) ([]types.AnnotatorResultSet, error) {
	sets := make([]types.AnnotatorResultSet, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			set, err := Load(p)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

// Parse decodes result file bytes. format is "yaml" or "json"; anything
// else is treated as JSON.
func Parse(data []byte, format string) (types.ResultFile, error) {
	var doc any
	if format == "yaml" {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return types.ResultFile{}, types.DataError("parsing yaml: %v", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return types.ResultFile{}, types.DataError("parsing json: %v", err)
		}
	}
	return resultFile(doc)
}

// FromResultFile converts a decoded result file into a result set. source
// is recorded on the set and used for the annotator fallback.
func FromResultFile(rf types.ResultFile, source string) (types.AnnotatorResultSet, error) {
	set := types.AnnotatorResultSet{
		Annotator: annotatorName(rf.Metadata, source),
		Source:    source,
		Responses: make(map[string]types.Response, len(rf.Responses)),
	}

	for i, payload := range rf.Responses {
		r, err := extract.Response(payload)
		if err != nil {
			return types.AnnotatorResultSet{}, fmt.Errorf("response %d: %w", i, err)
		}
		if _, dup := set.Responses[r.TaskID]; dup {
			return types.AnnotatorResultSet{}, types.DataError("duplicate task_id %s", r.TaskID)
		}
		set.TaskIDs = append(set.TaskIDs, r.TaskID)
		set.Responses[r.TaskID] = r
	}
	return set, nil
}

func resultFile(doc any) (types.ResultFile, error) {
	switch v := doc.(type) {
	case []any:
		responses, err := payloads(v)
		return types.ResultFile{Responses: responses}, err

	case map[string]any:
		var rf types.ResultFile
		if md, ok := v["metadata"]; ok && md != nil {
			m, ok := md.(map[string]any)
			if !ok {
				return rf, types.DataError("metadata must be an object, got %T", md)
			}
			rf.Metadata = m
		}
		raw, ok := v["responses"]
		if !ok || raw == nil {
			return rf, nil
		}
		list, ok := raw.([]any)
		if !ok {
			return rf, types.DataError("responses must be a list, got %T", raw)
		}
		responses, err := payloads(list)
		rf.Responses = responses
		return rf, err
	}
	return types.ResultFile{}, types.DataError("result file must be an object or a list, got %T", doc)
}

func payloads(list []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, types.DataError("response %d must be an object, got %T", i, item)
		}
		out = append(out, m)
	}
	return out, nil
}

func annotatorName(metadata map[string]any, source string) string {
	if name, ok := metadata[annotatorKey].(string); ok && name != "" {
		return name
	}
	if source == "" {
		return ""
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
