// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/datalabel/internal/logging"
	"github.com/pdiddy/datalabel/pkg/types"
)

const (
	// ToolName is recorded in merge metadata.
	ToolName = "DataLabel"
	// DefaultVersion is recorded when the caller does not supply one.
	DefaultVersion = "0.1.0"
)

// Options controls a batch merge.
type Options struct {
	// Strategy is the merge policy. Empty means majority.
	Strategy Strategy

	// Version is recorded in the output metadata (default DefaultVersion).
	Version string

	// RunID identifies the run; a random UUID is generated when empty.
	RunID string

	// Now returns the merge timestamp; time.Now when nil.
	Now func() time.Time

	// Logger receives diagnostics; nil discards them.
	Logger *logging.Logger
}

// Merge reconciles every task answered in sets. Either the whole batch
// merges or a data error is returned with no partial output.
func Merge(sets []types.AnnotatorResultSet, opts Options) (*types.MergeOutput, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = Majority
	}
	log := opts.Logger.With("strategy", string(strategy))
	if !strategy.Known() {
		log.Warn("unrecognised merge strategy, using the first annotator's value")
	}

	tasks := GroupByTask(sets)
	merger := NewMerger()

	records := make([]types.MergedRecord, 0, len(tasks))
	for _, t := range tasks {
		rec, err := merger.MergeTask(t.TaskID, t.Responses, strategy)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	conflicts := DetectConflicts(tasks)
	for _, c := range conflicts {
		log.Debug("conflict", "task_id", c.TaskID, "annotators", len(c.Annotations))
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}

	sources := make([]string, len(sets))
	for i, s := range sets {
		sources[i] = s.Label()
	}

	out := &types.MergeOutput{
		Metadata: types.MergeMetadata{
			RunID:          runID,
			MergedAt:       now(),
			Strategy:       string(strategy),
			AnnotatorCount: len(sets),
			TotalTasks:     len(tasks),
			AgreementRate:  AgreementRate(tasks),
			ConflictCount:  len(conflicts),
			SourceFiles:    sources,
			Tool:           ToolName,
			Version:        version,
		},
		Responses: records,
		Conflicts: conflicts,
	}
	log.Info("merge complete", "tasks", len(tasks), "conflicts", len(conflicts))
	return out, nil
}

// WriteFile writes out as indented JSON to path, creating parent
// directories. Non-ASCII text is written as is.
func WriteFile(path string, out *types.MergeOutput) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := Encode(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders out as indented JSON without HTML escaping.
func Encode(out *types.MergeOutput) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("marshaling merge output: %w", err)
	}
	return buf.Bytes(), nil
}
