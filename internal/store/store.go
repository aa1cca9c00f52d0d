// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives emitted merge outputs in SQLite: one row per run,
// its merged records, and its conflicts. The archive records results after
// the fact; merging and agreement never read from it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/datalabel/internal/extract"
	"github.com/pdiddy/datalabel/pkg/types"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "datalabel.db"

// timeLayout is fixed width so merged_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run archive database.
type Store struct {
	db *sqlx.DB
}

// Run summarises one archived merge run.
type Run struct {
	ID             string    `json:"run_id" yaml:"run_id"`
	MergedAt       time.Time `json:"merged_at" yaml:"merged_at"`
	Strategy       string    `json:"strategy" yaml:"strategy"`
	AnnotatorCount int       `json:"annotator_count" yaml:"annotator_count"`
	TotalTasks     int       `json:"total_tasks" yaml:"total_tasks"`
	AgreementRate  float64   `json:"agreement_rate" yaml:"agreement_rate"`
	ConflictCount  int       `json:"conflict_count" yaml:"conflict_count"`
	SourceFiles    []string  `json:"source_files" yaml:"source_files"`
	Tool           string    `json:"tool" yaml:"tool"`
	Version        string    `json:"version" yaml:"version"`
}

type runRow struct {
	ID             string  `db:"id"`
	MergedAt       string  `db:"merged_at"`
	Strategy       string  `db:"strategy"`
	AnnotatorCount int     `db:"annotator_count"`
	TotalTasks     int     `db:"total_tasks"`
	AgreementRate  float64 `db:"agreement_rate"`
	ConflictCount  int     `db:"conflict_count"`
	SourceFiles    string  `db:"source_files"`
	Tool           string  `db:"tool"`
	Version        string  `db:"version"`
}

type conflictRow struct {
	TaskID      string `db:"task_id"`
	Kind        string `db:"kind"`
	Annotations string `db:"annotations"`
}

// Open opens or creates the archive at path and ensures the schema exists.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			merged_at TEXT NOT NULL,
			strategy TEXT NOT NULL,
			annotator_count INTEGER NOT NULL,
			total_tasks INTEGER NOT NULL,
			agreement_rate REAL NOT NULL,
			conflict_count INTEGER NOT NULL,
			source_files TEXT NOT NULL,
			tool TEXT NOT NULL,
			version TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS merged_records (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			task_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			value TEXT,
			individual_values TEXT NOT NULL,
			annotation_count INTEGER NOT NULL,
			comment TEXT,
			PRIMARY KEY (run_id, task_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			task_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			annotations TEXT NOT NULL,
			PRIMARY KEY (run_id, task_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_merged_at ON runs(merged_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun archives out in one transaction. A run with the same ID is
// replaced.
func (s *Store) SaveRun(ctx context.Context, out *types.MergeOutput) error {
	md := out.Metadata
	if md.RunID == "" {
		return fmt.Errorf("saving run: missing run_id")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, md.RunID); err != nil {
		return fmt.Errorf("deleting previous run: %w", err)
	}

	sources, _ := json.Marshal(md.SourceFiles)
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO runs (id, merged_at, strategy, annotator_count, total_tasks,
			agreement_rate, conflict_count, source_files, tool, version)
		 VALUES (:id, :merged_at, :strategy, :annotator_count, :total_tasks,
			:agreement_rate, :conflict_count, :source_files, :tool, :version)`,
		runRow{
			ID:             md.RunID,
			MergedAt:       md.MergedAt.UTC().Format(timeLayout),
			Strategy:       md.Strategy,
			AnnotatorCount: md.AnnotatorCount,
			TotalTasks:     md.TotalTasks,
			AgreementRate:  md.AgreementRate,
			ConflictCount:  md.ConflictCount,
			SourceFiles:    string(sources),
			Tool:           md.Tool,
			Version:        md.Version,
		})
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	kinds := make(map[string]types.Kind, len(out.Responses))
	recStmt, err := tx.PreparexContext(ctx,
		`INSERT INTO merged_records (run_id, task_id, kind, value, individual_values, annotation_count, comment)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	for _, r := range out.Responses {
		kinds[r.TaskID] = r.Kind
		var value sql.NullString
		if r.Value != nil {
			data, _ := json.Marshal(r.Value)
			value = sql.NullString{String: string(data), Valid: true}
		}
		individual, _ := json.Marshal(r.IndividualValues)
		if _, err := recStmt.ExecContext(ctx,
			md.RunID, r.TaskID, string(r.Kind), value, string(individual), r.AnnotationCount, r.Comment,
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.TaskID, err)
		}
	}

	conflictStmt, err := tx.PreparexContext(ctx,
		`INSERT INTO conflicts (run_id, task_id, kind, annotations) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing conflict insert: %w", err)
	}
	defer conflictStmt.Close()

	for _, c := range out.Conflicts {
		annotations, _ := json.Marshal(c.Annotations)
		kind := kinds[c.TaskID]
		if kind == "" {
			kind = types.KindUnknown
		}
		if _, err := conflictStmt.ExecContext(ctx, md.RunID, c.TaskID, string(kind), string(annotations)); err != nil {
			return fmt.Errorf("inserting conflict %s: %w", c.TaskID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns archived runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM runs ORDER BY merged_at DESC, id`); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetRun returns one archived run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("getting run %s: %w", runID, err)
	}
	return row.toRun()
}

// RunConflicts returns the conflicts archived for runID in task order.
func (s *Store) RunConflicts(ctx context.Context, runID string) ([]types.ConflictRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var rows []conflictRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT task_id, kind, annotations FROM conflicts WHERE run_id = ? ORDER BY task_id`, runID); err != nil {
		return nil, fmt.Errorf("listing conflicts: %w", err)
	}

	out := make([]types.ConflictRecord, 0, len(rows))
	for _, row := range rows {
		var raw []struct {
			Annotator string `json:"annotator"`
			Value     any    `json:"value"`
		}
		if err := json.Unmarshal([]byte(row.Annotations), &raw); err != nil {
			return nil, fmt.Errorf("decoding conflict %s: %w", row.TaskID, err)
		}

		rec := types.ConflictRecord{TaskID: row.TaskID}
		for _, e := range raw {
			v, err := extract.ValueOf(types.Kind(row.Kind), e.Value)
			if err != nil {
				return nil, fmt.Errorf("decoding conflict %s: %w", row.TaskID, err)
			}
			rec.Annotations = append(rec.Annotations, types.ConflictEntry{Annotator: e.Annotator, Value: v})
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r runRow) toRun() (Run, error) {
	mergedAt, err := time.Parse(timeLayout, r.MergedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing merged_at of run %s: %w", r.ID, err)
	}
	var sources []string
	if err := json.Unmarshal([]byte(r.SourceFiles), &sources); err != nil {
		return Run{}, fmt.Errorf("parsing source_files of run %s: %w", r.ID, err)
	}
	return Run{
		ID:             r.ID,
		MergedAt:       mergedAt,
		Strategy:       r.Strategy,
		AnnotatorCount: r.AnnotatorCount,
		TotalTasks:     r.TotalTasks,
		AgreementRate:  r.AgreementRate,
		ConflictCount:  r.ConflictCount,
		SourceFiles:    sources,
		Tool:           r.Tool,
		Version:        r.Version,
	}, nil
}
