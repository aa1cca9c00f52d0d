// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataio imports task lists and exports response lists in the
// interchange formats the CLI supports: json, jsonl, csv, yaml, and xlsx.
package dataio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/datalabel/pkg/types"
)

// Record is one task or response row.
type Record = map[string]any

// DefaultSheetName is the xlsx worksheet used when none is configured.
const DefaultSheetName = "responses"

// maxLineBytes bounds a single jsonl line.
const maxLineBytes = 16 << 20

// FormatFromPath infers the format from the file extension, returning
// fallback when the extension is not recognised.
func FormatFromPath(path string, fallback types.ExportFormat) types.ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return types.FormatJSON
	case ".jsonl":
		return types.FormatJSONL
	case ".csv":
		return types.FormatCSV
	case ".yaml", ".yml":
		return types.FormatYAML
	case ".xlsx":
		return types.FormatXLSX
	}
	return fallback
}

// ReadResponses reads the responses list of a result or merge output file.
// The file may be a bare list or an object with a "responses" key, in JSON
// or YAML.
func ReadResponses(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc any
	if FormatFromPath(path, types.FormatJSON) == types.FormatYAML {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, types.DataError("%s: parsing yaml: %v", path, err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, types.DataError("%s: parsing json: %v", path, err)
		}
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		raw, ok := v["responses"].([]any)
		if !ok {
			return nil, types.DataError("%s: no responses list", path)
		}
		list = raw
	default:
		return nil, types.DataError("%s: no responses list", path)
	}
	return records(list)
}

// ImportTasks reads a task list. An empty format is inferred from the
// extension: .jsonl and .csv are recognised, everything else is JSON. A
// JSON object is read through its "samples" or "tasks" key.
func ImportTasks(path string, format types.ExportFormat) ([]Record, error) {
	if format == "" {
		format = FormatFromPath(path, types.FormatJSON)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var tasks []Record
	switch format {
	case types.FormatJSON:
		tasks, err = readTaskJSON(f)
	case types.FormatJSONL:
		tasks, err = readJSONL(f)
	case types.FormatCSV:
		tasks, err = readCSV(f)
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// WriteRecords writes recs to path in cfg.Format, creating parent
// directories. It returns the number of records written.
func WriteRecords(path string, recs []Record, cfg types.ExportConfig) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	format := cfg.Format
	if format == "" {
		format = FormatFromPath(path, types.FormatJSON)
	}

	if format == types.FormatXLSX {
		if err := writeXLSX(path, recs, cfg.SheetName); err != nil {
			return 0, fmt.Errorf("writing %s: %w", path, err)
		}
		return len(recs), nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, recs, format); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(recs), nil
}

// Encode writes recs to w in a text format (json, jsonl, csv, or yaml).
func Encode(w io.Writer, recs []Record, format types.ExportFormat) error {
	switch format {
	case types.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if recs == nil {
			recs = []Record{}
		}
		return enc.Encode(recs)

	case types.FormatJSONL:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for i, r := range recs {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding record %d: %w", i, err)
			}
		}
		return nil

	case types.FormatCSV:
		return writeCSV(w, recs)

	case types.FormatYAML:
		normalized := make([]any, len(recs))
		for i, r := range recs {
			normalized[i] = normalize(r)
		}
		data, err := yaml.Marshal(normalized)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Columns returns the union of record keys: task_id first when present,
// the rest sorted.
func Columns(recs []Record) []string {
	seen := make(map[string]bool)
	for _, r := range recs {
		for k := range r {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k != "task_id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if seen["task_id"] {
		cols = append([]string{"task_id"}, cols...)
	}
	return cols
}

func readTaskJSON(r io.Reader) ([]Record, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, types.DataError("parsing json: %v", err)
	}
	switch v := doc.(type) {
	case []any:
		return records(v)
	case map[string]any:
		for _, key := range []string{"samples", "tasks"} {
			if raw, ok := v[key]; ok {
				list, ok := raw.([]any)
				if !ok {
					return nil, types.DataError("%s must be a list", key)
				}
				return records(list)
			}
		}
		return []Record{}, nil
	}
	return nil, types.DataError("task file must be a list or an object, got %T", doc)
}

func readJSONL(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []Record
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, types.DataError("line %d: %v", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading jsonl: %w", err)
	}
	return out, nil
}

func readCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, types.DataError("parsing csv: %v", err)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	header := rows[0]
	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, key := range header {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			rec[key] = csvCell(cell)
		}
		out = append(out, rec)
	}
	return out, nil
}

// csvCell decodes cells that look like JSON objects or arrays; anything
// else, including invalid JSON, stays a string.
func csvCell(cell string) any {
	if strings.HasPrefix(cell, "{") || strings.HasPrefix(cell, "[") {
		var v any
		if err := json.Unmarshal([]byte(cell), &v); err == nil {
			return v
		}
	}
	return cell
}

func writeCSV(w io.Writer, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	cols := Columns(recs)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, r := range recs {
		for i, c := range cols {
			row[i] = cellString(r[c])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(path string, recs []Record, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	cols := Columns(recs)
	for i, h := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, rec := range recs {
		for c, key := range cols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(rec[key])); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// cellString renders a value for a csv cell: lists and objects as JSON,
// nil as empty.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return types.FormatScore(x)
	case bool:
		return strconv.FormatBool(x)
	case []any, map[string]any, []string:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}

// cellValue keeps numbers and booleans typed in xlsx cells.
func cellValue(v any) any {
	switch x := normalize(v).(type) {
	case nil:
		return ""
	case int64, float64, bool, string:
		return x
	default:
		return cellString(x)
	}
}

// normalize converts json.Number leaves to int64 or float64 so encoders
// other than encoding/json see plain numbers.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}

func records(list []any) ([]Record, error) {
	out := make([]Record, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, types.DataError("record %d must be an object, got %T", i, item)
		}
		out = append(out, m)
	}
	return out, nil
}
