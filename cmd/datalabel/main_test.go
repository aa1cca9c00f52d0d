// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so one run's flags do not
// leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeResults(t *testing.T, dir string) []string {
	t.Helper()
	files := map[string]string{
		"ann1.json": `{"metadata": {"annotator": "ann1"}, "responses": [
			{"task_id": "TASK_001", "score": 3}, {"task_id": "TASK_002", "score": 2}, {"task_id": "TASK_003", "score": 3}]}`,
		"ann2.json": `{"metadata": {"annotator": "ann2"}, "responses": [
			{"task_id": "TASK_001", "score": 3}, {"task_id": "TASK_002", "score": 1}, {"task_id": "TASK_003", "score": 3}]}`,
		"ann3.yaml": "responses:\n  - {task_id: TASK_001, score: 3}\n  - {task_id: TASK_002, score: 2}\n  - {task_id: TASK_003, score: 2}\n",
	}
	var paths []string
	for _, name := range []string{"ann1.json", "ann2.json", "ann3.yaml"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(files[name]), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestMergeAndConflictsCommands(t *testing.T) {
	dir := t.TempDir()
	paths := writeResults(t, dir)
	merged := filepath.Join(dir, "out", "merged.json")
	db := filepath.Join(dir, "archive.db")

	out, err := runCLI(t, append([]string{"merge", "-o", merged, "--db", db}, paths...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "merged: "+merged)
	assert.Contains(t, out, "agreement:  33.3%")
	assert.Contains(t, out, "conflicts:  2")

	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc["responses"], 3)

	out, err = runCLI(t, "conflicts", merged)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 conflicting task(s)")
	assert.Contains(t, out, "TASK_002")

	out, err = runCLI(t, "runs", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "tasks 3")
}

func TestMergeNeedsTwoFiles(t *testing.T) {
	paths := writeResults(t, t.TempDir())
	_, err := runCLI(t, "merge", "-o", filepath.Join(t.TempDir(), "m.json"), paths[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 result files")
}

func TestIAACommand(t *testing.T) {
	paths := writeResults(t, t.TempDir())
	out, err := runCLI(t, append([]string{"iaa"}, paths...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Fleiss' Kappa:        0.217")
	assert.Contains(t, out, "Krippendorff's Alpha: 0.304")
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	paths := writeResults(t, dir)
	csvPath := filepath.Join(dir, "ann1.csv")

	out, err := runCLI(t, "export", paths[0], "-o", csvPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "csv, 3 records")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "task_id,score")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "datalabel dev\n", out)
}

func TestImportTasksCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tasks.csv")
	require.NoError(t, os.WriteFile(in, []byte("id,text\n1,hello\n2,world\n"), 0o644))
	outPath := filepath.Join(dir, "tasks.json")

	out, err := runCLI(t, "import-tasks", in, "-o", outPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "(2 tasks)")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "world", tasks[1]["text"])
}

func TestStatsCommand(t *testing.T) {
	paths := writeResults(t, t.TempDir())
	out, err := runCLI(t, append([]string{"stats"}, paths...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "kind:       score")
	assert.Contains(t, out, "tasks:      3")
	assert.Contains(t, out, "3/3 (100.0%)")
}

func TestMergeArchivesToConfiguredStore(t *testing.T) {
	dir := t.TempDir()
	paths := writeResults(t, dir)
	db := filepath.Join(dir, "configured.db")
	t.Setenv("DATALABEL_STORE_PATH", db)

	out, err := runCLI(t, append([]string{"merge", "-o", filepath.Join(dir, "plain.json")}, paths...)...)
	require.NoError(t, err, out)
	assert.NotContains(t, out, "archived:")
	assert.NoFileExists(t, db)

	out, err = runCLI(t, append([]string{"merge", "-o", filepath.Join(dir, "kept.json"), "--archive"}, paths...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "archived:   "+db)

	out, err = runCLI(t, "runs")
	require.NoError(t, err, out)
	assert.Contains(t, out, "tasks 3")
}
