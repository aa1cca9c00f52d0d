// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render formats merge results, agreement reports, conflicts,
// summaries, and archived runs for the terminal.
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/pdiddy/datalabel/internal/store"
	"github.com/pdiddy/datalabel/internal/summary"
	"github.com/pdiddy/datalabel/pkg/types"
)

// Kappa bands for cell colouring.
const (
	goodKappa = 0.6
	fairKappa = 0.2
)

// labelWidth is the width of row labels and annotator names.
const labelWidth = 8

// Printer writes human-readable reports to w.
type Printer struct {
	w      io.Writer
	color  bool
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	bold   *color.Color
}

// New returns a Printer. When useColor is false no escape codes are written.
func New(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:      w,
		color:  useColor,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.green, p.yellow, p.red, p.bold} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// MergeResult prints the outcome of a merge written to path.
func (p *Printer) MergeResult(out *types.MergeOutput, path string) {
	md := out.Metadata
	fmt.Fprintf(p.w, "merged: %s\n", path)
	fmt.Fprintf(p.w, "  run:        %s\n", md.RunID)
	fmt.Fprintf(p.w, "  strategy:   %s\n", md.Strategy)
	fmt.Fprintf(p.w, "  tasks:      %d\n", md.TotalTasks)
	fmt.Fprintf(p.w, "  annotators: %d\n", md.AnnotatorCount)
	fmt.Fprintf(p.w, "  agreement:  %s\n", percent(md.AgreementRate))
	if md.ConflictCount > 0 {
		fmt.Fprintf(p.w, "  conflicts:  %d\n", md.ConflictCount)
	}
}

// Agreement prints an agreement report with the pairwise matrix. Each
// off-diagonal cell shows observed agreement and Cohen's Kappa.
func (p *Printer) Agreement(r types.AgreementReport) {
	fmt.Fprintln(p.w, p.bold.Sprint("Inter-annotator agreement"))
	fmt.Fprintf(p.w, "  annotators:           %d\n", r.AnnotatorCount)
	fmt.Fprintf(p.w, "  common tasks:         %d\n", r.CommonTasks)
	fmt.Fprintf(p.w, "  exact agreement:      %s\n", percent(r.ExactAgreementRate))
	fmt.Fprintf(p.w, "  Fleiss' Kappa:        %s\n", p.kappa(r.FleissKappa, "%.3f"))
	fmt.Fprintf(p.w, "  Krippendorff's Alpha: %s\n", p.kappa(r.KrippendorffAlpha, "%.3f"))

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "Pairwise agreement / Cohen's Kappa:")

	labels := matrixLabels(r)

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, l := range labels {
		if i > 0 {
			header.WriteString("  ")
		}
		fmt.Fprintf(&header, "%*s", cellWidth, l)
	}
	fmt.Fprintln(p.w, strings.TrimRight(header.String(), " "))

	for i, row := range r.PairwiseAgreement {
		cells := make([]string, len(row))
		for j, v := range row {
			if i == j {
				cells[j] = fmt.Sprintf("%*s", cellWidth, "---")
				continue
			}
			k := 0.0
			if i < len(r.CohensKappa) && j < len(r.CohensKappa[i]) {
				k = r.CohensKappa[i][j]
			}
			cell := fmt.Sprintf("%3.0f%%/κ%5.2f", v*100, k)
			cells[j] = fmt.Sprintf("%*s", cellWidth-len([]rune(cell)), "") + p.band(k).Sprint(cell)
		}
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		fmt.Fprintf(p.w, "%*s  %s\n", labelWidth, label, strings.Join(cells, "  "))
	}
}

// cellWidth fits "100%/κ-1.00".
const cellWidth = 11

// Conflicts prints each conflicting task with every annotator's value.
// String values after the first are shown as a character diff against
// the first annotator's value.
func (p *Printer) Conflicts(conflicts []types.ConflictRecord) {
	if len(conflicts) == 0 {
		fmt.Fprintln(p.w, "no conflicts")
		return
	}
	fmt.Fprintf(p.w, "%d conflicting task(s)\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(p.w, "\n%s\n", p.bold.Sprint(c.TaskID))
		var base *types.AnnotationValue
		for i, a := range c.Annotations {
			line := a.Value.Display()
			if a.Value.IsUnknown() {
				line = "(no value)"
			}
			if i == 0 {
				v := a.Value
				base = &v
			} else if base != nil && isString(base.Kind) && base.Kind == a.Value.Kind {
				line = p.Diff(base.Display(), a.Value.Display())
			}
			fmt.Fprintf(p.w, "  %-*s %s\n", labelWidth, a.Annotator+":", line)
		}
	}
}

// Diff renders a character-level diff from a to b. With colour enabled,
// deletions are red and insertions green; otherwise deletions are wrapped
// in [-...-] and insertions in {+...+}.
func (p *Printer) Diff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			if p.color {
				sb.WriteString(p.red.Sprint(d.Text))
			} else {
				sb.WriteString("[-" + d.Text + "-]")
			}
		case diffmatchpatch.DiffInsert:
			if p.color {
				sb.WriteString(p.green.Sprint(d.Text))
			} else {
				sb.WriteString("{+" + d.Text + "+}")
			}
		}
	}
	return sb.String()
}

// Summary prints a value distribution summary.
func (p *Printer) Summary(s summary.Summary) {
	fmt.Fprintf(p.w, "kind:       %s\n", s.Kind)
	fmt.Fprintf(p.w, "tasks:      %d\n", s.TotalTasks)
	fmt.Fprintf(p.w, "completion: %s\n", percent(s.OverallCompletion))

	fmt.Fprintln(p.w, "\nannotators:")
	for _, a := range s.Annotators {
		fmt.Fprintf(p.w, "  %-16s %d/%d (%.1f%%)\n", a.Annotator, a.Completed, a.Total, a.Percentage)
	}

	if len(s.Labels) > 0 {
		fmt.Fprintln(p.w, "\ndistribution:")
		for _, l := range s.Labels {
			fmt.Fprintf(p.w, "  %-16s %d\n", l, s.Aggregate[l])
		}
	}

	if sc := s.Scores; sc != nil {
		fmt.Fprintln(p.w, "\nscores:")
		fmt.Fprintf(p.w, "  count %d  mean %.3f  median %.3f  std %.3f  min %s  max %s\n",
			sc.Count, sc.Mean, sc.Median, sc.StdDev, types.FormatScore(sc.Min), types.FormatScore(sc.Max))
	}
}

// Runs prints archived merge runs, one per line.
func (p *Printer) Runs(runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.w, "no archived runs")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(p.w, "%s  %s  %-8s  tasks %d  annotators %d  agreement %s  conflicts %d\n",
			r.ID, r.MergedAt.Format("2006-01-02 15:04:05"), r.Strategy,
			r.TotalTasks, r.AnnotatorCount, percent(r.AgreementRate), r.ConflictCount)
	}
}

func (p *Printer) kappa(v float64, format string) string {
	return p.band(v).Sprintf(format, v)
}

func (p *Printer) band(k float64) *color.Color {
	switch {
	case k >= goodKappa:
		return p.green
	case k >= fairKappa:
		return p.yellow
	default:
		return p.red
	}
}

func isString(k types.Kind) bool {
	return k == types.KindText || k == types.KindChoice
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

// matrixLabels names the matrix rows and columns after the annotators,
// falling back to the file name. Names that collide once cut to labelWidth
// lose their shared prefix, and then get a position suffix if they still
// collide.
func matrixLabels(r types.AgreementReport) []string {
	names := make([]string, len(r.PairwiseAgreement))
	for i := range names {
		switch {
		case i < len(r.Annotators) && r.Annotators[i] != "":
			names[i] = r.Annotators[i]
		case i < len(r.Files) && r.Files[i] != "":
			base := filepath.Base(r.Files[i])
			names[i] = strings.TrimSuffix(base, filepath.Ext(base))
		default:
			names[i] = fmt.Sprintf("#%d", i+1)
		}
	}

	labels := shortenAll(names)
	if distinct(labels) {
		return labels
	}
	if prefix := commonPrefix(names); prefix > 0 {
		trimmed := make([]string, len(names))
		for i, n := range names {
			trimmed[i] = string([]rune(n)[prefix:])
		}
		if labels = shortenAll(trimmed); distinct(labels) {
			return labels
		}
	}
	for i, n := range names {
		suffix := fmt.Sprintf("~%d", i+1)
		labels[i] = shorten(n, labelWidth-len(suffix)) + suffix
	}
	return labels
}

func shortenAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = shorten(n, labelWidth)
	}
	return out
}

func distinct(labels []string) bool {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			return false
		}
		seen[l] = true
	}
	return true
}

// commonPrefix returns the rune length of the prefix shared by all names,
// leaving at least one rune of each.
func commonPrefix(names []string) int {
	if len(names) < 2 {
		return 0
	}
	first := []rune(names[0])
	n := len(first)
	for _, name := range names[1:] {
		r := []rune(name)
		if len(r) < n {
			n = len(r)
		}
		for i := 0; i < n; i++ {
			if r[i] != first[i] {
				n = i
				break
			}
		}
	}
	for _, name := range names {
		if n >= len([]rune(name)) {
			n = len([]rune(name)) - 1
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

func shorten(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s
}
