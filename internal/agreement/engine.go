// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agreement computes inter-annotator agreement statistics over the
// tasks every annotator answered: exact agreement, pairwise agreement,
// Cohen's Kappa, Fleiss' Kappa, and Krippendorff's Alpha.
//
// Values are compared by canonical key only, so every statistic treats
// annotations as nominal categories.
package agreement

import (
	"sort"

	"github.com/pdiddy/datalabel/internal/logging"
	"github.com/pdiddy/datalabel/pkg/types"
)

// Precondition failure messages carried in AgreementReport.Error.
const (
	MsgTooFewAnnotators = "need at least 2 annotators"
	MsgNoCommonTasks    = "no common tasks"
)

// Ratings holds canonical value keys indexed [rater][task]. Every rater
// rates the same tasks in the same order.
type Ratings [][]string

// Raters returns the number of raters.
func (r Ratings) Raters() int { return len(r) }

// Tasks returns the number of tasks.
func (r Ratings) Tasks() int {
	if len(r) == 0 {
		return 0
	}
	return len(r[0])
}

// column returns every rater's key for task t.
func (r Ratings) column(t int) []string {
	col := make([]string, len(r))
	for i := range r {
		col[i] = r[i][t]
	}
	return col
}

// Engine computes agreement reports.
type Engine struct {
	log *logging.Logger
}

// NewEngine returns an Engine logging to log (nil discards).
func NewEngine(log *logging.Logger) *Engine {
	return &Engine{log: log}
}

// Compute builds the agreement report for sets. Precondition failures are
// reported through the Error field, never as a Go error or panic.
func (e *Engine) Compute(sets []types.AnnotatorResultSet) types.AgreementReport {
	if len(sets) < 2 {
		e.log.Warn("agreement precondition failed", "reason", MsgTooFewAnnotators, "annotators", len(sets))
		return types.AgreementReport{Error: MsgTooFewAnnotators}
	}

	tasks := CommonTasks(sets)
	if len(tasks) == 0 {
		e.log.Warn("agreement precondition failed", "reason", MsgNoCommonTasks, "annotators", len(sets))
		return types.AgreementReport{Error: MsgNoCommonTasks}
	}

	ratings := RatingsFor(sets, tasks)

	annotators := make([]string, len(sets))
	files := make([]string, len(sets))
	for i, s := range sets {
		annotators[i] = s.Annotator
		files[i] = s.Label()
	}

	report := types.AgreementReport{
		AnnotatorCount:     len(sets),
		CommonTasks:        len(tasks),
		ExactAgreementRate: ExactAgreement(ratings),
		PairwiseAgreement:  PairwiseAgreement(ratings),
		CohensKappa:        CohensKappaMatrix(ratings),
		FleissKappa:        FleissKappa(ratings),
		KrippendorffAlpha:  KrippendorffAlpha(ratings),
		Annotators:         annotators,
		Files:              files,
	}
	e.log.Debug("agreement computed",
		"annotators", report.AnnotatorCount,
		"common_tasks", report.CommonTasks,
		"fleiss_kappa", report.FleissKappa,
		"krippendorff_alpha", report.KrippendorffAlpha)
	return report
}

// Compute is shorthand for NewEngine(nil).Compute(sets).
func Compute(sets []types.AnnotatorResultSet) types.AgreementReport {
	return NewEngine(nil).Compute(sets)
}

// CommonTasks returns the sorted IDs of tasks present in every set.
func CommonTasks(sets []types.AnnotatorResultSet) []string {
	if len(sets) == 0 {
		return nil
	}
	var common []string
	for id := range sets[0].Responses {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s.Responses[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, id)
		}
	}
	sort.Strings(common)
	return common
}

// RatingsFor builds the rating matrix of sets over tasks. Every set must
// contain every task.
func RatingsFor(sets []types.AnnotatorResultSet, tasks []string) Ratings {
	r := make(Ratings, len(sets))
	for i, s := range sets {
		r[i] = make([]string, len(tasks))
		for t, id := range tasks {
			r[i][t] = s.Responses[id].Value.Key()
		}
	}
	return r
}
