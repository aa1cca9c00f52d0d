// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// MergedRecord is the consensus for one task.
type MergedRecord struct {
	// TaskID identifies the task.
	TaskID string

	// Kind is the annotation kind shared by every individual value.
	Kind Kind

	// Value is the merged judgment, or nil when the strategy declines to
	// produce one (strict merge with disagreement, Unknown kind).
	Value *AnnotationValue

	// IndividualValues lists each annotator's value in input order.
	IndividualValues []AnnotationValue

	// AnnotationCount is the number of annotators who answered the task.
	AnnotationCount int

	// Comment joins all non-empty annotator comments with " | ".
	Comment string
}

// MarshalJSON writes the merged value under its kind's response key
// ("score", "choice", ...) so merged files read like annotator files.
func (r MergedRecord) MarshalJSON() ([]byte, error) {
	key := string(r.Kind)
	if r.Kind == "" || r.Kind == KindUnknown {
		key = "value"
	}
	var merged any
	if r.Value != nil {
		merged = r.Value.Raw()
	}
	individual := r.IndividualValues
	if individual == nil {
		individual = []AnnotationValue{}
	}
	return json.Marshal(map[string]any{
		"task_id":           r.TaskID,
		key:                 merged,
		"individual_values": individual,
		"annotation_count":  r.AnnotationCount,
		"comment":           r.Comment,
	})
}

// ConflictEntry pairs an annotator with the value they gave.
type ConflictEntry struct {
	Annotator string          `json:"annotator"`
	Value     AnnotationValue `json:"value"`
}

// ConflictRecord lists the disagreeing answers for one task.
type ConflictRecord struct {
	TaskID      string          `json:"task_id"`
	Annotations []ConflictEntry `json:"annotations"`
}

// MergeMetadata describes a merge run.
type MergeMetadata struct {
	RunID          string    `json:"run_id"`
	MergedAt       time.Time `json:"merged_at"`
	Strategy       string    `json:"strategy"`
	AnnotatorCount int       `json:"annotator_count"`
	TotalTasks     int       `json:"total_tasks"`
	AgreementRate  float64   `json:"agreement_rate"`
	ConflictCount  int       `json:"conflict_count"`
	SourceFiles    []string  `json:"source_files"`
	Tool           string    `json:"tool"`
	Version        string    `json:"version"`
}

// MergeOutput is the document written by a merge.
type MergeOutput struct {
	Metadata  MergeMetadata    `json:"metadata"`
	Responses []MergedRecord   `json:"responses"`
	Conflicts []ConflictRecord `json:"conflicts"`
}

// AgreementReport holds inter-annotator agreement statistics over the
// tasks every annotator answered. When a precondition fails only Error
// is set.
type AgreementReport struct {
	AnnotatorCount     int         `json:"annotator_count"`
	CommonTasks        int         `json:"common_tasks"`
	ExactAgreementRate float64     `json:"exact_agreement_rate"`
	PairwiseAgreement  [][]float64 `json:"pairwise_agreement"`
	CohensKappa        [][]float64 `json:"cohens_kappa"`
	FleissKappa        float64     `json:"fleiss_kappa"`
	KrippendorffAlpha  float64     `json:"krippendorff_alpha"`
	Annotators         []string    `json:"annotators"`
	Files              []string    `json:"files"`
	Error              string      `json:"error,omitempty"`
}

// Failed reports whether the report carries a precondition error.
func (r AgreementReport) Failed() bool {
	return r.Error != ""
}

// Err returns the precondition failure wrapped in ErrPrecondition, or nil.
func (r AgreementReport) Err() error {
	if r.Error == "" {
		return nil
	}
	return PreconditionError(r.Error)
}

// MarshalJSON writes {"error": ...} alone for failed reports.
func (r AgreementReport) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	type plain AgreementReport
	return json.Marshal(plain(r))
}
