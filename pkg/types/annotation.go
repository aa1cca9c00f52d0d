// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the datalabel engine:
// annotation values, annotator result sets, merged records, conflicts, and
// agreement reports.
package types

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant of an AnnotationValue is populated. The
// string form matches the response key the value was read from.
type Kind string

const (
	KindUnknown     Kind = "unknown"
	KindScore       Kind = "score"
	KindChoice      Kind = "choice"
	KindMultiChoice Kind = "choices"
	KindText        Kind = "text"
	KindRanking     Kind = "ranking"
)

// unknownKey is the canonical key shared by every Unknown value, so two
// responses without a recognised key compare equal.
const unknownKey = "unknown"

// AnnotationValue is one annotator's judgment on one task. Exactly one
// payload field is meaningful, selected by Kind.
type AnnotationValue struct {
	Kind Kind

	// Score holds the number for KindScore.
	Score float64

	// Choice holds the selected option for KindChoice.
	Choice string

	// Choices holds the selected options for KindMultiChoice in the order
	// the annotator gave them. Comparison uses the sorted form.
	Choices []string

	// Text holds free text for KindText.
	Text string

	// Ranking holds items from best to worst for KindRanking.
	Ranking []string
}

// ScoreValue returns a Score variant.
func ScoreValue(v float64) AnnotationValue {
	return AnnotationValue{Kind: KindScore, Score: v}
}

// ChoiceValue returns a Choice variant.
func ChoiceValue(v string) AnnotationValue {
	return AnnotationValue{Kind: KindChoice, Choice: v}
}

// MultiChoiceValue returns a MultiChoice variant. The slice is copied.
func MultiChoiceValue(items []string) AnnotationValue {
	return AnnotationValue{Kind: KindMultiChoice, Choices: append([]string{}, items...)}
}

// TextValue returns a Text variant.
func TextValue(v string) AnnotationValue {
	return AnnotationValue{Kind: KindText, Text: v}
}

// RankingValue returns a Ranking variant. The slice is copied.
func RankingValue(items []string) AnnotationValue {
	return AnnotationValue{Kind: KindRanking, Ranking: append([]string{}, items...)}
}

// UnknownValue returns the sentinel for payloads with no recognised key.
func UnknownValue() AnnotationValue {
	return AnnotationValue{Kind: KindUnknown}
}

// IsUnknown reports whether v is the Unknown sentinel (including the zero value).
func (v AnnotationValue) IsUnknown() bool {
	return v.Kind == KindUnknown || v.Kind == ""
}

// SortedChoices returns the de-duplicated, lexicographically sorted
// selection of a MultiChoice value.
func (v AnnotationValue) SortedChoices() []string {
	seen := make(map[string]bool, len(v.Choices))
	out := make([]string, 0, len(v.Choices))
	for _, c := range v.Choices {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Key returns the canonical comparison key. Two values are considered
// equal for conflict and agreement purposes exactly when their keys match.
// Keys are tagged with the kind so values of different kinds never collide.
func (v AnnotationValue) Key() string {
	switch v.Kind {
	case KindScore:
		return string(KindScore) + ":" + FormatScore(v.Score)
	case KindChoice:
		return string(KindChoice) + ":" + v.Choice
	case KindMultiChoice:
		return string(KindMultiChoice) + ":" + encodeList(v.SortedChoices())
	case KindText:
		return string(KindText) + ":" + v.Text
	case KindRanking:
		return string(KindRanking) + ":" + encodeList(v.Ranking)
	default:
		return unknownKey
	}
}

// Display returns a short human-readable form of the value.
func (v AnnotationValue) Display() string {
	switch v.Kind {
	case KindScore:
		return FormatScore(v.Score)
	case KindChoice:
		return v.Choice
	case KindMultiChoice:
		return strings.Join(v.Choices, ", ")
	case KindText:
		return v.Text
	case KindRanking:
		return strings.Join(v.Ranking, " > ")
	default:
		return ""
	}
}

// Raw returns the value in the shape it takes in a response payload:
// a number, a string, a list of strings, or nil for Unknown.
func (v AnnotationValue) Raw() any {
	switch v.Kind {
	case KindScore:
		return v.Score
	case KindChoice:
		return v.Choice
	case KindMultiChoice:
		return nonNil(v.Choices)
	case KindText:
		return v.Text
	case KindRanking:
		return nonNil(v.Ranking)
	default:
		return nil
	}
}

// MarshalJSON encodes the raw payload shape.
func (v AnnotationValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// FormatScore renders a score with the shortest representation that round
// trips, so 3 and 3.0 render identically.
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func encodeList(items []string) string {
	data, _ := json.Marshal(nonNil(items))
	return string(data)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// Response is one annotator's answer to one task.
type Response struct {
	// TaskID identifies the task within the annotated dataset.
	TaskID string

	// Value is the typed judgment extracted from the payload.
	Value AnnotationValue

	// Comment is the optional free-text remark attached to the answer.
	Comment string

	// Raw is the payload as read from the result file.
	Raw map[string]any
}

// AnnotatorResultSet holds every response of one annotator, keyed by task ID.
type AnnotatorResultSet struct {
	// Annotator is the annotator identity (metadata.annotator or the file name).
	Annotator string

	// Source is the path the set was loaded from, empty for in-memory sets.
	Source string

	// TaskIDs lists task IDs in the order they appeared in the file. It is
	// optional; Responses decides which tasks the set answered.
	TaskIDs []string

	// Responses maps task ID to response. Task IDs are unique per set.
	Responses map[string]Response
}

// IDs returns the IDs of every answered task. File order from TaskIDs is
// used when it lists exactly the keys of Responses; otherwise the keys are
// returned sorted.
func (s AnnotatorResultSet) IDs() []string {
	if len(s.TaskIDs) == len(s.Responses) {
		seen := make(map[string]bool, len(s.TaskIDs))
		for _, id := range s.TaskIDs {
			if _, ok := s.Responses[id]; !ok || seen[id] {
				break
			}
			seen[id] = true
		}
		if len(seen) == len(s.Responses) {
			return s.TaskIDs
		}
	}
	ids := make([]string, 0, len(s.Responses))
	for id := range s.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the response for taskID.
func (s AnnotatorResultSet) Get(taskID string) (Response, bool) {
	r, ok := s.Responses[taskID]
	return r, ok
}

// Label returns the source path when known, otherwise the annotator name.
func (s AnnotatorResultSet) Label() string {
	if s.Source != "" {
		return s.Source
	}
	return s.Annotator
}

// ResultFile is the on-disk shape of one annotator's results.
type ResultFile struct {
	Metadata  map[string]any   `json:"metadata" yaml:"metadata"`
	Responses []map[string]any `json:"responses" yaml:"responses"`
}
