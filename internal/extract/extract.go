// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw response payloads into typed annotation values.
//
// Detection order is fixed: score, choice, choices, text, ranking. The first
// key present with a non-null value wins even if later keys are also set.
// A payload with none of these keys yields the Unknown sentinel.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pdiddy/datalabel/pkg/types"
)

// keyOrder is the detection precedence for annotation keys.
var keyOrder = []types.Kind{
	types.KindScore,
	types.KindChoice,
	types.KindMultiChoice,
	types.KindText,
	types.KindRanking,
}

const (
	taskIDKey  = "task_id"
	commentKey = "comment"
)

// Value extracts the annotation value from payload. A recognised key whose
// value has the wrong JSON type is a data error.
func Value(payload map[string]any) (types.AnnotationValue, error) {
	for _, kind := range keyOrder {
		raw, ok := payload[string(kind)]
		if !ok || raw == nil {
			continue
		}
		return decode(kind, raw)
	}
	return types.UnknownValue(), nil
}

// ValueOf decodes raw as a value of the given kind. A nil raw value or an
// unrecognised kind yields Unknown.
func ValueOf(kind types.Kind, raw any) (types.AnnotationValue, error) {
	if raw == nil {
		return types.UnknownValue(), nil
	}
	return decode(kind, raw)
}

// Response extracts the task ID, value, and comment of one response payload.
func Response(payload map[string]any) (types.Response, error) {
	rawID, ok := payload[taskIDKey]
	if !ok || rawID == nil {
		return types.Response{}, types.DataError("response missing %s", taskIDKey)
	}
	taskID, err := scalarString(rawID)
	if err != nil || taskID == "" {
		return types.Response{}, types.DataError("invalid %s %v", taskIDKey, rawID)
	}

	value, err := Value(payload)
	if err != nil {
		return types.Response{}, fmt.Errorf("task %s: %w", taskID, err)
	}

	var comment string
	if c, ok := payload[commentKey].(string); ok {
		comment = c
	}

	return types.Response{
		TaskID:  taskID,
		Value:   value,
		Comment: comment,
		Raw:     payload,
	}, nil
}

func decode(kind types.Kind, raw any) (types.AnnotationValue, error) {
	switch kind {
	case types.KindScore:
		f, err := toFloat(raw)
		if err != nil {
			return types.AnnotationValue{}, types.DataError("score must be a number, got %T", raw)
		}
		return types.ScoreValue(f), nil

	case types.KindChoice:
		s, err := scalarString(raw)
		if err != nil {
			return types.AnnotationValue{}, types.DataError("choice must be a scalar, got %T", raw)
		}
		return types.ChoiceValue(s), nil

	case types.KindMultiChoice:
		items, err := toStrings(raw)
		if err != nil {
			return types.AnnotationValue{}, types.DataError("choices: %v", err)
		}
		return types.MultiChoiceValue(items), nil

	case types.KindText:
		s, ok := raw.(string)
		if !ok {
			return types.AnnotationValue{}, types.DataError("text must be a string, got %T", raw)
		}
		return types.TextValue(s), nil

	case types.KindRanking:
		items, err := toStrings(raw)
		if err != nil {
			return types.AnnotationValue{}, types.DataError("ranking: %v", err)
		}
		return types.RankingValue(items), nil
	}
	return types.UnknownValue(), nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return 0, fmt.Errorf("not a number: %T", raw)
}

// scalarString renders strings, numbers, and booleans as option labels.
// Numbers use FormatScore whatever decoder produced them, so 1, 1.0, and
// 1e0 name the same task or option.
func scalarString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return types.FormatScore(f), nil
		}
		return v.String(), nil
	}
	if f, err := toFloat(raw); err == nil {
		return types.FormatScore(f), nil
	}
	return "", fmt.Errorf("not a scalar: %T", raw)
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, err := scalarString(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("must be a list, got %T", raw)
}
