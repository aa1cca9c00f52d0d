// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrData marks malformed input: unparseable files, responses without
	// task_id, wrongly typed values, or mixed kinds within one task. A data
	// error aborts the whole batch.
	ErrData = errors.New("data error")

	// ErrPrecondition marks agreement requests that cannot be computed,
	// such as fewer than two annotators or no common tasks.
	ErrPrecondition = errors.New("precondition failed")
)

// DataError formats a message and wraps it in ErrData.
func DataError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrData, fmt.Sprintf(format, args...))
}

// PreconditionError wraps msg in ErrPrecondition.
func PreconditionError(msg string) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, msg)
}

// IsDataError reports whether err is or wraps ErrData.
func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}

// IsPreconditionError reports whether err is or wraps ErrPrecondition.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition)
}
