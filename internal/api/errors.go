package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a record or document does not exist
	ErrNotFound = errors.New("not found")

	// ErrUploadAborted is returned when an upload was cancelled by the user or
	// hit its safety timeout. It is a status, not an alarm.
	ErrUploadAborted = errors.New("upload aborted")

	// ErrUnsupported is returned when the backend lacks an optional feature
	ErrUnsupported = errors.New("not supported by this backend")
)

// ValidationError reports malformed user input. It never leaves the editing
// component that produced it.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a failed persistence call
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PartialBatchError reports which records of a fan-out batch failed
type PartialBatchError struct {
	Op     string
	Total  int
	Failed map[int64]error
}

func (e *PartialBatchError) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: %d of %d failed (ids %s)", e.Op, len(ids), e.Total, strings.Join(parts, ", "))
}

// FailedIDs returns the failing record ids in ascending order
func (e *PartialBatchError) FailedIDs() []int64 {
	ids := make([]int64, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
