package model

import (
	"errors"
	"fmt"
)

var (
	ErrBackendUnavailable = errors.New("sensing backend unavailable")
	ErrUnreachable        = errors.New("collector unreachable")
	ErrRejected           = errors.New("collector rejected report")
	ErrMalformedRecord    = errors.New("malformed record")
)

// MalformedRecordError describes a single device attribute that failed normalization.
type MalformedRecordError struct {
	Field  string
	Value  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e == nil {
		return ErrMalformedRecord.Error()
	}
	return fmt.Sprintf("malformed %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// RejectedError is returned when the collector answers with a non-success status.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e == nil {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("collector rejected report: status %d: %s", e.StatusCode, e.Body)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}
