package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Every error that reaches the episode workflow is tagged
// with exactly one of these so it can be recorded and reported by kind.
var (
	ErrBackendUnavailable     = errors.New("backend unavailable")
	ErrProtocolMismatch       = errors.New("protocol mismatch")
	ErrJobFailed              = errors.New("job failed")
	ErrJobTimeout             = errors.New("job timeout")
	ErrAssemblyFailed         = errors.New("assembly failed")
	ErrSchemaValidationFailed = errors.New("schema validation failed")
	ErrPublishFailed          = errors.New("publish failed")
	ErrStoreWriteFailed       = errors.New("store write failed")
	ErrStoreReadFailed        = errors.New("store read failed")
	ErrConfiguration          = errors.New("configuration error")
	ErrCanceled               = errors.New("canceled")
)

// Kind values persisted in failure records and printed to the operator.
const (
	KindBackendUnavailable     = "backend_unavailable"
	KindProtocolMismatch       = "protocol_mismatch"
	KindJobFailed              = "job_failed"
	KindJobTimeout             = "job_timeout"
	KindAssemblyFailed         = "assembly_failed"
	KindSchemaValidationFailed = "schema_validation_failed"
	KindPublishFailed          = "publish_failed"
	KindStoreWriteFailed       = "store_write_failed"
	KindStoreReadFailed        = "store_read_failed"
	KindConfiguration          = "configuration"
	KindCanceled               = "canceled"
	KindUnknown                = "unknown"
)

var markerKinds = []struct {
	marker error
	kind   string
}{
	{ErrBackendUnavailable, KindBackendUnavailable},
	{ErrProtocolMismatch, KindProtocolMismatch},
	{ErrJobFailed, KindJobFailed},
	{ErrJobTimeout, KindJobTimeout},
	{ErrAssemblyFailed, KindAssemblyFailed},
	{ErrSchemaValidationFailed, KindSchemaValidationFailed},
	{ErrPublishFailed, KindPublishFailed},
	{ErrStoreWriteFailed, KindStoreWriteFailed},
	{ErrStoreReadFailed, KindStoreReadFailed},
	{ErrConfiguration, KindConfiguration},
	{ErrCanceled, KindCanceled},
}

// Error is the structured failure produced by Wrap.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Code      string
	Hint      string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Marker, detail, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Marker, detail)
}

// Unwrap exposes both the marker and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Cause}
}

// ErrorKind reports the taxonomy kind of the marker.
func (e *Error) ErrorKind() string {
	return kindForMarker(e.Marker)
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrJobFailed
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// WrapCode is Wrap with a short machine-readable code (e.g. "quota", "auth").
func WrapCode(marker error, stage, operation, code, message string, err error) error {
	wrapped := Wrap(marker, stage, operation, message, err).(*Error)
	wrapped.Code = strings.TrimSpace(code)
	return wrapped
}

// WithHint attaches an operator hint to a structured error. Other errors are
// returned unchanged.
func WithHint(err error, hint string) error {
	var se *Error
	if !errors.As(err, &se) {
		return err
	}
	clone := *se
	clone.Hint = strings.TrimSpace(hint)
	return &clone
}

// ErrorDetails is the flattened view of an error used for logs and records.
type ErrorDetails struct {
	Kind      string
	Stage     string
	Operation string
	Message   string
	Code      string
	Hint      string
	Cause     error
}

// Details extracts structured fields from err. Errors not produced by Wrap are
// classified by their markers, or as context cancellation, or as unknown.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	var se *Error
	if errors.As(err, &se) {
		return ErrorDetails{
			Kind:      se.ErrorKind(),
			Stage:     se.Stage,
			Operation: se.Operation,
			Message:   firstNonEmpty(se.Message, causeMessage(se.Cause)),
			Code:      se.Code,
			Hint:      se.Hint,
			Cause:     se.Cause,
		}
	}
	return ErrorDetails{
		Kind:    KindOf(err),
		Message: err.Error(),
		Cause:   err,
	}
}

// KindOf returns the taxonomy kind for err.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.ErrorKind()
	}
	for _, mk := range markerKinds {
		if errors.Is(err, mk.marker) {
			return mk.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}

// MarkerForKind returns the sentinel that corresponds to a persisted kind.
func MarkerForKind(kind string) error {
	for _, mk := range markerKinds {
		if mk.kind == kind {
			return mk.marker
		}
	}
	return nil
}

func kindForMarker(marker error) string {
	for _, mk := range markerKinds {
		if errors.Is(marker, mk.marker) {
			return mk.kind
		}
	}
	return KindUnknown
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
