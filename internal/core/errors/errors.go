// Package errors provides centralized error definitions for the application.
//
// Errors carry an explicit Kind so callers can switch on what went wrong
// instead of matching concrete types:
//
//	switch errors.KindOf(err) {
//	case errors.KindNotFitted:
//	case errors.KindProbabilityUnavailable:
//	}
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Use E to attach a kind and an operation name to an error
//   - Use fmt.Errorf with %w to add context; the kind survives wrapping
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNotFitted means the vectorizer was used before it learned a vocabulary.
	KindNotFitted
	// KindTraining means the scorer is untrained, was given unusable training
	// data, or its underlying fit failed.
	KindTraining
	// KindLengthMismatch means paired label sequences differ in length.
	KindLengthMismatch
	// KindUnknownLabel means a label token is neither FAKE nor REAL.
	KindUnknownLabel
	// KindProbabilityUnavailable means the scorer could not produce a usable
	// probability. The pipeline handles it with a degraded decision.
	KindProbabilityUnavailable
	// KindDataFormat means an input record is missing fields or malformed.
	KindDataFormat
	// KindInvalidInput means an argument or configuration value is out of range.
	KindInvalidInput
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindNotFitted:              "not fitted",
	KindTraining:               "training",
	KindLengthMismatch:         "length mismatch",
	KindUnknownLabel:           "unknown label",
	KindProbabilityUnavailable: "probability unavailable",
	KindDataFormat:             "data format",
	KindInvalidInput:           "invalid input",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinel errors, one per kind. An *Error matches the sentinel of its kind
// with errors.Is.
var (
	// ErrNotFitted indicates the vectorizer has no vocabulary yet.
	ErrNotFitted = errors.New("vectorizer not fitted")

	// ErrNotTrained indicates the scorer was used before training.
	ErrNotTrained = errors.New("model not trained")

	// ErrLengthMismatch indicates label sequences of different length.
	ErrLengthMismatch = errors.New("mismatch in number of true and predicted labels")

	// ErrUnknownLabel indicates an unrecognized label token.
	ErrUnknownLabel = errors.New("unknown label value")

	// ErrProbabilityUnavailable indicates the scorer produced no usable probability.
	ErrProbabilityUnavailable = errors.New("probability unavailable")

	// ErrDataFormat indicates a malformed input record.
	ErrDataFormat = errors.New("input data is not in an acceptable format")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

var kindSentinels = map[Kind]error{
	KindNotFitted:              ErrNotFitted,
	KindTraining:               ErrNotTrained,
	KindLengthMismatch:         ErrLengthMismatch,
	KindUnknownLabel:           ErrUnknownLabel,
	KindProbabilityUnavailable: ErrProbabilityUnavailable,
	KindDataFormat:             ErrDataFormat,
	KindInvalidInput:           ErrInvalidInput,
}

// Error is a classified error.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "vectorizer.transform".
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op + ": " + e.Kind.String()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]

	return ok && sentinel == target
}

// E builds a classified error. msg may be a string, an error, or nil (the
// kind's sentinel is used).
func E(kind Kind, op string, msg any) error {
	var err error

	switch m := msg.(type) {
	case nil:
		err = kindSentinels[kind]
	case error:
		err = m
	case string:
		err = errors.New(m)
	default:
		err = fmt.Errorf("%v", m)
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef builds a classified error with a formatted message.
func Ef(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
