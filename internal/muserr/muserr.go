// Package muserr defines the error taxonomy shared across the engine
// (spec.md §7). It follows the teacher's plain errors.New/fmt.Errorf
// style — there is no custom error framework anywhere in the teacher
// repo, so none is introduced here either; Kind just gives callers an
// errors.As target to branch on.
package muserr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error per spec.md §7's taxonomy.
type Kind string

const (
	KindDevice   Kind = "device_error"
	KindFormat   Kind = "format_error"
	KindDecoder  Kind = "decoder_error"
	KindCodec    Kind = "codec_error"
	KindIO       Kind = "io_error"
	KindResource Kind = "resource_error"
	KindState    Kind = "state_error"
)

// Error is the library-wide error type. All public APIs that signal by
// raising (spec.md §7: open_device, source.open, decoder.open,
// registry.find_decoder) wrap their failure in one of these.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("musac: %s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("musac: %s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind for operation op, optionally
// wrapping a lower-level cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is a muserr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
