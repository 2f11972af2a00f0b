// Package apierror defines the eight-kind error taxonomy of §7 and the
// {short, long} JSON envelope every 4xx/5xx response uses.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the eight error categories from spec.md §7.
type Kind int

const (
	Configuration Kind = iota
	BackendConnection
	ContainerLifecycle
	DocumentWrite
	DocumentRetrieval
	InputValidation
	NotFound
	Deserialization
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case BackendConnection:
		return "backend_connection"
	case ContainerLifecycle:
		return "container_lifecycle"
	case DocumentWrite:
		return "document_write"
	case DocumentRetrieval:
		return "document_retrieval"
	case InputValidation:
		return "input_validation"
	case NotFound:
		return "not_found"
	case Deserialization:
		return "deserialization"
	default:
		return "unknown"
	}
}

// Status maps a Kind to the HTTP status code it renders as (§7).
func (k Kind) Status() int {
	switch k {
	case InputValidation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case BackendConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a taxonomy-tagged error carrying the short slug and long
// detail rendered in the {short, long} envelope.
type Error struct {
	kind  Kind
	short string
	long  string
	cause error
}

// New builds an Error of the given kind with a short slug and a
// formatted long message.
func New(kind Kind, short, format string, args ...any) *Error {
	return &Error{kind: kind, short: short, long: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind/short/long context to a lower-layer error,
// preserving it for errors.Unwrap/errors.Is/errors.As chains.
func Wrap(kind Kind, short string, cause error) *Error {
	return &Error{kind: kind, short: short, long: cause.Error(), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.short, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.kind, e.short, e.long)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's taxonomy kind.
func (e *Error) Kind() Kind { return e.kind }

// Short returns the slug half of the {short, long} envelope.
func (e *Error) Short() string { return e.short }

// Long returns the detail half of the {short, long} envelope.
func (e *Error) Long() string { return e.long }

// Envelope is the wire shape of every 4xx/5xx JSON body.
type Envelope struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// ToEnvelope renders any error as the {short, long} contract; errors
// that are not *Error are rendered with a generic "internal" short slug.
func ToEnvelope(err error) (int, Envelope) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind().Status(), Envelope{Short: ae.Short(), Long: ae.Long()}
	}
	return http.StatusInternalServerError, Envelope{Short: "internal", Long: err.Error()}
}
