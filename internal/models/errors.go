package models

import (
	"errors"
	"fmt"
	"strings"
)

// GenericNetworkMessage is shown for any transport failure.
const GenericNetworkMessage = "Network error. Please try again."

var (
	// ErrNotFound matches server errors for unknown content ids.
	ErrNotFound = errors.New("content not found")
	// ErrConflict matches server errors for state conflicts such as a repeat publish.
	ErrConflict = errors.New("content state conflict")
)

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NetworkError wraps transport failures and timeouts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerErrorKind refines a ServerError.
type ServerErrorKind string

const (
	ServerErrorGeneric  ServerErrorKind = "generic"
	ServerErrorNotFound ServerErrorKind = "not_found"
	ServerErrorConflict ServerErrorKind = "conflict"
)

// ServerError is returned when the service answers non-2xx or success=false.
type ServerError struct {
	Op      string
	Status  int
	Message string
	Kind    ServerErrorKind
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s: server (status %d): %s", e.Op, e.Status, msg)
}

// Is lets errors.Is match ErrNotFound and ErrConflict by kind.
func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == ServerErrorNotFound
	case ErrConflict:
		return e.Kind == ServerErrorConflict
	}
	return false
}

// UserMessage picks the text shown to the user for err. Server-supplied
// messages win; network failures always use the generic network text.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return GenericNetworkMessage
	}
	var serr *ServerError
	if errors.As(err, &serr) && strings.TrimSpace(serr.Message) != "" {
		return strings.TrimSpace(serr.Message)
	}
	return fallback
}
