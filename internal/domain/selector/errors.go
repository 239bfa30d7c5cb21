package selector

import (
	"errors"
	"strings"
)

// ErrInvalidRequest is the kind of every validation failure.
var ErrInvalidRequest = errors.New("invalid membership request")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationError carries all field errors of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrInvalidRequest.Error() + ": " + strings.Join(msgs, " | ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }
