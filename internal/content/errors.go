package content

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSelector is returned for selectors missing required fields.
	ErrInvalidSelector = errors.New("invalid content selector")
	// ErrNotFound is returned when upstream reports the requested title as absent.
	ErrNotFound = errors.New("content not found")
)

// MalformedUpstreamError reports an upstream payload lacking a field that is
// structurally required for the requested shape.
type MalformedUpstreamError struct {
	MissingField string
	Err          error
}

func (e *MalformedUpstreamError) Error() string {
	switch {
	case e.MissingField != "" && e.Err != nil:
		return fmt.Sprintf("malformed upstream payload: missing %q: %v", e.MissingField, e.Err)
	case e.MissingField != "":
		return fmt.Sprintf("malformed upstream payload: missing %q", e.MissingField)
	case e.Err != nil:
		return fmt.Sprintf("malformed upstream payload: %v", e.Err)
	}
	return "malformed upstream payload"
}

func (e *MalformedUpstreamError) Unwrap() error {
	return e.Err
}

// Missing builds a MalformedUpstreamError for a required field.
func Missing(field string) *MalformedUpstreamError {
	return &MalformedUpstreamError{MissingField: field}
}

// ResolutionError reports that no playable URL could be produced.
type ResolutionError struct {
	PlaybackID string
	Reason     string
}

func (e *ResolutionError) Error() string {
	if e.PlaybackID == "" {
		return "no playable url: " + e.Reason
	}
	return fmt.Sprintf("no playable url for %s: %s", e.PlaybackID, e.Reason)
}
