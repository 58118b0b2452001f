package loader

import "fmt"

// Kind classifies why a profile document could not be loaded.
type Kind string

const (
	// KindFetch means the resource could not be retrieved at all (network, timeout, missing file).
	KindFetch Kind = "fetch"
	// KindStatus means the server answered with a non-success status.
	KindStatus Kind = "status"
	// KindDecode means the body is not well-formed JSON.
	KindDecode Kind = "decode"
	// KindInvalid means the JSON does not describe a complete profile document.
	KindInvalid Kind = "invalid"
)

// LoadError is returned by every Source when the profile document cannot be produced.
type LoadError struct {
	Location string
	Kind     Kind
	Message  string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error for %s (%s): %s: %v", e.Location, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("load error for %s (%s): %s", e.Location, e.Kind, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
