package binding

import (
	"errors"
	"fmt"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("malformed binding")

// Kind names the binding grammar a spec was parsed with.
type Kind string

const (
	KindPort   Kind = "port"
	KindVolume Kind = "volume"
	KindLink   Kind = "link"
	KindEnv    Kind = "env"
)

// ParseError reports a spec that does not match its grammar.
type ParseError struct {
	Kind   Kind
	Spec   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s spec %q: %s", e.Kind, e.Spec, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

func parseErr(kind Kind, spec, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Spec: spec, Reason: fmt.Sprintf(format, args...)}
}
