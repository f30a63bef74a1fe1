// FILE: lixenwraith/nodeconf/errors.go
package nodeconf

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error in this package matches exactly one of
// these through errors.Is.
var (
	// ErrCast is matched by *CastError
	ErrCast = errors.New("cast failed")
	// ErrNotAllowed is additionally matched by a *CastError raised by a literal check
	ErrNotAllowed = errors.New("value not in allowed set")
	// ErrCLIParse is matched by *CLIParseError
	ErrCLIParse = errors.New("failed to parse command-line override")
	// ErrValidation is matched by *ValidationError
	ErrValidation = errors.New("configuration validation failed")
	// ErrConfig is matched by *ConfigError
	ErrConfig = errors.New("invalid schema definition")
	// ErrInterpolation is matched by a *ValidationError raised while resolving ${...} references
	ErrInterpolation = errors.New("interpolation failed")
	// ErrConfigNotFound is returned by the loader when the configuration file does not exist
	ErrConfigNotFound = errors.New("configuration file not found")
)

// CastError reports a value that could not be converted to any declared type,
// or that converted but failed a literal membership check.
type CastError struct {
	Value      any
	Types      []string
	NotAllowed bool
	Allowed    []any
	Err        error // last conversion failure, if any
}

func (e *CastError) Error() string {
	if e.NotAllowed {
		vals := make([]string, len(e.Allowed))
		for i, v := range e.Allowed {
			vals[i] = fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("value %v not in allowed set {%s}", e.Value, strings.Join(vals, ", "))
	}
	return fmt.Sprintf("`%v` (%T) cannot be cast to %s", e.Value, e.Value, strings.Join(e.Types, ", "))
}

func (e *CastError) Is(target error) bool {
	return target == ErrCast || (e.NotAllowed && target == ErrNotAllowed)
}

func (e *CastError) Unwrap() error { return e.Err }

// CLIParseError reports a malformed path=value token.
type CLIParseError struct {
	Token  string
	Reason string
}

func (e *CLIParseError) Error() string {
	return fmt.Sprintf("invalid override %q: %s", e.Token, e.Reason)
}

func (e *CLIParseError) Is(target error) bool { return target == ErrCLIParse }

// ValidationError reports a failure while constructing a node tree.
// Path is the full dotted path of the offending parameter.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigError reports misuse of the schema definition API.
type ConfigError struct {
	Schema string
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Schema != "" && e.Param != "":
		return fmt.Sprintf("schema %s, parameter %q: %s", e.Schema, e.Param, e.Reason)
	case e.Schema != "":
		return fmt.Sprintf("schema %s: %s", e.Schema, e.Reason)
	default:
		return e.Reason
	}
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func validationErr(path, reason string, err error) error {
	return &ValidationError{Path: path, Reason: reason, Err: err}
}
