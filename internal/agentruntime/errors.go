package agentruntime

import (
	"errors"
	"fmt"
)

// ConfigError reports a missing or malformed configuration field for a
// chosen runtime/deployment-method variant. It is fatal: construction
// fails immediately and the error propagates to the caller unmodified.
type ConfigError struct {
	// Field is the offending configuration field, in its JSON spelling.
	Field string
	// Variant names the runtime or deployment-method combination that
	// required the field (e.g. "AGENTCORE/CONTAINER").
	Variant string
	// Reason describes what is wrong.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Variant != "" {
		return fmt.Sprintf("configuration error (%s): %s: %s", e.Variant, e.Field, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// UnsupportedError reports a recognized but intentionally gated feature.
// It is distinguishable from ConfigError so callers understand the
// configuration is well-formed but the capability does not exist yet.
type UnsupportedError struct {
	// Feature names the gated capability.
	Feature string
	// Hint tells the caller what to use instead.
	Hint string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("%s is not yet fully supported", e.Feature)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// IsConfigError returns the ConfigError if err is (or wraps) one.
func IsConfigError(err error) *ConfigError {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// IsUnsupportedError returns the UnsupportedError if err is (or wraps) one.
func IsUnsupportedError(err error) *UnsupportedError {
	var ue *UnsupportedError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
