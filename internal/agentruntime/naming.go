package agentruntime

import (
	"fmt"
	"regexp"
	"strings"
)

// awsNamePattern is the regex pattern for valid AgentCore resource names.
// Names must start with a letter, contain only letters, digits, and
// underscores, and be at most 48 characters long.
const awsNamePattern = `^[A-Za-z][A-Za-z0-9_]{0,47}$`

// awsNameRe is the compiled regex for validating resource names.
var awsNameRe = regexp.MustCompile(awsNamePattern)

// maxNameLen is the maximum length of an AgentCore resource name.
const maxNameLen = 48

// endpointSuffix is appended to the sanitized agent name to derive the
// runtime endpoint name. Plan, apply, and destroy all rely on this
// derivation being deterministic.
const endpointSuffix = "_endpoint"

// ValidateResourceName checks whether name is a valid AgentCore resource
// name and returns an error describing the problem if not. The
// resourceType is used in the error message to help users identify which
// resource is invalid.
func ValidateResourceName(name, resourceType string) error {
	if !awsNameRe.MatchString(name) {
		return fmt.Errorf(
			"resource name %q (%s) is invalid: must match %s",
			name, resourceType, awsNamePattern,
		)
	}
	return nil
}

// disallowedRe matches every character the AgentCore name pattern rejects.
var disallowedRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeName converts an arbitrary agent name into one that satisfies
// the AgentCore name pattern: disallowed characters become underscores, a
// leading non-letter gets an "a" prefix, and the result is truncated to
// 48 characters. Sanitizing an already-valid name is the identity.
func SanitizeName(name string) string {
	s := disallowedRe.ReplaceAllString(name, "_")
	if s == "" || !isLetter(rune(s[0])) {
		s = "a" + s
	}
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	return s
}

// EndpointName derives the runtime endpoint name from an agent name. The
// agent name is sanitized first, then truncated so the suffixed result
// still fits the 48-character limit.
func EndpointName(agentName string) string {
	base := SanitizeName(agentName)
	if len(base)+len(endpointSuffix) > maxNameLen {
		base = base[:maxNameLen-len(endpointSuffix)]
	}
	base = strings.TrimRight(base, "_")
	if base == "" {
		base = "a"
	}
	return base + endpointSuffix
}

// isLetter reports whether r is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
