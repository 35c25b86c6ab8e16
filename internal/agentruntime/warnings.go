package agentruntime

import (
	"fmt"
	"strings"
)

// Warning categories.
const (
	WarnCategoryPermission = "permission"
	WarnCategoryNetwork    = "network"
	WarnCategoryNaming     = "naming"
)

// Warning records a non-fatal issue encountered during construction, such
// as a permission grant that had to be widened or a network request that
// was degraded. Warnings are collected on the construct and surfaced at
// plan/apply time; they are never silently dropped.
type Warning struct {
	Category string
	Message  string
	Hint     string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Hint != "" {
		return fmt.Sprintf("[%s] %s (hint: %s)", w.Category, w.Message, w.Hint)
	}
	return fmt.Sprintf("[%s] %s", w.Category, w.Message)
}

// FormatWarnings returns a multi-line string from a list of warnings,
// suitable for display to the user.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d warning(s):\n", len(warnings))
	for i, w := range warnings {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, w.String())
	}
	return b.String()
}
