// Package strings provides string helpers shared across packages.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops blanks and repeats, keeping the
// first occurrence order.
//
//	DedupeAndTrim([]string{" Field required", "Field required ", ""})
//	// []string{"Field required"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// JoinDistinct joins the distinct non-blank values with sep.
func JoinDistinct(values []string, sep string) string {
	return strings.Join(DedupeAndTrim(values), sep)
}
