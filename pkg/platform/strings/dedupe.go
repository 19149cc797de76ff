// Package strings provides list helpers for comma-separated configuration values.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empty and repeated ones.
// Order is preserved.
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
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// SplitList splits value on sep and cleans the parts with DedupeAndTrim.
//
//	SplitList(" http://a.test, ,http://b.test,http://a.test", ",")
//	// []string{"http://a.test", "http://b.test"}
func SplitList(value, sep string) []string {
	return DedupeAndTrim(strings.Split(value, sep))
}
