// Package strings provides small string slice helpers shared by modules.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value, drops empties and duplicates, and keeps
// first-seen order. Oracle findings pass through here before they are
// written into alert descriptions.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is DedupeAndTrim with case folding, used for enum-like
// query parameters such as status filters.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// SplitCSV splits a comma separated parameter and normalizes it with
// DedupeAndTrimLower. An empty input yields nil.
func SplitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(raw, ","))
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
