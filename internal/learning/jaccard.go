// Package learning implements the Learning Stores (C9, §4.9): the
// Interaction Log, Knowledge Hub, Performance Optimizer, Adaptive
// Strategy, and Error Pattern Store, all in-process with optional JSON or
// sqlite persistence on task boundary.
package learning

import (
	"strings"
)

// tokenize lowercases and splits text into a deduplicated word set, the
// shared basis for every Jaccard comparison across the five stores.
func tokenize(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		field = strings.Trim(field, ".,!?;:\"'()[]{}")
		if field == "" {
			continue
		}
		set[field] = struct{}{}
	}
	return set
}

// jaccard computes |a ∩ b| / |a ∪ b| over two pre-tokenized word sets,
// returning 0 when both are empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// jaccardText is a convenience wrapper comparing two raw strings.
func jaccardText(a, b string) float64 {
	return jaccard(tokenize(a), tokenize(b))
}
