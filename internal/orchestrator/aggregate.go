package orchestrator

import (
	"context"
	"strings"
)

// Aggregation is how Hierarchical combines its subtask results into one
// output (§4.8).
type Aggregation string

const (
	AggregationConcat Aggregation = "concat"
	AggregationMerge  Aggregation = "merge"
	AggregationVote   Aggregation = "vote"
)

// Subgroup is one internally sequential-or-parallel batch of tasks run by
// Hierarchical before aggregation.
type Subgroup struct {
	Tasks    []Task
	Parallel bool
	Strict   bool // only meaningful when Parallel is false
}

// HierarchicalResult is Hierarchical's output: the per-subgroup raw
// results plus the aggregated output.
type HierarchicalResult struct {
	Subgroups []TaskResult
	Output    string
}

// Hierarchical runs each subgroup (sequential or parallel internally),
// flattens every subtask's output, and aggregates per aggregation (§4.8).
func (o *Orchestrator) Hierarchical(ctx context.Context, subgroups []Subgroup, aggregation Aggregation) *HierarchicalResult {
	var all []TaskResult
	for _, sg := range subgroups {
		if sg.Parallel {
			all = append(all, o.Parallel(ctx, sg.Tasks, 0)...)
		} else {
			all = append(all, o.Sequential(ctx, sg.Tasks, sg.Strict)...)
		}
	}

	return &HierarchicalResult{Subgroups: all, Output: aggregate(all, aggregation)}
}

func aggregate(results []TaskResult, aggregation Aggregation) string {
	outputs := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			outputs = append(outputs, r.Output)
		}
	}

	switch aggregation {
	case AggregationMerge:
		return mergeByLine(outputs)
	case AggregationVote:
		winner, _ := modalResult(outputs)
		return winner
	default: // AggregationConcat
		return strings.Join(outputs, "\n")
	}
}

// mergeByLine concatenates outputs then deduplicates repeated lines,
// keeping first occurrence order (§4.8: "merge performs textual
// deduplication by line").
func mergeByLine(outputs []string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, out := range outputs {
		for _, line := range strings.Split(out, "\n") {
			if seen[line] {
				continue
			}
			seen[line] = true
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// modalResult returns the most frequent normalized-text output and its raw
// (non-normalized) form, used by both vote aggregation and Consensus.
func modalResult(outputs []string) (string, int) {
	counts := make(map[string]int)
	raw := make(map[string]string)
	order := make([]string, 0, len(outputs))

	for _, out := range outputs {
		key := normalizeText(out)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
			raw[key] = out
		}
		counts[key]++
	}

	var bestKey string
	bestCount := 0
	for _, key := range order {
		if counts[key] > bestCount {
			bestKey = key
			bestCount = counts[key]
		}
	}
	return raw[bestKey], bestCount
}

// normalizeText lowercases and collapses whitespace so semantically
// identical outputs with cosmetic differences still group together for
// vote/consensus comparison.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
