package learning

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Complexity is analyze()'s banding of a task description (§4.9.4).
type Complexity string

const (
	ComplexityTrivial     Complexity = "trivial"
	ComplexitySimple      Complexity = "simple"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

// StrategyKind is select_strategy's recommended execution shape, matching
// the Orchestrator's shapes (§4.8).
type StrategyKind string

const (
	StrategySingle       StrategyKind = "single"
	StrategySequential   StrategyKind = "sequential"
	StrategyHierarchical StrategyKind = "hierarchical"
)

// Characterization is analyze()'s structured output.
type Characterization struct {
	Complexity         Complexity
	SuggestedAgents    []string
	EstimatedDurationS int
	Keywords           []string
}

var actionVerbs = []string{"build", "test", "debug", "implement", "research", "deploy", "refactor", "write", "analyze", "fix", "investigate"}

var multiAgentKeywords = []string{"and then", "then", "after that", "delegate", "research and", "coordinate"}

var fileCountPattern = regexp.MustCompile(`\b(\d+)\s+files?\b`)

// Analyze derives a Characterization from a task description via keyword
// heuristics: counts of action verbs, mentioned file counts, and overall
// length (§4.9.4).
func Analyze(description string) Characterization {
	lower := strings.ToLower(description)
	words := strings.Fields(lower)

	verbCount := 0
	var keywords []string
	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			verbCount++
			keywords = append(keywords, verb)
		}
	}

	fileCount := 0
	if m := fileCountPattern.FindStringSubmatch(lower); m != nil {
		fileCount = atoiSafe(m[1])
	}

	complexity := complexityFor(verbCount, fileCount, len(words))
	suggested := suggestedAgentsFor(keywords)

	return Characterization{
		Complexity:         complexity,
		SuggestedAgents:    suggested,
		EstimatedDurationS: estimatedDurationFor(complexity),
		Keywords:           keywords,
	}
}

func complexityFor(verbCount, fileCount, wordCount int) Complexity {
	score := verbCount*2 + fileCount + wordCount/20
	switch {
	case score >= 10:
		return ComplexityVeryComplex
	case score >= 6:
		return ComplexityComplex
	case score >= 3:
		return ComplexityModerate
	case score >= 1:
		return ComplexitySimple
	default:
		return ComplexityTrivial
	}
}

func suggestedAgentsFor(keywords []string) []string {
	var agents []string
	has := func(kw string) bool {
		for _, k := range keywords {
			if k == kw {
				return true
			}
		}
		return false
	}
	if has("research") {
		agents = append(agents, "knowledge")
	}
	if has("debug") || has("fix") || has("test") {
		agents = append(agents, "executor")
	}
	if has("deploy") {
		agents = append(agents, "ops")
	}
	if len(agents) == 0 {
		agents = append(agents, "general")
	}
	return agents
}

func estimatedDurationFor(c Complexity) int {
	switch c {
	case ComplexityVeryComplex:
		return 900
	case ComplexityComplex:
		return 420
	case ComplexityModerate:
		return 180
	case ComplexitySimple:
		return 60
	default:
		return 20
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

const keywordJaccardThreshold = 0.5

// strategyOutcome is one recorded (characterization, strategy, outcome)
// tuple used to replay the best-performing prior strategy.
type strategyOutcome struct {
	characterization Characterization
	strategy         StrategyKind
	outcome          Outcome
	fast             bool
	recordedAt       time.Time
}

// AdaptiveStrategy selects an execution shape for a task, replaying the
// nearest prior characterization's outcome-best strategy when one is
// similar enough, and recording new outcomes back (§4.9.4, §8 "strategy
// learning").
type AdaptiveStrategy struct {
	mu       sync.Mutex
	outcomes []strategyOutcome
}

// NewAdaptiveStrategy builds an empty store.
func NewAdaptiveStrategy() *AdaptiveStrategy {
	return &AdaptiveStrategy{}
}

// SelectStrategy looks up the nearest prior characterization by Jaccard
// similarity on keyword sets (≥0.5); if one exists it replays that
// characterization's best-outcome strategy. Otherwise it falls back to
// defaults: complexity ≥ complex ⇒ hierarchical; multi-agent phrasing in
// description ⇒ sequential; else single (§4.9.4).
func (s *AdaptiveStrategy) SelectStrategy(description string, characterization Characterization) StrategyKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nearest, ok := s.nearestMatch(characterization); ok {
		return nearest
	}

	if characterization.Complexity == ComplexityComplex || characterization.Complexity == ComplexityVeryComplex {
		return StrategyHierarchical
	}
	if containsAny(strings.ToLower(description), multiAgentKeywords) {
		return StrategySequential
	}
	return StrategySingle
}

// nearestMatch finds the prior outcome whose keyword set is most similar
// to characterization's (above threshold) and returns the strategy of its
// best-performing recorded outcome: preferring (success, fast) over any
// other combination, matching §8's two-point example directly.
func (s *AdaptiveStrategy) nearestMatch(characterization Characterization) (StrategyKind, bool) {
	var best *strategyOutcome
	bestScore := 0.0

	target := toSet(characterization.Keywords)
	for i := range s.outcomes {
		candidate := &s.outcomes[i]
		score := jaccard(target, toSet(candidate.characterization.Keywords))
		if score < keywordJaccardThreshold {
			continue
		}
		if score > bestScore || (score == bestScore && rank(candidate) > rank(best)) {
			bestScore = score
			best = candidate
		}
	}

	if best == nil {
		return "", false
	}
	return best.strategy, true
}

// rank orders (success, fast) highest, then success, then anything else;
// nil sorts lowest.
func rank(o *strategyOutcome) int {
	if o == nil {
		return -1
	}
	switch {
	case o.outcome == OutcomeSuccess && o.fast:
		return 3
	case o.outcome == OutcomeSuccess:
		return 2
	default:
		return 1
	}
}

// RecordOutcome folds one task's actual strategy and result back into the
// store for future nearestMatch lookups.
func (s *AdaptiveStrategy) RecordOutcome(characterization Characterization, strategy StrategyKind, outcome Outcome, fast bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, strategyOutcome{
		characterization: characterization,
		strategy:         strategy,
		outcome:          outcome,
		fast:             fast,
		recordedAt:       time.Now(),
	})
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
