package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeTrivialTaskLowComplexity(t *testing.T) {
	c := Analyze("say hi")
	assert.Equal(t, ComplexityTrivial, c.Complexity)
}

func TestAnalyzeComplexTaskHighComplexity(t *testing.T) {
	c := Analyze("build, test, debug, and deploy a distributed system across 12 files with careful refactoring and thorough investigation of edge cases along the way")
	assert.Contains(t, []Complexity{ComplexityComplex, ComplexityVeryComplex}, c.Complexity)
}

func TestAnalyzeExtractsActionVerbKeywords(t *testing.T) {
	c := Analyze("please debug this failing test")
	assert.Contains(t, c.Keywords, "debug")
	assert.Contains(t, c.Keywords, "test")
}

func TestAnalyzeSuggestsKnowledgeAgentForResearch(t *testing.T) {
	c := Analyze("research the best caching strategy")
	assert.Contains(t, c.SuggestedAgents, "knowledge")
}

func TestSelectStrategyDefaultsHierarchicalForVeryComplex(t *testing.T) {
	s := NewAdaptiveStrategy()
	c := Characterization{Complexity: ComplexityVeryComplex, Keywords: []string{"build", "test", "deploy"}}
	assert.Equal(t, StrategyHierarchical, s.SelectStrategy("build test deploy", c))
}

func TestSelectStrategyDefaultsSequentialForMultiAgentPhrasing(t *testing.T) {
	s := NewAdaptiveStrategy()
	c := Characterization{Complexity: ComplexitySimple, Keywords: []string{"research"}}
	assert.Equal(t, StrategySequential, s.SelectStrategy("research x, then write a file", c))
}

func TestSelectStrategyDefaultsSingleOtherwise(t *testing.T) {
	s := NewAdaptiveStrategy()
	c := Characterization{Complexity: ComplexitySimple, Keywords: []string{"write"}}
	assert.Equal(t, StrategySingle, s.SelectStrategy("write a file", c))
}

func TestSelectStrategyReplaysBestPriorOutcome(t *testing.T) {
	s := NewAdaptiveStrategy()
	c := Characterization{Complexity: ComplexityModerate, Keywords: []string{"build", "api", "service"}}

	s.RecordOutcome(c, StrategyHierarchical, OutcomeSuccess, true)
	s.RecordOutcome(c, StrategySequential, OutcomeFailure, false)

	third := Characterization{Complexity: ComplexityModerate, Keywords: []string{"build", "api", "service"}}
	assert.Equal(t, StrategyHierarchical, s.SelectStrategy("build the api service", third))
}

func TestSelectStrategyIgnoresDissimilarPriorCharacterizations(t *testing.T) {
	s := NewAdaptiveStrategy()
	c := Characterization{Complexity: ComplexityModerate, Keywords: []string{"build", "api", "service"}}
	s.RecordOutcome(c, StrategyHierarchical, OutcomeSuccess, true)

	unrelated := Characterization{Complexity: ComplexitySimple, Keywords: []string{"write", "poem"}}
	assert.Equal(t, StrategySingle, s.SelectStrategy("write a poem", unrelated))
}
