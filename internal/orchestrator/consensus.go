package orchestrator

import (
	"context"
	"fmt"
)

const (
	minConsensusAgents  = 3
	defaultMinAgreement = 0.6
)

// ConsensusResult is Consensus's output: the winning text, the share of
// agents that agreed on it, and whether that share met min_agreement.
type ConsensusResult struct {
	Winner          string
	Agreement       float64
	ConsensusReached bool
	Responses       []TaskResult
}

// Consensus dispatches input identically to every listed agent kind
// (requiring at least 3, per §4.8), groups responses by normalized-text
// equality, and declares consensus if the largest group's share meets
// minAgreement (0 uses the default of 0.6).
func (o *Orchestrator) Consensus(ctx context.Context, agentKinds []string, input string, minAgreement float64) (*ConsensusResult, error) {
	if len(agentKinds) < minConsensusAgents {
		return nil, fmt.Errorf("orchestrator: consensus requires at least %d agents, got %d", minConsensusAgents, len(agentKinds))
	}
	if minAgreement <= 0 {
		minAgreement = defaultMinAgreement
	}

	tasks := make([]Task, len(agentKinds))
	for i, kind := range agentKinds {
		tasks[i] = Task{AgentKind: kind, Input: input}
	}
	responses := o.Parallel(ctx, tasks, 0)

	var succeeded []string
	for _, r := range responses {
		if r.Err == nil {
			succeeded = append(succeeded, r.Output)
		}
	}

	winner, count := modalResult(succeeded)
	agreement := 0.0
	if len(succeeded) > 0 {
		agreement = float64(count) / float64(len(succeeded))
	}

	return &ConsensusResult{
		Winner:           winner,
		Agreement:        agreement,
		ConsensusReached: agreement >= minAgreement,
		Responses:        responses,
	}, nil
}
