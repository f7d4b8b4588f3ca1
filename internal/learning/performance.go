package learning

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RecommendationPriority ranks a Performance Optimizer recommendation;
// higher sorts first.
type RecommendationPriority int

// Recommendation is one actionable finding from PerformanceOptimizer.
type Recommendation struct {
	AgentKind   string
	Category    string
	Priority    RecommendationPriority
	Message     string
}

const minSampleSize = 5

// metricKey identifies one (agent-kind, task-category) rolling window.
type metricKey struct {
	agentKind, category string
}

type rollingMetric struct {
	samples      int
	totalDur     time.Duration
	totalIter    int
	successCount int
	errorCount   int
}

func (m *rollingMetric) meanDuration() time.Duration {
	if m.samples == 0 {
		return 0
	}
	return m.totalDur / time.Duration(m.samples)
}

func (m *rollingMetric) meanIterations() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.totalIter) / float64(m.samples)
}

func (m *rollingMetric) successRate() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.successCount) / float64(m.samples)
}

func (m *rollingMetric) errorRate() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.errorCount) / float64(m.samples)
}

// Optimizer tracks per (agent-kind, task-category) rolling metrics and
// recommends investigation once a metric degrades below threshold, but
// only once enough samples have accrued to trust the signal (§4.9.3).
type Optimizer struct {
	mu      sync.Mutex
	metrics *lru.Cache[metricKey, *rollingMetric]
}

// maxTrackedMetrics bounds the number of distinct (agent-kind, category)
// windows retained; the optimizer is a cache of recent activity, not an
// unbounded ledger, so the coldest pair is evicted once the cap is hit.
const maxTrackedMetrics = 256

// NewOptimizer builds an empty Optimizer.
func NewOptimizer() *Optimizer {
	cache, err := lru.New[metricKey, *rollingMetric](maxTrackedMetrics)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}
	return &Optimizer{metrics: cache}
}

// Observe folds one completed task's outcome into its (agentKind,
// category) rolling metric.
func (o *Optimizer) Observe(agentKind, category string, duration time.Duration, iterations int, success bool) {
	key := metricKey{agentKind, category}

	o.mu.Lock()
	defer o.mu.Unlock()

	m, ok := o.metrics.Peek(key)
	if !ok {
		m = &rollingMetric{}
	}
	m.samples++
	m.totalDur += duration
	m.totalIter += iterations
	if success {
		m.successCount++
	} else {
		m.errorCount++
	}
	o.metrics.Add(key, m)
}

// Recommend returns recommendations for agentKind at or above minPriority,
// ordered highest priority first. Only (agent, category) pairs with
// sample size ≥5 are considered, since fewer samples don't yet justify a
// recommendation (§4.9.3).
func (o *Optimizer) Recommend(agentKind string, minPriority RecommendationPriority) []Recommendation {
	o.mu.Lock()
	defer o.mu.Unlock()

	var recs []Recommendation
	for _, key := range o.metrics.Keys() {
		m, ok := o.metrics.Peek(key)
		if !ok || key.agentKind != agentKind || m.samples < minSampleSize {
			continue
		}
		recs = append(recs, recommendationsFor(key, m)...)
	}

	filtered := recs[:0]
	for _, r := range recs {
		if r.Priority >= minPriority {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Priority > filtered[j].Priority
	})
	return filtered
}

// recommendationsFor evaluates one metric window against the known
// thresholds, producing zero or more findings.
func recommendationsFor(key metricKey, m *rollingMetric) []Recommendation {
	var recs []Recommendation

	if m.successRate() < 0.7 {
		recs = append(recs, Recommendation{
			AgentKind: key.agentKind,
			Category:  key.category,
			Priority:  8,
			Message:   "investigate failures",
		})
	}
	if m.errorRate() > 0.3 {
		recs = append(recs, Recommendation{
			AgentKind: key.agentKind,
			Category:  key.category,
			Priority:  7,
			Message:   "elevated error rate; review recent error patterns",
		})
	}
	if m.meanIterations() > 15 {
		recs = append(recs, Recommendation{
			AgentKind: key.agentKind,
			Category:  key.category,
			Priority:  5,
			Message:   "high average iteration count; consider a more specific strategy",
		})
	}
	return recs
}
