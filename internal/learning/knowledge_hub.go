package learning

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
)

// Priority is a knowledge item's broadcast urgency (§4.9.2).
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// KnowledgeState is a shared item's lifecycle stage (SPEC_FULL.md §4.9
// enrichment): items start experimental, graduate to validated once proven
// useful, and can only move on from there to deprecated.
type KnowledgeState string

const (
	StateExperimental KnowledgeState = "experimental"
	StateValidated    KnowledgeState = "validated"
	StateDeprecated   KnowledgeState = "deprecated"
)

const (
	validateUsageThreshold  = 5
	validateSuccessRate     = 0.8
	deprecateUsageThreshold = 3
	deprecateSuccessRate    = 0.4
)

// Item is one shared knowledge entry.
type Item struct {
	ID             string
	Kind           string
	Title          string
	Content        string
	Priority       Priority
	Tags           []string
	Votes          int
	Applications   int
	AppliedSuccess int
	State          KnowledgeState
	CreatedAt      time.Time
}

// successRate is Applications-weighted, guarding against a zero
// denominator.
func (it *Item) successRate() float64 {
	if it.Applications == 0 {
		return 0
	}
	return float64(it.AppliedSuccess) / float64(it.Applications)
}

// Hub is the Knowledge Hub: an append-and-broadcast topic store with
// tag-overlap ranked query, falling back to chromem-go embedding
// similarity when tag overlap finds nothing (SPEC_FULL.md enrichment).
type Hub struct {
	mu          sync.Mutex
	items       []*Item
	subscribers []chan *Item
	collection  *chromem.Collection
}

// NewHub builds an empty Hub, indexing shared items into an in-memory
// chromem-go collection for embedding fallback search.
func NewHub() (*Hub, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection("knowledge", nil, hashEmbeddingFunc)
	if err != nil {
		return nil, err
	}
	return &Hub{collection: col}, nil
}

// Share appends a new item and broadcasts it to every current subscriber
// (§4.9.2). Broadcasts are best-effort: a full subscriber channel is
// skipped rather than blocking the sharer.
func (h *Hub) Share(kind, title, content string, priority Priority, tags []string) *Item {
	item := &Item{
		ID:        recordID(len(h.items)),
		Kind:      kind,
		Title:     title,
		Content:   content,
		Priority:  priority,
		Tags:      tags,
		State:     StateExperimental,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.items = append(h.items, item)
	subs := append([]chan *Item(nil), h.subscribers...)
	h.mu.Unlock()

	h.indexForEmbeddingSearch(item)

	for _, sub := range subs {
		select {
		case sub <- item:
		default:
		}
	}
	return item
}

func (h *Hub) indexForEmbeddingSearch(item *Item) {
	_ = h.collection.AddDocument(context.Background(), chromem.Document{
		ID:      item.ID,
		Content: item.Title + " " + item.Content,
	})
}

// Subscribe returns a channel receiving every future Share call's item.
func (h *Hub) Subscribe() <-chan *Item {
	ch := make(chan *Item, 32)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Query ranks items by tag overlap against text, breaking ties by
// recency (§4.9.2). When no item has any tag overlap, it falls back to
// chromem-go embedding similarity so a query phrased differently from the
// item's own tags can still surface a relevant match.
func (h *Hub) Query(text string, limit int) []*Item {
	h.mu.Lock()
	items := append([]*Item(nil), h.items...)
	h.mu.Unlock()

	queryTags := tagsFromText(text)
	type scored struct {
		item  *Item
		score float64
	}
	scoredItems := make([]scored, 0, len(items))
	anyOverlap := false
	for _, it := range items {
		score := tagOverlap(queryTags, it.Tags)
		if score > 0 {
			anyOverlap = true
		}
		scoredItems = append(scoredItems, scored{it, score})
	}

	if !anyOverlap {
		return h.queryByEmbedding(text, limit)
	}

	sort.SliceStable(scoredItems, func(i, j int) bool {
		if scoredItems[i].score != scoredItems[j].score {
			return scoredItems[i].score > scoredItems[j].score
		}
		return scoredItems[i].item.CreatedAt.After(scoredItems[j].item.CreatedAt)
	})

	return topN(scoredItems, limit)
}

func topN(scoredItems []struct {
	item  *Item
	score float64
}, limit int) []*Item {
	if limit <= 0 || limit > len(scoredItems) {
		limit = len(scoredItems)
	}
	out := make([]*Item, 0, limit)
	for _, s := range scoredItems[:limit] {
		out = append(out, s.item)
	}
	return out
}

func (h *Hub) queryByEmbedding(text string, limit int) []*Item {
	if limit <= 0 {
		limit = 5
	}
	h.mu.Lock()
	count := h.collection.Count()
	h.mu.Unlock()
	if count == 0 {
		return nil
	}
	if limit > count {
		limit = count
	}

	results, err := h.collection.Query(context.Background(), text, limit, nil, nil)
	if err != nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	byID := make(map[string]*Item, len(h.items))
	for _, it := range h.items {
		byID[it.ID] = it
	}

	out := make([]*Item, 0, len(results))
	for _, r := range results {
		if it, ok := byID[r.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// snapshot returns a copy of every item for persistence.
func (h *Hub) snapshot() []*Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Item, len(h.items))
	copy(out, h.items)
	return out
}

// restore re-inserts a previously persisted item, including it in the
// embedding index, without re-broadcasting it to subscribers.
func (h *Hub) restore(item *Item) {
	h.mu.Lock()
	h.items = append(h.items, item)
	h.mu.Unlock()
	h.indexForEmbeddingSearch(item)
}

// Vote records an up-vote for an item.
func (h *Hub) Vote(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, it := range h.items {
		if it.ID == id {
			it.Votes++
			return
		}
	}
}

// RecordApplication updates an item's engagement counters and advances its
// state: experimental→validated once applications≥5 and success rate≥0.8;
// any state→deprecated once applications≥3 and success rate<0.4.
// Deprecated items never move back (§8 "knowledge state monotonicity").
func (h *Hub) RecordApplication(id string, success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, it := range h.items {
		if it.ID != id {
			continue
		}
		it.Applications++
		if success {
			it.AppliedSuccess++
		}

		if it.State == StateDeprecated {
			return
		}
		if it.Applications >= deprecateUsageThreshold && it.successRate() < deprecateSuccessRate {
			it.State = StateDeprecated
			return
		}
		if it.State == StateExperimental && it.Applications >= validateUsageThreshold && it.successRate() >= validateSuccessRate {
			it.State = StateValidated
		}
		return
	}
}

// hashEmbeddingFunc is a deterministic, dependency-free stand-in for a
// real embedding model: it hashes overlapping word shingles into a fixed
// dimensional vector. No embedding API is wired elsewhere in this module,
// so this keeps chromem-go's similarity search self-contained rather than
// introducing an external embedding provider dependency.
func hashEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	const dims = 64
	vec := make([]float32, dims)
	for _, tok := range tokenizeOrdered(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%dims]++
	}
	normalize(vec)
	return vec, nil
}

func tokenizeOrdered(text string) []string {
	set := tokenize(text)
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
