// Package eventstream implements the Event Stream (C10, §4.10): an
// append-only, per-task sequence of models.Event records fanned out to any
// number of subscribers in the same total order. It adapts the two-lane
// backpressure design of the teacher's agent event sink: rather than split
// events into a never-dropped and a droppable lane, every subscriber gets
// its own bounded buffer and is disconnected (not blocked) once it lags,
// emitting a terminal subscriber_lagged event in its place.
package eventstream

import (
	"sync"

	"github.com/agentcore/core/pkg/models"
)

// DefaultSubscriberBuffer is the default per-subscriber channel capacity
// before a lagging subscriber is dropped (§4.10).
const DefaultSubscriberBuffer = 256

// Stream is one task's append-only event log with live fan-out.
type Stream struct {
	taskID string

	mu          sync.Mutex
	seq         uint64
	events      []models.Event
	subscribers map[*subscriber]struct{}
	bufferSize  int
	closed      bool
}

type subscriber struct {
	ch chan models.Event
}

// New creates an empty stream for taskID. bufferSize <= 0 uses
// DefaultSubscriberBuffer.
func New(taskID string, bufferSize int) *Stream {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &Stream{
		taskID:      taskID,
		subscribers: make(map[*subscriber]struct{}),
		bufferSize:  bufferSize,
	}
}

// Append assigns the next sequence number to e, records it, and
// best-effort delivers it to every live subscriber. It returns the
// assigned sequence number. Appending to a closed stream is a no-op that
// returns the last assigned sequence number.
func (s *Stream) Append(e models.Event) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.seq
	}

	s.seq++
	e.TaskID = s.taskID
	e.Seq = s.seq
	s.events = append(s.events, e)

	for sub := range s.subscribers {
		s.deliverLocked(sub, e)
	}
	return s.seq
}

// deliverLocked sends e to sub, dropping and disconnecting the subscriber
// with a terminal subscriber_lagged event if its buffer is full. Must be
// called with s.mu held.
func (s *Stream) deliverLocked(sub *subscriber, e models.Event) {
	select {
	case sub.ch <- e:
		return
	default:
	}

	lagged := models.Event{
		TaskID: s.taskID,
		Seq:    s.seq,
		Kind:   models.EventSubscriberLagged,
	}
	select {
	case sub.ch <- lagged:
	default:
	}
	delete(s.subscribers, sub)
	close(sub.ch)
}

// Subscribe returns a channel delivering every event appended from this
// point on, until the stream is closed or the subscriber is dropped for
// lagging. The channel is closed in either case.
func (s *Stream) Subscribe() <-chan models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscriber{ch: make(chan models.Event, s.bufferSize)}
	if s.closed {
		close(sub.ch)
		return sub.ch
	}
	s.subscribers[sub] = struct{}{}
	return sub.ch
}

// Snapshot returns every event recorded so far, in sequence order.
func (s *Stream) Snapshot() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Close marks the stream closed and disconnects every current subscriber,
// closing their channels. Close is idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subscribers {
		close(sub.ch)
		delete(s.subscribers, sub)
	}
}

// TaskID returns the task this stream belongs to.
func (s *Stream) TaskID() string {
	return s.taskID
}
