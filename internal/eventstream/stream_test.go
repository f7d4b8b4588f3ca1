package eventstream

import (
	"testing"

	"github.com/agentcore/core/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsMonotonicSequenceNumbers(t *testing.T) {
	s := New("task-1", 0)
	seq1 := s.Append(models.Event{Kind: models.EventPhaseChanged})
	seq2 := s.Append(models.Event{Kind: models.EventPlanCreated})
	assert.Equal(t, uint64(1), seq1)
	assert.Equal(t, uint64(2), seq2)
}

func TestSnapshotReturnsEventsInOrder(t *testing.T) {
	s := New("task-1", 0)
	s.Append(models.Event{Kind: models.EventPhaseChanged})
	s.Append(models.Event{Kind: models.EventPlanCreated})

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, models.EventPhaseChanged, snap[0].Kind)
	assert.Equal(t, models.EventPlanCreated, snap[1].Kind)
}

func TestSubscribeReceivesEventsAppendedAfterSubscribing(t *testing.T) {
	s := New("task-1", 0)
	ch := s.Subscribe()

	s.Append(models.Event{Kind: models.EventIterationStarted})

	select {
	case e := <-ch:
		assert.Equal(t, models.EventIterationStarted, e.Kind)
	default:
		t.Fatal("expected event on subscriber channel")
	}
}

func TestMultipleSubscribersReceiveSameTotalOrder(t *testing.T) {
	s := New("task-1", 0)
	chA := s.Subscribe()
	chB := s.Subscribe()

	s.Append(models.Event{Kind: models.EventPhaseChanged})
	s.Append(models.Event{Kind: models.EventPlanCreated})

	for _, ch := range []<-chan models.Event{chA, chB} {
		e1 := <-ch
		e2 := <-ch
		assert.Equal(t, models.EventPhaseChanged, e1.Kind)
		assert.Equal(t, models.EventPlanCreated, e2.Kind)
	}
}

func TestOverflowingSubscriberIsDroppedWithLaggedEvent(t *testing.T) {
	s := New("task-1", 1)
	ch := s.Subscribe()

	// Fill the one-slot buffer, then push it over: the subscriber should
	// be dropped and receive a terminal subscriber_lagged event instead
	// of blocking the appender.
	s.Append(models.Event{Kind: models.EventIterationStarted})
	s.Append(models.Event{Kind: models.EventIterationStarted})

	first := <-ch
	assert.Equal(t, models.EventIterationStarted, first.Kind)

	second, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, models.EventSubscriberLagged, second.Kind)

	_, stillOpen := <-ch
	assert.False(t, stillOpen)
}

func TestCloseDisconnectsSubscribersAndStopsAccepting(t *testing.T) {
	s := New("task-1", 0)
	ch := s.Subscribe()
	s.Close()

	_, ok := <-ch
	assert.False(t, ok)

	seqBefore := s.Append(models.Event{Kind: models.EventTaskCompleted})
	assert.Equal(t, uint64(0), seqBefore)
	assert.Empty(t, s.Snapshot())
}

func TestSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	s := New("task-1", 0)
	s.Close()
	ch := s.Subscribe()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestDefaultBufferSizeAppliedWhenNonPositive(t *testing.T) {
	s := New("task-1", 0)
	assert.Equal(t, DefaultSubscriberBuffer, s.bufferSize)
}

func TestRegistryOpenGetAndClose(t *testing.T) {
	r := NewRegistry()
	s := r.Open("task-1", 0)
	got, ok := r.Get("task-1")
	assert.True(t, ok)
	assert.Same(t, s, got)

	r.Close("task-1")
	_, ok = r.Get("task-1")
	assert.False(t, ok)
}

func TestRegistryGetMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}
