package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolPreWarmsAndReuses(t *testing.T) {
	provider := &fakeProvider{}
	client := New(provider, DefaultConfig(), nil)
	pool := NewPool(context.Background(), client, 2, 4, nil)

	assert.Equal(t, 2, pool.Size())

	handle, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Size())

	pool.Release(context.Background(), handle)
	assert.Equal(t, 2, pool.Size())
}

func TestPoolAcquireCreatesOnDemandWhenEmpty(t *testing.T) {
	provider := &fakeProvider{}
	client := New(provider, DefaultConfig(), nil)
	pool := NewPool(context.Background(), client, 0, 2, nil)

	handle, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, handle)
}

func TestPoolCloseDestroysWarmHandles(t *testing.T) {
	provider := &fakeProvider{}
	client := New(provider, DefaultConfig(), nil)
	pool := NewPool(context.Background(), client, 2, 2, nil)

	require.NoError(t, pool.Close(context.Background()))

	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
