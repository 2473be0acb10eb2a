package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue[int](4)
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 3, q.Size())

	item, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 1, item)

	assert.Equal(t, []int{2, 3}, q.ReadAllMessages())
	assert.Equal(t, 0, q.Size())

	_, ok = q.Dequeue()
	assert.False(t, ok)
	assert.Nil(t, q.ReadAllMessages())
}

func TestInMemoryQueue_Full(t *testing.T) {
	q := NewInMemoryQueue[string](2)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.ErrorIs(t, q.Enqueue("c"), ErrQueueFull)

	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
	assert.NoError(t, q.Enqueue("c"))
}

func TestInMemoryQueue_DefaultSize(t *testing.T) {
	q := NewInMemoryQueue[int](0)
	assert.Equal(t, QueueBufferSize, cap(q.ch))
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue[int](1000)
	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = q.Enqueue(i)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.ReadAllMessages(), 1000)
}
