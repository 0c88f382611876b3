package queue

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type traceItem struct {
	Data string
}

func TestLockFreeQueue(t *testing.T) {
	assert := assert.New(t)
	t.Run("Empty Queue", func(t *testing.T) {
		q := NewLockFreeQueue[*traceItem]()

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())

		item, ok := q.Dequeue()
		assert.False(ok)
		assert.Nil(item)

		item, ok = q.Peek()
		assert.False(ok)
		assert.Nil(item)
	})

	t.Run("Enqueue and Dequeue", func(t *testing.T) {
		q := NewLockFreeQueue[*traceItem]()

		item1 := &traceItem{"data1"}
		q.Enqueue(item1)
		assert.False(q.IsEmpty())
		assert.Equal(1, q.Length())

		item2 := &traceItem{"data2"}
		q.Enqueue(item2)
		assert.Equal(2, q.Length())

		dequeuedItem1, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal(item1, dequeuedItem1)
		assert.Equal(1, q.Length())

		dequeuedItem2, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal(item2, dequeuedItem2)
		assert.True(q.IsEmpty())

		dequeuedItem3, ok := q.Dequeue()
		assert.False(ok)
		assert.Nil(dequeuedItem3)
		assert.True(q.IsEmpty())
	})

	t.Run("Peek", func(t *testing.T) {
		q := NewLockFreeQueue[*traceItem]()

		item1 := &traceItem{"data1"}
		item2 := &traceItem{"data2"}
		q.Enqueue(item1)

		peeked, ok := q.Peek()
		assert.True(ok)
		assert.Equal(item1, peeked)
		assert.Equal(1, q.Length()) // Length should not change after peek

		q.Enqueue(item2)

		peeked, ok = q.Peek()
		assert.True(ok)
		assert.Equal(item1, peeked)
		assert.Equal(2, q.Length())

		q.Dequeue()
		peeked, ok = q.Peek()
		assert.True(ok)
		assert.Equal(item2, peeked)
		assert.Equal(1, q.Length())

		q.Dequeue()
		_, ok = q.Peek()
		assert.False(ok)
		assert.Equal(0, q.Length())
	})

	t.Run("Concurrency", func(t *testing.T) {
		q := NewLockFreeQueue[*traceItem]()

		var wg sync.WaitGroup
		for i := 0; i < 1000; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				q.Enqueue(&traceItem{strconv.Itoa(i)})
			}(i)
		}
		wg.Wait()

		assert.Equal(1000, q.Length())

		wg.Add(1000)
		for i := 0; i < 1000; i++ {
			go func() {
				defer wg.Done()
				q.Dequeue()
			}()
		}
		wg.Wait()

		assert.True(q.IsEmpty())
	})
}
