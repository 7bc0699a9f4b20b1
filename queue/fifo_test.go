// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFIFORoundTrip covers scenario S5 from the specification: enqueue
// packets with send times 1,2,3; peek; dequeue three times; dequeue once
// more.
func TestFIFORoundTrip(t *testing.T) {
	q := New[int]()
	require.Equal(t, 0, q.Len())

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)
	require.Equal(t, 3, q.Len())

	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	for _, want := range []int{1, 2, 3} {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}

	_, ok = q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())

	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestFIFOEmptyAfterDrain(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	q.Dequeue()
	assert.Equal(t, 0, q.Len())
	// Enqueue again to ensure head/tail were properly reset to nil.
	q.Enqueue("b")
	v, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

// TestFIFOReuse exercises the free-list reuse path across many cycles,
// which is where a stale handle or unreset next pointer would surface.
func TestFIFOReuse(t *testing.T) {
	q := New[int]()
	for round := 0; round < 100; round++ {
		for i := 0; i < 5; i++ {
			q.Enqueue(i)
		}
		for i := 0; i < 5; i++ {
			v, ok := q.Dequeue()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
	}
	assert.Equal(t, 0, q.Len())
}

func TestFIFOMoveBetweenQueues(t *testing.T) {
	a := New[int]()
	b := New[int]()
	a.Enqueue(42)
	v, ok := a.Dequeue()
	require.True(t, ok)
	b.Enqueue(v)
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 1, b.Len())
}
