// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		q.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueFlushWaitsForEarlierTasks(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	ran := false
	q.Post(func() { ran = true })
	q.Flush()
	assert.True(t, ran)
}

func TestQueueCloseDrains(t *testing.T) {
	q := NewQueue()

	count := 0
	for i := 0; i < 10; i++ {
		q.Post(func() { count++ })
	}
	q.Close()
	assert.Equal(t, 10, count)

	// posting after close is a silent no-op
	q.Post(func() { count++ })
	assert.Equal(t, 10, count)

	// closing again is safe
	q.Close()
	q.Flush()
}

func TestQueuePostFromManyGoroutines(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Post(func() {
				mu.Lock()
				seen[i] = true
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 50)
}
