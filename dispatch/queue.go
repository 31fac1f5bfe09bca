// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package dispatch provides the serial execution target callback events are
// delivered on. One Queue owns one goroutine; tasks posted from any number
// of goroutines run strictly in arrival order, never concurrently.
package dispatch

import "sync"

type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Post enqueues fn. The queue is unbounded: a post never blocks and never
// fails while the queue is open, so late events that race an unregister are
// still accepted (and dropped later by the consumer's own liveness check).
// Posting to a closed queue is a silent no-op.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, fn)
	q.cond.Signal()
}

// Flush blocks until every task posted before it has run. Returns
// immediately on a closed queue.
func (q *Queue) Flush() {
	ch := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.tasks = append(q.tasks, func() { close(ch) })
	q.cond.Signal()
	q.mu.Unlock()
	<-ch
}

// Close stops the queue after draining the tasks already posted. It blocks
// until the worker goroutine exits. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		fn()
	}
}
