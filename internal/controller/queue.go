package controller

import (
	"sync"
	"time"
)

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 60 * time.Second
)

type queued struct {
	key     string
	readyAt time.Time
}

// WorkQueue hands resource keys to a worker with exponential retry
// backoff. A key added while it is being processed is marked dirty and
// requeued on Done, so no event is lost mid-reconcile. Failure counts
// survive the Get/Fail cycle and reset only on a successful Done.
type WorkQueue struct {
	mu         sync.Mutex
	pending    []queued
	dirty      map[string]bool
	processing map[string]bool
	attempts   map[string]int
	wake       chan struct{}
	closed     bool
}

// NewWorkQueue creates an empty queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{
		dirty:      make(map[string]bool),
		processing: make(map[string]bool),
		attempts:   make(map[string]int),
		wake:       make(chan struct{}, 1),
	}
}

// Add enqueues a key for processing. Duplicate adds collapse into one
// pending entry; adds during processing defer to Done.
func (q *WorkQueue) Add(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.dirty[key] = true
	if q.processing[key] {
		return
	}
	for _, item := range q.pending {
		if item.key == key {
			return
		}
	}

	q.pending = append(q.pending, queued{key: key})
	q.signal()
}

// Get blocks until a key is ready (its backoff has elapsed) or the
// queue is closed. The second return is false once the queue is closed
// and drained.
func (q *WorkQueue) Get() (string, bool) {
	for {
		q.mu.Lock()
		if q.closed && len(q.pending) == 0 {
			q.mu.Unlock()
			return "", false
		}

		now := time.Now()
		for i, item := range q.pending {
			if !item.readyAt.After(now) {
				q.pending = append(q.pending[:i], q.pending[i+1:]...)
				delete(q.dirty, item.key)
				q.processing[item.key] = true
				q.mu.Unlock()
				return item.key, true
			}
		}

		wait := time.Duration(0)
		if len(q.pending) > 0 {
			next := q.pending[0].readyAt
			for _, item := range q.pending[1:] {
				if item.readyAt.Before(next) {
					next = item.readyAt
				}
			}
			wait = time.Until(next)
		}
		q.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-q.wake:
				timer.Stop()
			case <-timer.C:
			}
		} else {
			<-q.wake
		}
	}
}

// Done finishes processing a key, requeueing it if a new event arrived
// while the worker held it.
func (q *WorkQueue) Done(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, key)
	delete(q.attempts, key)
	if q.dirty[key] && !q.closed {
		delete(q.dirty, key)
		q.pending = append(q.pending, queued{key: key})
		q.signal()
	}
}

// Fail requeues a key after a reconcile error, doubling the delay each
// consecutive failure up to retryMaxDelay.
func (q *WorkQueue) Fail(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.attempts[key]++

	delete(q.processing, key)
	q.dirty[key] = true
	for i, item := range q.pending {
		if item.key == key {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	q.pending = append(q.pending, queued{
		key:     key,
		readyAt: time.Now().Add(backoffDelay(q.attempts[key])),
	})
	q.signal()
}

// backoffDelay returns the retry delay for the nth consecutive failure.
func backoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	// 1<<6 seconds already exceeds the cap; avoid shifting further.
	if attempts > 7 {
		return retryMaxDelay
	}
	delay := retryBaseDelay << (attempts - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// Len reports the number of pending keys.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close shuts the queue down and unblocks Get.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.wake)
}

func (q *WorkQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
