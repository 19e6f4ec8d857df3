package controller

import (
	"testing"
	"time"
)

func TestQueueAddGetDone(t *testing.T) {
	q := NewWorkQueue()
	defer q.Close()

	q.Add("/Document/default/a")
	key, ok := q.Get()
	if !ok || key != "/Document/default/a" {
		t.Fatalf("Get() = %q, %v", key, ok)
	}
	q.Done(key)
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after Done, want 0", q.Len())
	}
}

func TestQueueCollapsesDuplicates(t *testing.T) {
	q := NewWorkQueue()
	defer q.Close()

	q.Add("/Task/default/x")
	q.Add("/Task/default/x")
	q.Add("/Task/default/x")
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
}

func TestQueueRequeuesWhenDirtiedDuringProcessing(t *testing.T) {
	q := NewWorkQueue()
	defer q.Close()

	q.Add("/Thread/default/t1")
	key, _ := q.Get()

	// Event arrives while the worker holds the key.
	q.Add(key)
	if q.Len() != 0 {
		t.Fatalf("dirtied key must not be pending while processing")
	}

	q.Done(key)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d after Done on dirtied key, want 1", q.Len())
	}
}

func TestQueueFailBacksOff(t *testing.T) {
	q := NewWorkQueue()
	defer q.Close()

	q.Add("/Document/default/a")
	key, _ := q.Get()
	q.Fail(key)

	// The key is pending but not ready until the backoff elapses.
	done := make(chan string, 1)
	go func() {
		k, _ := q.Get()
		done <- k
	}()

	select {
	case <-done:
		t.Fatal("Get returned before backoff elapsed")
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case k := <-done:
		if k != key {
			t.Fatalf("Get() = %q, want %q", k, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Get did not return after backoff")
	}
}

func TestQueueFailBackoffGrows(t *testing.T) {
	q := NewWorkQueue()
	defer q.Close()

	q.Add("/Thread/default/t1")

	wantDelays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range wantDelays {
		// Make the pending entry immediately ready so the test does not
		// wait out the previous backoff.
		q.mu.Lock()
		for j := range q.pending {
			q.pending[j].readyAt = time.Time{}
		}
		q.mu.Unlock()

		key, ok := q.Get()
		if !ok {
			t.Fatalf("failure %d: Get() not ok", i+1)
		}
		before := time.Now()
		q.Fail(key)

		q.mu.Lock()
		if len(q.pending) != 1 {
			q.mu.Unlock()
			t.Fatalf("failure %d: %d pending entries, want 1", i+1, len(q.pending))
		}
		got := q.pending[0].readyAt.Sub(before)
		q.mu.Unlock()

		if got < want-100*time.Millisecond || got > want+100*time.Millisecond {
			t.Fatalf("failure %d: backoff = %v, want ~%v", i+1, got, want)
		}
	}
}

func TestQueueDoneResetsBackoff(t *testing.T) {
	q := NewWorkQueue()
	defer q.Close()

	q.Add("/Document/default/a")
	key, _ := q.Get()
	q.Fail(key)

	q.mu.Lock()
	q.pending[0].readyAt = time.Time{}
	q.mu.Unlock()

	key, _ = q.Get()
	q.Done(key)

	// A later failure starts over at the base delay.
	q.Add(key)
	key, _ = q.Get()
	before := time.Now()
	q.Fail(key)

	q.mu.Lock()
	got := q.pending[0].readyAt.Sub(before)
	q.mu.Unlock()

	if got > retryBaseDelay+100*time.Millisecond {
		t.Fatalf("backoff after Done = %v, want ~%v", got, retryBaseDelay)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second},
		{40, 60 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempts); got != tc.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}

func TestQueueCloseUnblocksGet(t *testing.T) {
	q := NewWorkQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Get()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Get() returned ok from a closed queue")
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock on Close")
	}
}
