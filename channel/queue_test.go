package channel

import "testing"

func TestBoundedQueueTryPushFullThenDisconnected(t *testing.T) {
	q := newBoundedQueue[int](2)
	if status := q.tryPush(1); status != pushOK {
		t.Fatalf("got %v, want pushOK", status)
	}
	if status := q.tryPush(2); status != pushOK {
		t.Fatalf("got %v, want pushOK", status)
	}
	if status := q.tryPush(3); status != pushFull {
		t.Fatalf("got %v, want pushFull", status)
	}

	if v, status := q.tryPop(); status != popOK || v != 1 {
		t.Fatalf("got (%v, %v), want (1, popOK)", v, status)
	}

	q.close()
	if status := q.tryPush(4); status != pushDisconnected {
		t.Fatalf("got %v, want pushDisconnected", status)
	}
	if _, status := q.tryPop(); status != popOK {
		t.Fatalf("got %v, want popOK draining the remaining buffered value", status)
	}
	if _, status := q.tryPop(); status != popDisconnected {
		t.Fatalf("got %v, want popDisconnected once drained", status)
	}
}

func TestUnboundedQueueGrowsAndDisconnects(t *testing.T) {
	q := newUnboundedQueue[int]()
	for i := 0; i < 100; i++ {
		if status := q.tryPush(i); status != pushOK {
			t.Fatalf("push %d: got %v, want pushOK", i, status)
		}
	}
	for i := 0; i < 100; i++ {
		v, status := q.tryPop()
		if status != popOK || v != i {
			t.Fatalf("pop %d: got (%v, %v)", i, v, status)
		}
	}
	if _, status := q.tryPop(); status != popEmpty {
		t.Fatalf("got %v, want popEmpty", status)
	}
	q.close()
	if _, status := q.tryPop(); status != popDisconnected {
		t.Fatalf("got %v, want popDisconnected", status)
	}
	if status := q.tryPush(1); status != pushDisconnected {
		t.Fatalf("got %v, want pushDisconnected", status)
	}
}

func TestUnboundedQueueBlockingPopUnblocksOnPushAndClose(t *testing.T) {
	q := newUnboundedQueue[int]()
	done := make(chan int, 1)
	go func() {
		v, ok := q.pop()
		if !ok {
			done <- -1
			return
		}
		done <- v
	}()

	q.tryPush(42)
	if got := <-done; got != 42 {
		t.Fatalf("got %d, want 42", got)
	}

	go func() {
		_, ok := q.pop()
		if ok {
			done <- 1
			return
		}
		done <- 0
	}()
	q.close()
	if got := <-done; got != 0 {
		t.Fatalf("expected pop to report closed after Close, got %d", got)
	}
}
