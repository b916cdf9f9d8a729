package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemorySerializesSameKey(t *testing.T) {
	m := NewMemory()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), DocumentKey("a"))
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxInside.Load())
	}
	if m.size() != 0 {
		t.Fatalf("expected lock table to be empty, has %d entries", m.size())
	}
}

func TestMemoryDistinctKeysDoNotBlock(t *testing.T) {
	m := NewMemory()
	unlockA, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock b should not wait for a: %v", err)
	}
	unlockB()
}

func TestMemoryLockHonorsContext(t *testing.T) {
	m := NewMemory()
	unlock, _ := m.Lock(context.Background(), "a")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock()
	if m.size() != 0 {
		t.Fatalf("expected cleanup after cancelled waiter")
	}
}
