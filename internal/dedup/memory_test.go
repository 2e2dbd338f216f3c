package dedup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestMemory_FreshThenDuplicate(t *testing.T) {
	g := NewMemory(10, zap.NewNop())
	ctx := context.Background()

	fresh, err := g.CheckAndRecord(ctx, "m1")
	if err != nil || !fresh {
		t.Fatalf("first check: fresh=%v err=%v", fresh, err)
	}
	fresh, err = g.CheckAndRecord(ctx, "m1")
	if err != nil || fresh {
		t.Fatalf("second check: fresh=%v err=%v", fresh, err)
	}
}

func TestMemory_BulkClearAtCapacity(t *testing.T) {
	const capacity = 5
	g := NewMemory(capacity, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < capacity*3; i++ {
		id := fmt.Sprintf("m%d", i)
		if fresh, _ := g.CheckAndRecord(ctx, id); !fresh {
			t.Fatalf("distinct id %s classified duplicate", id)
		}
		if n := g.Len(); n > capacity {
			t.Fatalf("set size %d exceeds capacity %d", n, capacity)
		}
	}

	// m0 was wiped by a bulk clear, so it is fresh again.
	if fresh, _ := g.CheckAndRecord(ctx, "m0"); !fresh {
		t.Fatalf("expected m0 fresh after bulk clear")
	}
}

func TestMemory_ConcurrentSameID(t *testing.T) {
	g := NewMemory(100, zap.NewNop())
	ctx := context.Background()

	const workers = 32
	var freshCount int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if fresh, _ := g.CheckAndRecord(ctx, "same"); fresh {
				atomic.AddInt32(&freshCount, 1)
			}
		}()
	}
	wg.Wait()

	if freshCount != 1 {
		t.Fatalf("expected exactly one fresh verdict, got %d", freshCount)
	}
}
