package services

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("user:objective")
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Errorf("expected serialized access, saw %d concurrent holders", maxInside.Load())
	}
	if k.size() != 0 {
		t.Errorf("expected released locks to be removed, %d remain", k.size())
	}

	t.Run("distinct_keys_do_not_block", func(t *testing.T) {
		unlockA := k.Lock("a")
		unlockB := k.Lock("b")
		unlockB()
		unlockA()
	})
}
