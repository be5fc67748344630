package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext_Unique(t *testing.T) {
	g := New()
	seen := make(map[uint64]struct{})
	for i := 0; i < 10000; i++ {
		id := g.Next()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestNext_ConcurrentUnique(t *testing.T) {
	g := New()
	const workers = 32
	const perWorker = 1000

	results := make([][]uint64, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(idx int) {
			defer wg.Done()
			ids := make([]uint64, perWorker)
			for i := range ids {
				ids[i] = g.Next()
			}
			results[idx] = ids
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, workers*perWorker)
	for _, ids := range results {
		for _, id := range ids {
			_, dup := seen[id]
			assert.False(t, dup, "duplicate id %d across workers", id)
			seen[id] = struct{}{}
		}
	}
}
