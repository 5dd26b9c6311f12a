package pool

import (
	"slices"
	"sync"
	"time"

	"github.com/mindplus/offloader/models"
)

type pendingResult struct {
	result     models.RenderResult
	producedAt time.Time
}

// Results holds finished render results until the host claims them.
type Results struct {
	mu      sync.Mutex
	entries map[string]pendingResult
}

func NewResults() *Results {
	return &Results{entries: make(map[string]pendingResult)}
}

// Put stores a result, replacing any earlier result for the same chunk.
func (r *Results) Put(result models.RenderResult, producedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[result.Key()] = pendingResult{result: result, producedAt: producedAt}
}

// Take removes and returns the result for key.
func (r *Results) Take(key string) (models.RenderResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return models.RenderResult{}, false
	}

	delete(r.entries, key)

	return entry.result, true
}

func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Sweep evicts results older than ttl, then trims the oldest until at most
// highWater remain. It returns the number of evicted results.
func (r *Results) Sweep(now time.Time, ttl time.Duration, highWater int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0

	if ttl > 0 {
		for key, entry := range r.entries {
			if now.Sub(entry.producedAt) > ttl {
				delete(r.entries, key)
				evicted++
			}
		}
	}

	if highWater < 0 || len(r.entries) <= highWater {
		return evicted
	}

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b string) int {
		return r.entries[a].producedAt.Compare(r.entries[b].producedAt)
	})

	for _, key := range keys[:len(keys)-highWater] {
		delete(r.entries, key)
		evicted++
	}

	return evicted
}
