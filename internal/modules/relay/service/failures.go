package service

import (
	"maps"
	"sync"
)

// failureTracker counts consecutive delivery failures per pair.
type failureTracker struct {
	threshold int

	mu     sync.Mutex
	counts map[int64]int
}

func newFailureTracker(threshold int) *failureTracker {
	if threshold < 1 {
		threshold = 1
	}
	return &failureTracker{threshold: threshold, counts: make(map[int64]int)}
}

// fail adds one failure. tripped is true for exactly one caller each time the
// count reaches the threshold; the count then starts over.
func (f *failureTracker) fail(pairID int64) (count int, tripped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counts[pairID]++
	count = f.counts[pairID]
	if count >= f.threshold {
		delete(f.counts, pairID)
		return count, true
	}
	return count, false
}

func (f *failureTracker) succeed(pairID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, pairID)
}

func (f *failureTracker) snapshot() map[int64]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.counts)
}
