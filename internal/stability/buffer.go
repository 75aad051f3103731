// Package stability debounces per-frame readings over a rolling window.
package stability

import (
	"sync"
)

const (
	// DefaultCapacity is the number of recent readings kept.
	DefaultCapacity = 30
	// DefaultThreshold is how many times a reading must recur, exclusive.
	DefaultThreshold = 10
)

// Buffer is a fixed-capacity ring of readings, newest first.
// All methods are safe for concurrent use; Reset is exclusive with respect
// to Push and Confirmed.
type Buffer struct {
	mu        sync.Mutex
	entries   []string
	head      int // Index of the newest entry
	size      int
	threshold int
}

// New creates a buffer holding at most capacity readings. A reading is
// confirmed once it has been seen more than threshold times.
func New(capacity, threshold int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Buffer{
		entries:   make([]string, capacity),
		threshold: threshold,
	}
}

// Push adds a reading to the front, evicting the oldest one when full.
func (b *Buffer) Push(reading string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = (b.head - 1 + len(b.entries)) % len(b.entries)
	b.entries[b.head] = reading
	if b.size < len(b.entries) {
		b.size++
	}
}

// Confirmed scans readings from newest to oldest and returns the first
// non-empty reading whose running count exceeds the threshold.
func (b *Buffer) Confirmed() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[string]int)
	for i := 0; i < b.size; i++ {
		r := b.entries[(b.head+i)%len(b.entries)]
		if r == "" {
			continue
		}
		counts[r]++
		if counts[r] > b.threshold {
			return r, true
		}
	}
	return "", false
}

// Reset drops all readings.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		b.entries[i] = ""
	}
	b.head = 0
	b.size = 0
}

// Len returns the number of readings held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the maximum number of readings held.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// Entries returns a copy of the readings, newest first.
func (b *Buffer) Entries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, b.size)
	for i := range out {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}
