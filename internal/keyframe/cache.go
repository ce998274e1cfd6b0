package keyframe

import (
	"context"
	"sync"
)

// Source produces the raw keyframe timestamps (seconds) for a source media
// URL. internal/probe.Prober satisfies this.
type Source interface {
	Keyframes(ctx context.Context, sourceURL string) ([]float64, error)
}

// Cache memoizes one Index per media part so repeated seek/manifest/segment
// calls for the same part don't re-probe the source file. Probing is the
// only expensive step here; the Index itself is a plain sorted slice.
type Cache struct {
	source Source

	mu      sync.Mutex
	entries map[string]Index
}

func NewCache(source Source) *Cache {
	return &Cache{source: source, entries: make(map[string]Index)}
}

// Get returns the cached Index for partID, probing sourceURL on first use.
func (c *Cache) Get(ctx context.Context, partID, sourceURL string) (Index, error) {
	c.mu.Lock()
	if idx, ok := c.entries[partID]; ok {
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	timestamps, err := c.source.Keyframes(ctx, sourceURL)
	if err != nil {
		return Index{}, err
	}
	idx := NewIndex(timestamps)

	c.mu.Lock()
	c.entries[partID] = idx
	c.mu.Unlock()
	return idx, nil
}

// Invalidate drops the cached Index for partID, e.g. when the catalog
// signals the underlying file changed.
func (c *Cache) Invalidate(partID string) {
	c.mu.Lock()
	delete(c.entries, partID)
	c.mu.Unlock()
}
