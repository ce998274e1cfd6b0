// Package playlist implements the Playlist Generator (Component D): a
// seed-driven cursor over an ordered, shuffleable, repeatable sequence of
// library items, chunked for UI paging (spec §4.D). Seed expansion itself
// (what a "season" or "filter" seed actually names) is the catalog's job —
// this package only owns cursor position, permutation, lazy chunk
// materialization, and paging over whatever the catalog resolves.
package playlist

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nx-media/playcore/internal/domain"
)

// Cursor is the runtime state bound to one PlaylistGenerator record: the
// lazily-resolved item window, the shuffle permutation (if any), and the
// navigation operations spec §4.D and §4.E§6 describe. A Cursor is not
// safe for concurrent use by itself — callers (the session orchestrator)
// serialize access per the owning session's lock (spec §5); the internal
// mutex here only protects against the rare case of two goroutines sharing
// one Cursor value directly (e.g. tests).
type Cursor struct {
	mu      sync.Mutex
	gen     domain.PlaylistGenerator
	catalog domain.Catalog

	items    map[int]string // sortOrder -> itemID, populated lazily
	resolved int            // count of contiguous sortOrder positions resolved so far
	perm     *Permutation    // nil when shuffle is off
}

// NewCursor wraps an existing (possibly freshly created, possibly reloaded
// from the store) generator record with the catalog it resolves items
// against.
func NewCursor(gen domain.PlaylistGenerator, catalog domain.Catalog) *Cursor {
	c := &Cursor{
		gen:     gen,
		catalog: catalog,
		items:   make(map[int]string),
	}
	if gen.Shuffle {
		c.rebuildPermutationLocked()
	}
	return c
}

// Record returns a snapshot of the persisted generator fields, for the
// caller to write back to the store after a mutating operation.
func (c *Cursor) Record() domain.PlaylistGenerator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Create resolves a brand-new generator from seed, eagerly fetching its
// first chunk so Current/Chunk(0, n) don't block on first use.
func Create(ctx context.Context, sessionID string, seed domain.Seed, catalog domain.Catalog, permutationSeed int64) (*Cursor, error) {
	gen := domain.PlaylistGenerator{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		Seed:            seed,
		Cursor:          seed.StartIndex,
		TotalCount:      domain.UnknownTotal,
		ChunkSize:       domain.DefaultChunkSize,
		Shuffle:         seed.Shuffle,
		Repeat:          seed.Repeat,
		PermutationSeed: permutationSeed,
	}
	c := NewCursor(gen, catalog)
	if err := c.ensureResolved(ctx, gen.Cursor); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) rebuildPermutationLocked() {
	n := c.gen.TotalCount
	if n < 0 {
		n = c.resolved
	}
	c.perm = NewPermutation(c.gen.PermutationSeed, n)
}

// underlyingLocked maps a cursor/permuted position to the underlying
// (catalog) sort order index.
func (c *Cursor) underlyingLocked(pos int) int {
	if c.perm == nil {
		return pos
	}
	if pos >= c.perm.Len() {
		c.perm.Grow(pos + 1)
	}
	return c.perm.At(pos)
}

// ensureResolved fetches chunks from the catalog until sortOrder position
// upTo is resolved (or the catalog reports it has nothing more). Bounded
// seeds resolve their total count on first chunk fetch; unbounded ones
// (spec's UnknownTotal) keep fetching forward chunks as the cursor
// approaches the edge of what's materialized.
func (c *Cursor) ensureResolved(ctx context.Context, upTo int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureResolvedLocked(ctx, upTo)
}

func (c *Cursor) ensureResolvedLocked(ctx context.Context, upTo int) error {
	for {
		if c.gen.TotalCount >= 0 && c.resolved >= c.gen.TotalCount {
			return nil
		}
		if upTo < c.resolved {
			return nil
		}
		limit := c.gen.ChunkSize
		if limit <= 0 {
			limit = domain.DefaultChunkSize
		}
		ids, total, err := c.catalog.ResolveSeed(ctx, c.gen.Seed, c.resolved, limit)
		if err != nil {
			return err
		}
		c.gen.TotalCount = total
		for i, id := range ids {
			c.items[c.resolved+i] = id
		}
		c.resolved += len(ids)
		if c.perm != nil && c.gen.TotalCount < 0 {
			c.perm.Grow(c.resolved)
		}
		if len(ids) == 0 {
			// Catalog has nothing more to give; stop regardless of what upTo
			// asked for, or this loops forever for a seed whose resolution
			// genuinely ended without ever reporting a known total.
			if c.gen.TotalCount < 0 {
				c.gen.TotalCount = c.resolved
			}
			return nil
		}
		if c.resolved > upTo {
			return nil
		}
	}
}

// Current returns the item view at the cursor's current position.
func (c *Cursor) Current(ctx context.Context) (domain.PlaylistItemView, error) {
	c.mu.Lock()
	pos := c.gen.Cursor
	c.mu.Unlock()
	return c.viewAt(ctx, pos)
}

func (c *Cursor) viewAt(ctx context.Context, pos int) (domain.PlaylistItemView, error) {
	c.mu.Lock()
	underlying := c.underlyingLocked(pos)
	if err := c.ensureResolvedLocked(ctx, underlying); err != nil {
		c.mu.Unlock()
		return domain.PlaylistItemView{}, err
	}
	itemID, ok := c.items[underlying]
	c.mu.Unlock()
	if !ok {
		return domain.PlaylistItemView{}, domain.NotFound("playlist: position past end of generator")
	}
	view, err := c.catalog.ItemView(ctx, itemID)
	if err != nil {
		return domain.PlaylistItemView{}, err
	}
	view.Index = pos
	view.ItemID = itemID
	return view, nil
}

// itemIDAt is like viewAt but skips the catalog display-field lookup, for
// callers (the orchestrator) that only need the id to fetch media facts.
func (c *Cursor) itemIDAt(ctx context.Context, pos int) (string, bool, error) {
	c.mu.Lock()
	underlying := c.underlyingLocked(pos)
	if err := c.ensureResolvedLocked(ctx, underlying); err != nil {
		c.mu.Unlock()
		return "", false, err
	}
	itemID, ok := c.items[underlying]
	c.mu.Unlock()
	return itemID, ok, nil
}

// CurrentItemID is the cheap counterpart of Current for callers (the
// orchestrator's planning path) that just need the bound library item id.
func (c *Cursor) CurrentItemID(ctx context.Context) (string, bool, error) {
	c.mu.Lock()
	pos := c.gen.Cursor
	c.mu.Unlock()
	return c.itemIDAt(ctx, pos)
}

// Next advances the cursor by one permuted position (spec §4.D
// "Navigation"). At the end: Ended when repeat is off, wraps to 0 when
// repeat is on. For a still-growing (UnknownTotal) generator, running past
// what's resolved so far triggers another chunk fetch before deciding
// whether the sequence has actually ended (spec §9 Open Questions).
func (c *Cursor) Next(ctx context.Context) (domain.NavigateAction, *domain.PlaylistItemView, error) {
	return c.step(ctx, 1)
}

// Previous steps the cursor back by one permuted position.
func (c *Cursor) Previous(ctx context.Context) (domain.NavigateAction, *domain.PlaylistItemView, error) {
	return c.step(ctx, -1)
}

func (c *Cursor) step(ctx context.Context, delta int) (domain.NavigateAction, *domain.PlaylistItemView, error) {
	c.mu.Lock()
	next := c.gen.Cursor + delta

	if next < 0 {
		if c.gen.Repeat {
			total := c.gen.TotalCount
			if total < 0 {
				total = c.resolved
			}
			if total == 0 {
				c.mu.Unlock()
				return domain.ActionStop, nil, nil
			}
			next = total - 1
		} else {
			c.mu.Unlock()
			return domain.ActionStop, nil, nil
		}
	}

	if c.gen.TotalCount >= 0 {
		if next >= c.gen.TotalCount {
			if !c.gen.Repeat {
				c.mu.Unlock()
				return domain.ActionStop, nil, nil
			}
			next = 0
		}
	} else {
		underlying := c.underlyingLocked(next)
		if err := c.ensureResolvedLocked(ctx, underlying); err != nil {
			c.mu.Unlock()
			return "", nil, err
		}
		if _, ok := c.items[underlying]; !ok {
			// The catalog has genuinely run out: TotalCount was set to the
			// resolved count inside ensureResolvedLocked.
			if !c.gen.Repeat {
				c.mu.Unlock()
				return domain.ActionStop, nil, nil
			}
			next = 0
		}
	}

	c.gen.Cursor = next
	c.mu.Unlock()

	view, err := c.viewAt(ctx, next)
	if err != nil {
		return "", nil, err
	}
	return domain.ActionContinue, &view, nil
}

// Jump sets the cursor to an absolute permuted position (spec §4.D
// "jump(index) sets cursor absolute").
func (c *Cursor) Jump(ctx context.Context, index int) (domain.PlaylistItemView, error) {
	if index < 0 {
		return domain.PlaylistItemView{}, domain.InvalidInput("playlist: jump index must be non-negative")
	}
	c.mu.Lock()
	if c.gen.TotalCount >= 0 && index >= c.gen.TotalCount {
		c.mu.Unlock()
		return domain.PlaylistItemView{}, domain.InvalidInput("playlist: jump index past end of generator")
	}
	c.mu.Unlock()

	view, err := c.viewAt(ctx, index)
	if err != nil {
		return domain.PlaylistItemView{}, err
	}
	c.mu.Lock()
	c.gen.Cursor = index
	c.mu.Unlock()
	return view, nil
}

// Chunk returns a contiguous window of the permuted sequence starting at
// startIndex, resolving further catalog chunks as needed (spec §4.D
// "chunk(startIndex, limit)").
func (c *Cursor) Chunk(ctx context.Context, startIndex, limit int) ([]domain.PlaylistItemView, int, bool, error) {
	if startIndex < 0 || limit <= 0 {
		return nil, 0, false, domain.InvalidInput("playlist: chunk bounds must be positive")
	}

	c.mu.Lock()
	if err := c.ensureResolvedLocked(ctx, c.underlyingLocked(startIndex+limit-1)); err != nil {
		c.mu.Unlock()
		return nil, 0, false, err
	}
	total := c.gen.TotalCount
	c.mu.Unlock()

	var out []domain.PlaylistItemView
	for pos := startIndex; pos < startIndex+limit; pos++ {
		if total >= 0 && pos >= total {
			break
		}
		view, err := c.viewAt(ctx, pos)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				break
			}
			return nil, 0, false, err
		}
		out = append(out, view)
	}

	hasMore := total < 0 || startIndex+len(out) < total
	return out, total, hasMore, nil
}

// SetShuffle toggles shuffle on or off, preserving the currently-playing
// item (spec §4.D "Toggling shuffle on an already-playing generator
// preserves the current item"; spec §8 "Shuffle toggle stability").
func (c *Cursor) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on == c.gen.Shuffle {
		return
	}
	if !on {
		if c.perm != nil {
			// Resolve the cursor to the underlying index the permutation
			// currently shows at that position before dropping the
			// permutation, so the same item keeps playing once shuffle is
			// off (spec §8 "Shuffle toggle stability" applies to the
			// off-direction too, not just toggling on).
			c.gen.Cursor = c.perm.At(c.gen.Cursor)
		}
		c.gen.Shuffle = false
		c.perm = nil
		return
	}

	underlyingCurrent := c.gen.Cursor
	if c.perm != nil {
		underlyingCurrent = c.perm.At(c.gen.Cursor)
	}

	c.gen.Shuffle = true
	c.rebuildPermutationLocked()
	c.perm.Anchor(c.gen.Cursor, underlyingCurrent)
}

// SetRepeat toggles whether Next wraps at the end instead of ending.
func (c *Cursor) SetRepeat(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Repeat = on
}
