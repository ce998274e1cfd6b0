package playlist

import "math/rand"

// Permutation is a deterministic shuffle of the index space [0, n) driven by
// a persisted seed, so reloading a generator reproduces the same shuffled
// order (spec §4.D "Shuffle"). It maps permuted position -> underlying
// (pre-shuffle) sort order and back.
type Permutation struct {
	order []int // order[pos] = underlying index shown at pos
	inv   []int // inv[underlying] = pos that shows underlying
}

// NewPermutation builds a Fisher-Yates shuffle of [0, n) seeded
// deterministically so the same seed always yields the same order.
func NewPermutation(seed int64, n int) *Permutation {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	r := rand.New(rand.NewSource(seed))
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	inv := make([]int, n)
	for pos, underlying := range order {
		inv[underlying] = pos
	}
	return &Permutation{order: order, inv: inv}
}

// Len reports the size of the permuted index space.
func (p *Permutation) Len() int { return len(p.order) }

// At returns the underlying index shown at permuted position pos.
func (p *Permutation) At(pos int) int {
	if pos < 0 || pos >= len(p.order) {
		return pos
	}
	return p.order[pos]
}

// PositionOf returns the permuted position that currently shows underlying.
func (p *Permutation) PositionOf(underlying int) int {
	if underlying < 0 || underlying >= len(p.inv) {
		return underlying
	}
	return p.inv[underlying]
}

// Anchor swaps whichever position currently shows underlying with pos, so
// that after the call p.At(pos) == underlying. Used when shuffle is toggled
// on mid-playback: the permutation is rebuilt fresh, then anchored so the
// item already on screen doesn't jump (spec §4.D, §8 "shuffle toggle
// stability").
func (p *Permutation) Anchor(pos, underlying int) {
	if pos < 0 || pos >= len(p.order) || underlying < 0 || underlying >= len(p.inv) {
		return
	}
	cur := p.inv[underlying]
	other := p.order[pos]
	p.order[pos], p.order[cur] = p.order[cur], p.order[pos]
	p.inv[underlying], p.inv[other] = pos, cur
}

// Grow extends the permutation to cover a larger index space, appending the
// new indices in natural order at the tail of the shuffled sequence. Used
// when a lazily-resolved, previously-unknown-total seed grows past what was
// permuted so far.
func (p *Permutation) Grow(n int) {
	for i := len(p.order); i < n; i++ {
		p.order = append(p.order, i)
		p.inv = append(p.inv, i)
	}
}
