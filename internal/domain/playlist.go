package domain

import "time"

// SeedType enumerates the kinds of playlist seed a generator can be built
// from (spec §4.D).
type SeedType string

const (
	SeedSingle     SeedType = "single"
	SeedAlbum      SeedType = "album"
	SeedSeason     SeedType = "season"
	SeedShow       SeedType = "show"
	SeedArtist     SeedType = "artist"
	SeedLibrary    SeedType = "library"
	SeedExplicit   SeedType = "explicit"
	SeedCollection SeedType = "collection"
	SeedFilter     SeedType = "filter"
)

// Seed describes how to resolve the initial ordered sequence of items for
// a playlist generator. Resolution happens once, at generator creation
// time; the sequence is a snapshot (spec §4.D "Resolution").
type Seed struct {
	Type          SeedType
	OriginatorID  string   // container item id, for album/season/show/artist
	ExplicitIDs   []string // for SeedExplicit
	LibrarySection string  // for SeedLibrary
	Filter        string   // raw filter+sort expression, for SeedFilter
	StartIndex    int
	Shuffle       bool
	Repeat        bool
}

// UnknownTotal is the sentinel used for PlaylistGenerator.TotalCount when
// the size of a lazily-resolved sequence isn't known up front. Per the
// spec's Open Question resolution, it means "unknown, may grow": next()
// past the edge of what's materialized triggers another chunk fetch
// rather than ending the playlist.
const UnknownTotal = -1

const DefaultChunkSize = 100

// PlaylistGenerator is the 1:1 cursor bound to a session (spec §4.D).
type PlaylistGenerator struct {
	ID         string
	SessionID  string
	Seed       Seed
	Cursor     int
	TotalCount int
	ChunkSize  int
	Shuffle    bool
	Repeat     bool

	// PermutationSeed drives the shuffle permutation so reloading the
	// generator reproduces the same shuffled order.
	PermutationSeed int64

	ExpiresAt time.Time
}

// PlaylistGeneratorItem is one position in the generator's (pre-shuffle)
// sort order (spec §4.D).
type PlaylistGeneratorItem struct {
	GeneratorID   string
	SortOrder     int
	ItemID        string
	MediaItemID   string
	MediaPartID   string
	Served        bool
	Cohort        string
}

// PlaylistItemView is what chunk() returns to a caller per item.
type PlaylistItemView struct {
	Index       int // position in the permuted sequence
	ItemID      string
	Title       string
	ParentTitle string
	DurationMs  int64
	ThumbnailURL string
	PlaybackURL string // precomputed, only for items that never need transcoding (e.g. images)
}

// NavigateAction is what decide() tells the client to do next (spec §4.E,
// §6).
type NavigateAction string

const (
	ActionContinue NavigateAction = "continue"
	ActionStop     NavigateAction = "stop"
	ActionPrompt   NavigateAction = "prompt"
	ActionRefresh  NavigateAction = "refresh"
)
