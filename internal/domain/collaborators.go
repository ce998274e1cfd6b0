package domain

import (
	"context"
	"time"
)

// Catalog is the read-mostly external collaborator that resolves library
// items to media facts and sequences. The core never mutates it (spec §5).
type Catalog interface {
	// MediaFacts returns the source facts for partID, as needed by the
	// Stream Planner.
	MediaFacts(ctx context.Context, partID string) (SourceFacts, error)

	// ItemParts returns the playable media part ids for a library item
	// (a season episode has one; a multi-part movie may have several).
	ItemParts(ctx context.Context, itemID string) ([]string, error)

	// ResolveSeed expands a seed into the ordered item id sequence it
	// names. totalCount is UnknownTotal when the size can't be known
	// without resolving it fully (spec §4.D).
	ResolveSeed(ctx context.Context, seed Seed, offset, limit int) (items []string, totalCount int, err error)

	// ItemView returns the display fields chunk() needs for one item.
	ItemView(ctx context.Context, itemID string) (PlaylistItemView, error)
}

// EventKind enumerates the events the core publishes for external
// collaborators (spec §1 "event publisher for progress and invalidation").
type EventKind string

const (
	EventProgress      EventKind = "progress"
	EventSessionEnded  EventKind = "session_ended"
	EventSegmentReady  EventKind = "segment_ready"
	EventInvalidated   EventKind = "invalidated"
)

// Event is one notification published by the core. Payload is kind-
// specific and left opaque to the publisher.
type Event struct {
	Kind    EventKind
	Payload map[string]any
}

// Publisher delivers events to external collaborators (e.g. real-time
// cache invalidation, progress reporting to the catalog). The core treats
// delivery as fire-and-forget: a publish failure is logged, never
// propagated to the caller of the operation that triggered it.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Clock abstracts time so session expiry and job activity windows are
// testable without sleeping.
type Clock interface {
	Now() time.Time
}
