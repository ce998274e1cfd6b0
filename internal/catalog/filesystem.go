// Package catalog is a minimal, filesystem-backed implementation of
// domain.Catalog (and domain.Publisher/domain.Clock), so cmd/server has
// something concrete to run against. The catalog is spec §1's out-of-scope
// external collaborator; a real deployment supplies its own, backed by
// whatever library database it already has. This one exists to make the
// binary demonstrable end to end against a plain directory of media files,
// nothing more.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nx-media/playcore/internal/domain"
	xlog "github.com/nx-media/playcore/internal/log"
	"github.com/nx-media/playcore/internal/probe"
)

var mediaExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".m4v": true, ".webm": true, ".ts": true,
}

type entry struct {
	itemID string // == partID: this catalog has exactly one part per item
	path   string
	title  string
}

// Filesystem walks a directory tree once at construction and serves every
// media file it finds as a single-part library item. Facts are probed
// lazily, on first request, and cached for the process lifetime — good
// enough for a demo; a real catalog would probe at ingest time instead.
type Filesystem struct {
	root   string
	prober *probe.Prober
	log    zerolog.Logger

	mu      sync.RWMutex
	entries map[string]entry
	order   []string

	factsMu sync.Mutex
	facts   map[string]domain.SourceFacts
}

func NewFilesystem(root string, prober *probe.Prober) (*Filesystem, error) {
	f := &Filesystem{
		root:    root,
		prober:  prober,
		log:     xlog.With("catalog"),
		entries: make(map[string]entry),
		facts:   make(map[string]domain.SourceFacts),
	}
	if err := f.scan(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filesystem) scan() error {
	return filepath.WalkDir(f.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !mediaExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		f.entries[id] = entry{itemID: id, path: path, title: title}
		f.order = append(f.order, id)
		return nil
	})
}

func (f *Filesystem) lookup(id string) (entry, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[id]
	return e, ok
}

// MediaFacts implements domain.Catalog.
func (f *Filesystem) MediaFacts(ctx context.Context, partID string) (domain.SourceFacts, error) {
	f.factsMu.Lock()
	if cached, ok := f.facts[partID]; ok {
		f.factsMu.Unlock()
		return cached, nil
	}
	f.factsMu.Unlock()

	e, ok := f.lookup(partID)
	if !ok {
		return domain.SourceFacts{}, domain.NotFound("catalog: unknown part " + partID)
	}

	facts, _, err := f.prober.Probe(ctx, e.path)
	if err != nil {
		return domain.SourceFacts{}, domain.EncoderFailed("catalog: probe failed", err)
	}
	facts.PartID = partID
	facts.DirectURL = e.path

	f.factsMu.Lock()
	f.facts[partID] = facts
	f.factsMu.Unlock()
	return facts, nil
}

// ItemParts implements domain.Catalog. This catalog never splits an item
// into multiple parts, so itemID and partID are always the same string.
func (f *Filesystem) ItemParts(ctx context.Context, itemID string) ([]string, error) {
	if _, ok := f.lookup(itemID); !ok {
		return nil, domain.NotFound("catalog: unknown item " + itemID)
	}
	return []string{itemID}, nil
}

// ResolveSeed implements domain.Catalog. Only SeedSingle and SeedLibrary
// are meaningful over a flat directory scan; other seed types resolve to
// the single originator item, matching a degraded "play just this" mode
// rather than erroring outright.
func (f *Filesystem) ResolveSeed(ctx context.Context, seed domain.Seed, offset, limit int) ([]string, int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	switch seed.Type {
	case domain.SeedLibrary:
		ids := make([]string, len(f.order))
		copy(ids, f.order)
		sort.Strings(ids)
		total := len(ids)
		if offset >= total {
			return nil, total, nil
		}
		end := offset + limit
		if limit <= 0 || end > total {
			end = total
		}
		return ids[offset:end], total, nil
	default:
		if _, ok := f.entries[seed.OriginatorID]; !ok {
			return nil, 0, domain.NotFound("catalog: unknown originator " + seed.OriginatorID)
		}
		return []string{seed.OriginatorID}, 1, nil
	}
}

// ItemView implements domain.Catalog.
func (f *Filesystem) ItemView(ctx context.Context, itemID string) (domain.PlaylistItemView, error) {
	e, ok := f.lookup(itemID)
	if !ok {
		return domain.PlaylistItemView{}, domain.NotFound("catalog: unknown item " + itemID)
	}
	view := domain.PlaylistItemView{ItemID: e.itemID, Title: e.title}
	if facts, err := f.MediaFacts(ctx, itemID); err == nil {
		view.DurationMs = facts.Duration
	}
	return view, nil
}

// Publish implements domain.Publisher by logging; there is no real-time
// collaborator to notify in a filesystem demo.
func (f *Filesystem) Publish(ctx context.Context, event domain.Event) {
	f.log.Debug().Str("kind", string(event.Kind)).Interface("payload", event.Payload).Msg("event")
}

// SystemClock implements domain.Clock with the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
