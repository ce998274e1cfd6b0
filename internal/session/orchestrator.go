// Package session implements the Playback Session Orchestrator (Component
// E): the top-level state machine that binds capability (Component A),
// stream plan (Component B), playlist cursor (Component D) and, when
// needed, a transcode job (Component C) to one session, and exposes
// start/resume/heartbeat/decide/seek/stop/navigate (spec §4.E).
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nx-media/playcore/internal/capability"
	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/keyframe"
	"github.com/nx-media/playcore/internal/planner"
	"github.com/nx-media/playcore/internal/playlist"
	"github.com/nx-media/playcore/internal/store"
)

// Orchestrator is Component E. Every session-scoped mutation runs under a
// per-session lock (§5). The lock is held for the whole operation,
// including planner computation and catalog fetches; read-only helpers such
// as ResolvePart take no lock.
type Orchestrator struct {
	sessions   *store.Sessions
	generators *store.Generators
	capability *capability.Store
	catalog    domain.Catalog
	publisher  domain.Publisher
	clock      domain.Clock
	keyframes  *keyframe.Cache
	plannerOpts planner.Options

	// BaseURL prefixes every playback/manifest/trickplay URL this
	// orchestrator mints.
	BaseURL string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	cursorsMu sync.Mutex
	cursors   map[string]*playlist.Cursor // generatorID -> runtime cursor
}

// New wires Component E's collaborators. transcode job creation itself is
// not one of them: per spec §4.E "the orchestrator does not poll" the
// transcode layer, and manifest/segment requests hit Component C directly
// over HTTP rather than through this type.
func New(
	sessions *store.Sessions,
	generators *store.Generators,
	capStore *capability.Store,
	catalog domain.Catalog,
	publisher domain.Publisher,
	clock domain.Clock,
	keyframes *keyframe.Cache,
	plannerOpts planner.Options,
) *Orchestrator {
	return &Orchestrator{
		sessions:    sessions,
		generators:  generators,
		capability:  capStore,
		catalog:     catalog,
		publisher:   publisher,
		clock:       clock,
		keyframes:   keyframes,
		plannerOpts: plannerOpts,
		locks:       make(map[string]*sync.Mutex),
		cursors:     make(map[string]*playlist.Cursor),
	}
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	l, ok := o.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[sessionID] = l
	}
	return l
}

func (o *Orchestrator) now() time.Time {
	if o.clock != nil {
		return o.clock.Now()
	}
	return time.Now()
}

func (o *Orchestrator) publish(ctx context.Context, kind domain.EventKind, payload map[string]any) {
	if o.publisher == nil {
		return
	}
	o.publisher.Publish(ctx, domain.Event{Kind: kind, Payload: payload})
}

// cursorFor returns the in-memory Cursor for a generator, rehydrating it
// from the store if this is the first touch since process start.
func (o *Orchestrator) cursorFor(ctx context.Context, generatorID string) (*playlist.Cursor, error) {
	o.cursorsMu.Lock()
	c, ok := o.cursors[generatorID]
	o.cursorsMu.Unlock()
	if ok {
		return c, nil
	}

	gen, err := o.generators.Get(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	c = playlist.NewCursor(gen, o.catalog)

	o.cursorsMu.Lock()
	o.cursors[generatorID] = c
	o.cursorsMu.Unlock()
	return c, nil
}

func (o *Orchestrator) saveCursor(ctx context.Context, c *playlist.Cursor) error {
	return o.generators.Save(ctx, c.Record())
}

// resolveCapability applies an optional inline declaration, then returns
// the session's effective profile plus whether the caller's declared
// version (if any) is stale (spec §4.E "Capability-version mismatch").
func (o *Orchestrator) resolveCapability(ctx context.Context, sessionID string, decl *domain.Capabilities, declaredVersion *int) (domain.CapabilityProfile, bool, error) {
	if decl != nil {
		res, err := o.capability.UpsertCapability(ctx, sessionID, *decl, declaredVersion)
		if err != nil {
			return domain.CapabilityProfile{}, false, err
		}
		profile, err := o.capability.GetEffective(ctx, sessionID)
		if err != nil {
			return domain.CapabilityProfile{}, false, err
		}
		return profile, res.Mismatch, nil
	}

	profile, err := o.capability.GetEffective(ctx, sessionID)
	if err != nil {
		return domain.CapabilityProfile{}, false, err
	}
	mismatch := declaredVersion != nil && *declaredVersion != profile.Version
	return profile, mismatch, nil
}

// planFor plans against partID using the session's effective capability,
// translating a PlanUnavailable into the domain error the spec names.
func (o *Orchestrator) planFor(ctx context.Context, sessionID, partID string, profile domain.CapabilityProfile) (domain.StreamPlan, domain.SourceFacts, error) {
	facts, err := o.catalog.MediaFacts(ctx, partID)
	if err != nil {
		return domain.StreamPlan{}, domain.SourceFacts{}, err
	}
	plan, err := planner.Plan(facts, profile, o.plannerOpts)
	if err != nil {
		return domain.StreamPlan{}, facts, err
	}
	o.fillURLs(&plan, sessionID)
	return plan, facts, nil
}

// fillURLs populates the transport-facing URL fields the pure planner
// intentionally leaves blank (spec §4.B "a manifest URL is emitted... by
// Component C"), using this orchestrator's configured BaseURL. The
// sessionId query parameter lets the segment/manifest/subtitle handlers
// recover which session's plan governs a bare partId (a session's
// capability decides the variant, and two sessions may resolve the same
// part to different variants).
func (o *Orchestrator) fillURLs(plan *domain.StreamPlan, sessionID string) {
	switch plan.Mode {
	case domain.ModeDirectPlay, domain.ModeDirectStream:
		// DirectURL already points at the catalog's direct-serve endpoint.
	case domain.ModeTranscode:
		switch plan.Protocol {
		case domain.ProtocolDash:
			plan.ManifestURL = fmt.Sprintf("%s/part/%s/dash/manifest.mpd?sessionId=%s", o.BaseURL, plan.PartID, sessionID)
		case domain.ProtocolHls:
			plan.ManifestURL = fmt.Sprintf("%s/part/%s/hls/master.m3u8?sessionId=%s", o.BaseURL, plan.PartID, sessionID)
		}
	}
	if plan.Subtitle != nil && plan.Subtitle.Method == domain.SubtitleExternal && plan.Subtitle.URL == "" {
		plan.Subtitle.URL = fmt.Sprintf("%s/subtitle/part/%s/stream/%d/stream.%s?sessionId=%s", o.BaseURL, plan.PartID, plan.Subtitle.StreamIndex, plan.Subtitle.Format, sessionID)
	}
}

// ResolvePart looks up the effective plan and keyframe index for partID
// under the capability last recorded for sessionID, for the HTTP
// segment/manifest/subtitle handlers that receive only (sessionId,
// partId) — no generator or playhead context.
func (o *Orchestrator) ResolvePart(ctx context.Context, sessionID, partID string) (domain.SourceFacts, domain.StreamPlan, keyframe.Index, error) {
	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.SourceFacts{}, domain.StreamPlan{}, keyframe.Index{}, err
	}
	profile, err := o.capability.GetEffective(ctx, sessionID)
	if err != nil {
		return domain.SourceFacts{}, domain.StreamPlan{}, keyframe.Index{}, err
	}

	var plan domain.StreamPlan
	var facts domain.SourceFacts
	if sess.LastPlan != nil && sess.PartID == partID {
		plan = *sess.LastPlan
		facts, err = o.catalog.MediaFacts(ctx, partID)
		if err != nil {
			return domain.SourceFacts{}, domain.StreamPlan{}, keyframe.Index{}, err
		}
	} else {
		plan, facts, err = o.planFor(ctx, sessionID, partID, profile)
		if err != nil {
			return domain.SourceFacts{}, domain.StreamPlan{}, keyframe.Index{}, err
		}
	}

	idx, err := o.keyframes.Get(ctx, partID, facts.DirectURL)
	if err != nil {
		return domain.SourceFacts{}, domain.StreamPlan{}, keyframe.Index{}, err
	}
	return facts, plan, idx, nil
}

func (o *Orchestrator) playbackURL(plan domain.StreamPlan) string {
	switch plan.Mode {
	case domain.ModeDirectPlay, domain.ModeDirectStream:
		return plan.DirectURL
	default:
		return plan.ManifestURL
	}
}

// Start implements spec §4.E start(seed, capabilityDecl) and §6
// "startPlayback".
func (o *Orchestrator) Start(ctx context.Context, userID, deviceID string, seed domain.Seed, capDecl *domain.Capabilities, declaredVersion *int, originator, appContext string) (PlaybackStartPayload, error) {
	sessionID := uuid.NewString()
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := o.now()
	sess := domain.PlaybackSession{
		ID:            sessionID,
		UserID:        userID,
		DeviceID:      deviceID,
		State:         domain.SessionPlanning,
		LastHeartbeat: now,
		ExpiresAt:     now.Add(domain.InactivityWindow),
		Originator:    originator,
		Context:       appContext,
	}

	profile, _, err := o.resolveCapability(ctx, sessionID, capDecl, declaredVersion)
	if err != nil {
		return PlaybackStartPayload{}, err
	}

	cursor, err := playlist.Create(ctx, sessionID, seed, o.catalog, now.UnixNano())
	if err != nil {
		return PlaybackStartPayload{}, err
	}
	gen := cursor.Record()
	gen.ExpiresAt = sess.ExpiresAt
	if err := o.generators.Save(ctx, gen); err != nil {
		return PlaybackStartPayload{}, err
	}
	o.cursorsMu.Lock()
	o.cursors[gen.ID] = cursor
	o.cursorsMu.Unlock()
	sess.GeneratorID = gen.ID

	itemID, ok, err := cursor.CurrentItemID(ctx)
	if err != nil {
		return PlaybackStartPayload{}, err
	}
	if !ok {
		sess.State = domain.SessionFailed
		_ = o.sessions.Save(ctx, sess)
		return PlaybackStartPayload{}, domain.NotFound("session: seed resolved no playable items")
	}
	sess.ItemID = itemID

	parts, err := o.catalog.ItemParts(ctx, itemID)
	if err != nil {
		return PlaybackStartPayload{}, err
	}
	if len(parts) == 0 {
		sess.State = domain.SessionFailed
		_ = o.sessions.Save(ctx, sess)
		return PlaybackStartPayload{}, domain.NotFound("session: item has no playable parts")
	}
	partID := parts[0]
	sess.PartID = partID

	plan, facts, err := o.planFor(ctx, sess.ID, partID, profile)
	if err != nil {
		sess.State = domain.SessionFailed
		_ = o.sessions.Save(ctx, sess)
		return PlaybackStartPayload{}, err
	}
	sess.LastPlan = &plan
	sess.State = domain.SessionPlaying

	if err := o.sessions.Save(ctx, sess); err != nil {
		return PlaybackStartPayload{}, err
	}
	o.publish(ctx, domain.EventProgress, map[string]any{"sessionId": sess.ID, "itemId": itemID, "state": string(sess.State)})

	view, err := cursor.Current(ctx)
	if err != nil {
		return PlaybackStartPayload{}, err
	}

	return PlaybackStartPayload{
		SessionID:         sess.ID,
		GeneratorID:       gen.ID,
		ItemID:            itemID,
		PartID:            partID,
		CapabilityVersion: profile.Version,
		Plan:              plan,
		PlaybackURL:       o.playbackURL(plan),
		DurationMs:        facts.Duration,
		PlaylistIndex:     view.Index,
		PlaylistTotal:     gen.TotalCount,
		Shuffle:           gen.Shuffle,
		Repeat:            gen.Repeat,
	}, nil
}

// Resume implements spec §4.E resume(sessionId, capabilityDecl) and §6
// "resumePlayback": reload the session and re-plan the current item
// against the (possibly just-updated) effective capability.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string, capDecl *domain.Capabilities, declaredVersion *int) (PlaybackResumePayload, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return PlaybackResumePayload{}, err
	}

	profile, mismatch, err := o.resolveCapability(ctx, sessionID, capDecl, declaredVersion)
	if err != nil {
		return PlaybackResumePayload{}, err
	}

	plan, _, err := o.planFor(ctx, sess.ID, sess.PartID, profile)
	if err != nil {
		sess.State = domain.SessionFailed
		_ = o.sessions.Save(ctx, sess)
		return PlaybackResumePayload{}, err
	}
	sess.LastPlan = &plan
	if sess.State == domain.SessionFailed {
		sess.State = domain.SessionPlaying
	}
	if err := o.sessions.Save(ctx, sess); err != nil {
		return PlaybackResumePayload{}, err
	}

	return PlaybackResumePayload{
		SessionID:         sess.ID,
		ItemID:            sess.ItemID,
		PartID:            sess.PartID,
		PlayheadMs:        sess.PlayheadMs,
		State:             sess.State,
		Plan:              plan,
		PlaybackURL:       o.playbackURL(plan),
		CapabilityVersion: profile.Version,
		Mismatch:          mismatch,
	}, nil
}

// Heartbeat implements spec §4.E heartbeat(...) and §6 "heartbeat".
// Heartbeats never block (spec §5): no planning, no catalog fetch.
func (o *Orchestrator) Heartbeat(ctx context.Context, sessionID string, playheadMs int64, state domain.SessionState, partID string, capDecl *domain.Capabilities, declaredVersion *int) (HeartbeatResult, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return HeartbeatResult{}, err
	}

	now := o.now()
	sess.Refresh(now)
	sess.PlayheadMs = playheadMs
	if state != "" {
		sess.State = state
	}
	if partID != "" {
		sess.PartID = partID
	}

	_, mismatch, err := o.resolveCapability(ctx, sessionID, capDecl, declaredVersion)
	if err != nil {
		return HeartbeatResult{}, err
	}

	if err := o.sessions.Save(ctx, sess); err != nil {
		return HeartbeatResult{}, err
	}

	profile, err := o.capability.GetEffective(ctx, sessionID)
	if err != nil {
		return HeartbeatResult{}, err
	}
	return HeartbeatResult{CapabilityVersion: profile.Version, Mismatch: mismatch}, nil
}

// Decide implements spec §4.E decide(...) and §6 "decide".
func (o *Orchestrator) Decide(ctx context.Context, sessionID string, status string, progressMs int64, jumpIndex *int, capDecl *domain.Capabilities, declaredVersion *int) (DecideResult, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return DecideResult{}, err
	}

	profile, mismatch, err := o.resolveCapability(ctx, sessionID, capDecl, declaredVersion)
	if err != nil {
		return DecideResult{}, err
	}
	if mismatch {
		return DecideResult{Action: domain.ActionRefresh, CapabilityVersion: profile.Version, Mismatch: true}, nil
	}

	sess.PlayheadMs = progressMs
	sess.State = domain.SessionAdvancing

	cursor, err := o.cursorFor(ctx, sess.GeneratorID)
	if err != nil {
		return DecideResult{}, err
	}

	var action domain.NavigateAction
	var view *domain.PlaylistItemView
	switch status {
	case "jump":
		if jumpIndex == nil {
			return DecideResult{}, domain.InvalidInput("session: jump status requires jumpIndex")
		}
		v, err := cursor.Jump(ctx, *jumpIndex)
		if err != nil {
			return DecideResult{}, err
		}
		action, view = domain.ActionContinue, &v
	case "ended", "playing":
		action, view, err = cursor.Next(ctx)
		if err != nil {
			return DecideResult{}, err
		}
	default:
		return DecideResult{}, domain.InvalidInput("session: unknown decide status " + status)
	}

	if err := o.saveCursor(ctx, cursor); err != nil {
		return DecideResult{}, err
	}

	if action == domain.ActionStop || view == nil {
		sess.State = domain.SessionEnded
		_ = o.sessions.Save(ctx, sess)
		o.publish(ctx, domain.EventSessionEnded, map[string]any{"sessionId": sessionID})
		return DecideResult{Action: domain.ActionStop, CapabilityVersion: profile.Version}, nil
	}

	sess.ItemID = view.ItemID
	parts, err := o.catalog.ItemParts(ctx, view.ItemID)
	if err != nil {
		return DecideResult{}, err
	}
	if len(parts) == 0 {
		sess.State = domain.SessionEnded
		_ = o.sessions.Save(ctx, sess)
		return DecideResult{Action: domain.ActionStop, CapabilityVersion: profile.Version}, nil
	}
	sess.PartID = parts[0]

	plan, _, err := o.planFor(ctx, sess.ID, sess.PartID, profile)
	if err != nil {
		sess.State = domain.SessionFailed
		_ = o.sessions.Save(ctx, sess)
		return DecideResult{}, err
	}
	sess.LastPlan = &plan
	sess.State = domain.SessionPlaying
	if err := o.sessions.Save(ctx, sess); err != nil {
		return DecideResult{}, err
	}

	return DecideResult{
		Action:            domain.ActionContinue,
		Plan:              &plan,
		NextItemID:        view.ItemID,
		PlaybackURL:       o.playbackURL(plan),
		CapabilityVersion: profile.Version,
	}, nil
}

// Seek implements spec §4.E seek(sessionId, targetMs, partId) and §6
// "seek". It is intentionally cheap and race-free: it never restarts a
// transcode job itself, it only answers where the nearest keyframe is; the
// next segment request triggers the Transcode Job Manager's own restart
// logic (spec §5 "Ordering guarantees").
func (o *Orchestrator) Seek(ctx context.Context, sessionID string, targetMs int64, partID string) (SeekResult, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return SeekResult{}, err
	}
	sess.State = domain.SessionReseeking
	if err := o.sessions.Save(ctx, sess); err != nil {
		return SeekResult{}, err
	}

	facts, err := o.catalog.MediaFacts(ctx, partID)
	if err != nil {
		return SeekResult{}, err
	}

	idx, err := o.keyframes.Get(ctx, partID, facts.DirectURL)
	hasIndex := err == nil
	var keyframeMs int64
	var gopDurationMs int64
	if hasIndex {
		nearest := idx.Nearest(float64(targetMs) / 1000.0)
		keyframeMs = int64(nearest * 1000)
		after := idx.After(nearest)
		if len(after) > 1 {
			gopDurationMs = int64((after[1] - after[0]) * 1000)
		}
	} else {
		keyframeMs = targetMs
	}

	sess.PlayheadMs = keyframeMs
	sess.State = domain.SessionPlaying
	if err := o.sessions.Save(ctx, sess); err != nil {
		return SeekResult{}, err
	}

	return SeekResult{
		KeyframeMs:       keyframeMs,
		GopDurationMs:    gopDurationMs,
		HasGopIndex:      hasIndex,
		OriginalTargetMs: targetMs,
	}, nil
}

// Stop implements spec §4.E stop(sessionId) and §6 "stop". The session
// record is left in place until natural expiry so late segment/heartbeat
// requests still resolve (spec §3 "leave the session record until natural
// expiry").
func (o *Orchestrator) Stop(ctx context.Context, sessionID string) error {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.State = domain.SessionEnded
	if err := o.sessions.Save(ctx, sess); err != nil {
		return err
	}
	o.publish(ctx, domain.EventSessionEnded, map[string]any{"sessionId": sessionID})
	return nil
}

// SessionGeneratorOwner resolves which session owns a generator id, for
// HTTP handlers that receive only a generatorId (chunk/navigate/jump/mode)
// and must still serialize through the owning session's lock (spec §4.D
// "Each operation is atomic under the session lock").
func (o *Orchestrator) SessionGeneratorOwner(ctx context.Context, generatorID string) (string, error) {
	gen, err := o.generators.Get(ctx, generatorID)
	if err != nil {
		return "", err
	}
	return gen.SessionID, nil
}

// Chunk implements spec §4.D chunk(startIndex, limit) and §6 "chunk".
func (o *Orchestrator) Chunk(ctx context.Context, generatorID string, startIndex, limit int) (NavigatePayload, error) {
	sessionID, err := o.SessionGeneratorOwner(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	cursor, err := o.cursorFor(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	items, total, hasMore, err := cursor.Chunk(ctx, startIndex, limit)
	if err != nil {
		return NavigatePayload{}, err
	}
	rec := cursor.Record()
	return NavigatePayload{Items: items, CurrentIndex: rec.Cursor, TotalCount: total, HasMore: hasMore, Shuffle: rec.Shuffle, Repeat: rec.Repeat}, nil
}

// SetMode implements the navigate/jump/mode RPC's shuffle/repeat toggles
// (spec §6 "navigate/jump/mode").
func (o *Orchestrator) SetMode(ctx context.Context, generatorID string, shuffle, repeat *bool) (NavigatePayload, error) {
	sessionID, err := o.SessionGeneratorOwner(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	cursor, err := o.cursorFor(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	if shuffle != nil {
		cursor.SetShuffle(*shuffle)
	}
	if repeat != nil {
		cursor.SetRepeat(*repeat)
	}
	if err := o.saveCursor(ctx, cursor); err != nil {
		return NavigatePayload{}, err
	}

	rec := cursor.Record()
	view, err := cursor.Current(ctx)
	if err != nil {
		return NavigatePayload{}, err
	}
	return NavigatePayload{Items: []domain.PlaylistItemView{view}, CurrentIndex: rec.Cursor, TotalCount: rec.TotalCount, Shuffle: rec.Shuffle, Repeat: rec.Repeat}, nil
}

// Navigate implements the navigate/jump/mode RPC's relative-step form:
// explicit user-driven next/previous, as opposed to Decide's
// automatic-advance-on-playback-end (spec §4.D "Navigation").
func (o *Orchestrator) Navigate(ctx context.Context, generatorID string, direction string) (NavigatePayload, error) {
	sessionID, err := o.SessionGeneratorOwner(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	cursor, err := o.cursorFor(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}

	var action domain.NavigateAction
	var view *domain.PlaylistItemView
	switch direction {
	case "next":
		action, view, err = cursor.Next(ctx)
	case "previous":
		action, view, err = cursor.Previous(ctx)
	default:
		return NavigatePayload{}, domain.InvalidInput("session: unknown navigate direction " + direction)
	}
	if err != nil {
		return NavigatePayload{}, err
	}
	if err := o.saveCursor(ctx, cursor); err != nil {
		return NavigatePayload{}, err
	}

	rec := cursor.Record()
	payload := NavigatePayload{CurrentIndex: rec.Cursor, TotalCount: rec.TotalCount, Shuffle: rec.Shuffle, Repeat: rec.Repeat}
	if action == domain.ActionContinue && view != nil {
		payload.Items = []domain.PlaylistItemView{*view}
	}
	return payload, nil
}

// Jump implements the navigate/jump/mode RPC's absolute-position form.
func (o *Orchestrator) Jump(ctx context.Context, generatorID string, index int) (NavigatePayload, error) {
	sessionID, err := o.SessionGeneratorOwner(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	cursor, err := o.cursorFor(ctx, generatorID)
	if err != nil {
		return NavigatePayload{}, err
	}
	view, err := cursor.Jump(ctx, index)
	if err != nil {
		return NavigatePayload{}, err
	}
	if err := o.saveCursor(ctx, cursor); err != nil {
		return NavigatePayload{}, err
	}
	rec := cursor.Record()
	return NavigatePayload{Items: []domain.PlaylistItemView{view}, CurrentIndex: rec.Cursor, TotalCount: rec.TotalCount, Shuffle: rec.Shuffle, Repeat: rec.Repeat}, nil
}
