// Package app wires every core component into one running instance:
// sqlite-backed repositories, the capability store, stream planner
// options, the transcode manager, the session orchestrator and its
// sweeper, and the HTTP transport. Grounded on the composition root shape
// of ericcug-dash2hlsd/cmd/server/main.go ("Initialize services and
// managers" then "Set up API router with dependencies"), split into its
// own package so cmd/server stays a thin flag-and-signal shell.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/nx-media/playcore/internal/capability"
	"github.com/nx-media/playcore/internal/catalog"
	"github.com/nx-media/playcore/internal/config"
	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/ffmpeg"
	"github.com/nx-media/playcore/internal/httpapi"
	"github.com/nx-media/playcore/internal/hwaccel"
	"github.com/nx-media/playcore/internal/keyframe"
	xlog "github.com/nx-media/playcore/internal/log"
	"github.com/nx-media/playcore/internal/planner"
	"github.com/nx-media/playcore/internal/probe"
	"github.com/nx-media/playcore/internal/session"
	"github.com/nx-media/playcore/internal/store"
	"github.com/nx-media/playcore/internal/subtitle"
	"github.com/nx-media/playcore/internal/transcode"
)

// App is the fully wired instance. Handler is the composed HTTP server
// handler; Sweeper and TranscodeManager need explicit lifecycle calls from
// the caller (Run and Close respectively) since they own background
// goroutines and OS resources cmd/server must stop on shutdown.
type App struct {
	Handler          http.Handler
	Sweeper          *session.Sweeper
	TranscodeManager *transcode.Manager

	db *sql.DB
}

// New builds every component from cfg. It probes for hardware
// acceleration once at startup (spec §4.B "Capability-aware hardware
// acceleration") rather than per-plan, since the host's available
// encoders don't change between requests.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := store.Open(cfg.DBPath, store.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	sessions, err := store.NewSessions(db)
	if err != nil {
		return nil, fmt.Errorf("app: sessions repo: %w", err)
	}
	generators, err := store.NewGenerators(db)
	if err != nil {
		return nil, fmt.Errorf("app: generators repo: %w", err)
	}
	jobs, err := store.NewJobs(db)
	if err != nil {
		return nil, fmt.Errorf("app: jobs repo: %w", err)
	}
	capStore, err := capability.New(db)
	if err != nil {
		return nil, fmt.Errorf("app: capability store: %w", err)
	}

	prober := probe.NewProber()

	mediaCatalog, err := catalog.NewFilesystem(cfg.MediaRoot, prober)
	if err != nil {
		return nil, fmt.Errorf("app: filesystem catalog: %w", err)
	}

	var hwConfig *domain.HWAccelConfig
	plannerOpts := planner.Options{}
	if cfg.AllowHWAccel {
		hwConfig = hwaccel.DetectBest()
		if hwConfig != nil {
			plannerOpts.AllowHardwareAcceleration = true
			plannerOpts.AvailableAccelerator = hwConfig.Accelerator
		}
	}

	cmdBuilder := ffmpeg.NewCommandBuilder(hwConfig)
	if err := os.MkdirAll(cfg.TranscodeRoot, 0o755); err != nil {
		return nil, fmt.Errorf("app: transcode root: %w", err)
	}
	transcodeManager, err := transcode.NewManager(cfg.TranscodeRoot, cmdBuilder, cfg.MaxTranscodeJobs)
	if err != nil {
		return nil, fmt.Errorf("app: transcode manager: %w", err)
	}

	transcodeManager.SetRecorder(jobs)

	keyframes := keyframe.NewCache(prober)
	clock := catalog.SystemClock{}

	orchestrator := session.New(sessions, generators, capStore, mediaCatalog, mediaCatalog, clock, keyframes, plannerOpts)
	orchestrator.BaseURL = cfg.BaseURL
	sweeper := session.NewSweeper(orchestrator, cfg.SweepInterval)

	subtitleConverter := subtitle.NewConverter()
	handler := httpapi.New(orchestrator, transcodeManager, subtitleConverter)

	xlog.With("app").Info().Str("dbPath", cfg.DBPath).Str("mediaRoot", cfg.MediaRoot).Msg("app wired")

	return &App{
		Handler:          handler,
		Sweeper:          sweeper,
		TranscodeManager: transcodeManager,
		db:               db,
	}, nil
}

// Close releases every resource New opened.
func (a *App) Close() error {
	a.TranscodeManager.Close()
	return a.db.Close()
}
