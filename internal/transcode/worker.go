// Package transcode owns the lifecycle of encoder worker processes and the
// job cache that lets many playback sessions share one output directory per
// (part, variant) (spec §4.C). Rewritten from the teacher's Pool/Worker
// pair, which split video and audio into separate subscribe/ack job queues
// driven by a coordinator; this core plans one combined job per variant and
// looks jobs up on demand from the manifest/segment endpoints instead.
package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	"github.com/nx-media/playcore/internal/domain"
	"github.com/nx-media/playcore/internal/ffmpeg"
)

// WorkerState is the lifecycle of one encoder process.
type WorkerState int

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerDone
	WorkerError
)

// Worker owns one encoder process writing numbered segments into a job's
// output directory. It never reads the process's stdout for correctness —
// segment readiness is the segment package's job, not this one's (spec
// §4.C). This replaces the teacher's Worker, which scanned ffmpeg's
// segment-list stdout to drive per-segment storage writes; there's no
// storage abstraction left to drive, so the process runs fire-and-forget
// once started.
type Worker struct {
	cmdBuilder *ffmpeg.CommandBuilder

	mu     sync.RWMutex
	state  WorkerState
	err    error
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(cmdBuilder *ffmpeg.CommandBuilder) *Worker {
	return &Worker{cmdBuilder: cmdBuilder, state: WorkerIdle}
}

// Start execs the encoder for params and returns once the process has
// launched, not once it's producing output.
func (w *Worker) Start(ctx context.Context, params ffmpeg.Params) error {
	w.mu.Lock()
	if w.state == WorkerRunning {
		w.mu.Unlock()
		return fmt.Errorf("transcode: worker already running")
	}
	w.state = WorkerRunning
	w.err = nil
	w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	args := w.cmdBuilder.Build(params)
	cmd := exec.CommandContext(runCtx, "ffmpeg", args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = domain.WorkerStopGrace

	if err := cmd.Start(); err != nil {
		cancel()
		w.setError(err)
		return fmt.Errorf("transcode: start encoder: %w", err)
	}

	done := make(chan struct{})
	w.mu.Lock()
	w.cmd = cmd
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	go w.wait(runCtx, cmd, done)

	return nil
}

func (w *Worker) wait(ctx context.Context, cmd *exec.Cmd, done chan struct{}) {
	defer close(done)
	err := cmd.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil && ctx.Err() == nil {
		w.state = WorkerError
		w.err = err
		return
	}
	w.state = WorkerDone
}

// Stop asks the encoder to exit. cmd.Cancel sends SIGTERM; if the process
// hasn't exited within grace, exec kills it outright (cmd.WaitDelay).
// Stop blocks until the process has actually exited.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

func (w *Worker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

func (w *Worker) setError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = WorkerError
	w.err = err
}
