package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/pipeline"
	"github.com/wonny/dart-digest/pkg/logger"
)

// runTimeout bounds a run triggered over HTTP
const runTimeout = 10 * time.Minute

// Runner is the part of the orchestrator the handler needs
type Runner interface {
	Run(ctx context.Context, source contracts.Source, opts pipeline.Options) *contracts.RunResult
}

// RunHandler triggers pipeline runs
// 결과는 /ws 로 전달됨
type RunHandler struct {
	runner   Runner
	source   contracts.Source
	defaults pipeline.Options
	running  atomic.Bool
	logger   *logger.Logger

	// 실행 중인 run 추적 (Shutdown 에서 대기)
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewRunHandler creates a new run handler
func NewRunHandler(runner Runner, source contracts.Source, defaults pipeline.Options, log *logger.Logger) *RunHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &RunHandler{
		runner:   runner,
		source:   source,
		defaults: defaults,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Shutdown refuses new runs and waits for the in-flight one.
// ctx 만료 시 실행 컨텍스트를 취소하고 종료까지 기다린 뒤 ctx.Err() 반환
func (h *RunHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.cancel()
		return nil
	case <-ctx.Done():
		h.logger.Warn("In-flight run did not finish in time, cancelling")
		h.cancel()
		<-done
		return ctx.Err()
	}
}

// begin registers a run unless the handler is shutting down
func (h *RunHandler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.wg.Add(1)
	return true
}

// RunRequest is the optional body of POST /api/runs
type RunRequest struct {
	Force  bool `json:"force"`
	DryRun bool `json:"dryRun"`
}

// TriggerRun starts a run in the background
// POST /api/runs
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if !h.running.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "A run is already in progress")
		return
	}
	if !h.begin() {
		h.running.Store(false)
		respondError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}

	opts := h.defaults
	opts.Force = req.Force
	opts.DryRun = opts.DryRun || req.DryRun

	go func() {
		defer h.wg.Done()
		defer h.running.Store(false)

		ctx, cancel := context.WithTimeout(h.ctx, runTimeout)
		defer cancel()

		result := h.runner.Run(ctx, h.source, opts)
		h.logger.WithFields(map[string]interface{}{
			"run_id": result.RunID,
			"status": string(result.Status),
		}).Info("API-triggered run finished")
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"force":  opts.Force,
		"dryRun": opts.DryRun,
	})
}
