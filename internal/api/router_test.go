package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dart-digest/internal/api/handlers"
	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/pipeline"
	"github.com/wonny/dart-digest/internal/storage/embedded"
	"github.com/wonny/dart-digest/pkg/logger"
)

type fakeRunner struct {
	hub  *handlers.Hub
	done chan pipeline.Options
}

func (f *fakeRunner) Run(ctx context.Context, source contracts.Source, opts pipeline.Options) *contracts.RunResult {
	res := &contracts.RunResult{RunID: "run-1", Date: "2026-02-27", Status: contracts.RunSkipped, Message: pipeline.MsgNoNew}
	f.hub.Broadcast(*res)
	f.done <- opts
	return res
}

type testServer struct {
	server *httptest.Server
	store  *embedded.Store
	runner *fakeRunner
	hub    *handlers.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()

	store, err := embedded.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hub := handlers.NewHub(log)
	runner := &fakeRunner{hub: hub, done: make(chan pipeline.Options, 1)}
	router := NewRouter(
		handlers.NewReportHandler(store, log),
		handlers.NewRunHandler(runner, nil, pipeline.Options{}, log),
		hub,
		log,
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{server: server, store: store, runner: runner, hub: hub}
}

func seedReport(t *testing.T, store *embedded.Store) *contracts.Selection {
	t.Helper()
	item := contracts.ScoredDisclosure{
		Disclosure: contracts.Disclosure{
			Company:   "테스트회사",
			Title:     "테스트회사 (유상증자결정)",
			Link:      "https://dart.fss.or.kr/dsaf001/main.do?rcpNo=20260227000001",
			ReceiptNo: "20260227000001",
		},
		Market:     "KOSPI",
		EventType:  "지배구조/자본변동",
		TotalScore: 92.49,
	}
	require.NoError(t, store.MarkProcessed(context.Background(), &item))

	sel := &contracts.Selection{
		Date:    "2026-02-27",
		RunID:   "run-0",
		RunAt:   time.Date(2026, 2, 27, 18, 10, 0, 0, time.UTC),
		Items:   []contracts.ScoredDisclosure{item},
		Article: "# 테스트회사 공시 심층\n\n## 핵심 요약\n- 테스트회사: 지배구조/자본변동 (92.5점)",
		Origin:  contracts.OriginFallback,
	}
	require.NoError(t, store.SaveReport(context.Background(), sel))
	return sel
}

func getJSON(t *testing.T, url string, dest interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.server.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["ledger"])
}

type downLedger struct {
	*embedded.Store
}

func (downLedger) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealth_LedgerDown(t *testing.T) {
	log := logger.NewNop()
	store, err := embedded.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reports := handlers.NewReportHandler(downLedger{store}, log)
	rec := httptest.NewRecorder()
	reports.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["ledger"])
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)
	seedReport(t, ts.store)

	var list struct {
		Count   int                      `json:"count"`
		Reports []handlers.ReportSummary `json:"reports"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.server.URL+"/api/reports", &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, []string{"테스트회사"}, list.Reports[0].Companies)
	assert.Equal(t, []string{"20260227000001"}, list.Reports[0].ReceiptNos)

	var sel contracts.Selection
	assert.Equal(t, http.StatusOK, getJSON(t, ts.server.URL+"/api/reports/2026-02-27", &sel))
	assert.Equal(t, "run-0", sel.RunID)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.server.URL+"/api/reports/2026-02-28", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.server.URL+"/api/reports/20260227", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.server.URL+"/api/reports?limit=abc", nil))
}

func TestRenderReport(t *testing.T) {
	ts := newTestServer(t)
	seedReport(t, ts.store)

	resp, err := http.Get(ts.server.URL + "/reports/2026-02-27")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<h1>테스트회사 공시 심층</h1>")
	assert.Contains(t, string(body), "<li>테스트회사: 지배구조/자본변동 (92.5점)</li>")
}

func TestLedgerEntry(t *testing.T) {
	ts := newTestServer(t)
	seedReport(t, ts.store)

	var record contracts.ProcessedRecord
	assert.Equal(t, http.StatusOK, getJSON(t, ts.server.URL+"/api/ledger/20260227000001", &record))
	assert.Equal(t, "테스트회사", record.Company)
	assert.Equal(t, 92.49, record.TotalScore)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.server.URL+"/api/ledger/20990101000000", nil))
}

func TestTriggerRun_StreamsResult(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.server.URL+"/api/runs", "application/json", strings.NewReader(`{"force":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case opts := <-ts.runner.done:
		assert.True(t, opts.Force)
	case <-time.After(2 * time.Second):
		t.Fatal("run was not triggered")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string              `json:"type"`
		Payload contracts.RunResult `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "run_finished", msg.Type)
	assert.Equal(t, contracts.RunSkipped, msg.Payload.Status)
}

func TestTriggerRun_BadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.server.URL+"/api/runs", "application/json", strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (b *blockingRunner) Run(ctx context.Context, source contracts.Source, opts pipeline.Options) *contracts.RunResult {
	b.started <- struct{}{}
	select {
	case <-b.release:
		b.ctxErr <- nil
	case <-ctx.Done():
		b.ctxErr <- ctx.Err()
	}
	return &contracts.RunResult{RunID: "run-1", Status: contracts.RunCompleted}
}

func triggerRun(h *handlers.RunHandler) int {
	rec := httptest.NewRecorder()
	h.TriggerRun(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	return rec.Code
}

func TestRunHandler_ShutdownWaitsForInFlightRun(t *testing.T) {
	runner := newBlockingRunner()
	h := handlers.NewRunHandler(runner, nil, pipeline.Options{}, logger.NewNop())

	require.Equal(t, http.StatusAccepted, triggerRun(h))
	<-runner.started
	assert.Equal(t, http.StatusConflict, triggerRun(h))

	stopped := make(chan error, 1)
	go func() { stopped <- h.Shutdown(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("shutdown returned while a run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.release)
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return after the run finished")
	}
	assert.NoError(t, <-runner.ctxErr)

	assert.Equal(t, http.StatusServiceUnavailable, triggerRun(h))
}

func TestRunHandler_ShutdownCancelsAfterDeadline(t *testing.T) {
	runner := newBlockingRunner()
	h := handlers.NewRunHandler(runner, nil, pipeline.Options{}, logger.NewNop())

	require.Equal(t, http.StatusAccepted, triggerRun(h))
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := h.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, <-runner.ctxErr, context.Canceled)
}
