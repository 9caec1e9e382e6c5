package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dart-digest/internal/api"
	"github.com/wonny/dart-digest/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 리포트/처리 이력 조회 엔드포인트 제공
- 수동 실행 트리거와 실행 결과 스트림 제공

Endpoints:
  GET  /health                  - Health check
  GET  /ws                      - 실행 결과 WebSocket 스트림
  GET  /reports/{date}          - 리포트 HTML
  GET  /api/reports             - 리포트 목록 (?limit=30)
  GET  /api/reports/{date}      - 리포트 JSON
  GET  /api/ledger/{receipt}    - 처리 이력 조회
  POST /api/runs                - 실행 트리거 {"force":bool,"dryRun":bool}

Example:
  go run ./cmd/digest api
  go run ./cmd/digest api --port 8089`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본 PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== DART Digest API Server ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	hub := handlers.NewHub(a.log)
	a.orch.Subscribe(hub.Broadcast)

	reports := handlers.NewReportHandler(a.ledger, a.log)
	runs := handlers.NewRunHandler(a.orch, a.rssSource(), a.defaultOptions(), a.log)

	router := api.NewRouter(reports, runs, hub, a.log)
	server := api.New(a.cfg, a.log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 원장을 닫기 전에 진행 중인 실행 종료 대기
	if err := runs.Shutdown(ctx); err != nil {
		return fmt.Errorf("wait for in-flight run: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
