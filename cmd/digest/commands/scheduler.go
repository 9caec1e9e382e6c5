package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dart-digest/internal/external/krx"
	"github.com/wonny/dart-digest/internal/scheduler"
	"github.com/wonny/dart-digest/internal/scheduler/jobs"
	"github.com/wonny/dart-digest/pkg/httputil"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- dart_digest: DIGEST_SCHEDULE (기본 평일 18:10, DART_TIMEZONE 기준)
- company_map_update: 매주 월요일 07:00 (KIND 상장사 목록 갱신)

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/digest scheduler
  go run ./cmd/digest scheduler list`,
	RunE: runScheduler,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "등록된 작업과 다음 실행 시각",
	RunE:  listJobs,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
}

// initScheduler registers the digest and company map jobs
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, a.cfg.Location()).WithRetry(2, time.Minute)

	digest := jobs.NewDigestJob(a.orch, a.rssSource(), a.defaultOptions(), a.cfg.Schedule, a.log)
	if err := sched.AddJob(digest); err != nil {
		return nil, fmt.Errorf("add job %s: %w", digest.Name(), err)
	}

	kind := krx.NewClient(httputil.New(a.log), a.log)
	companies := jobs.NewCompanyMapJob(kind, a.universe, a.cfg.DART.CompanyMapPath, a.log)
	if err := sched.AddJob(companies); err != nil {
		return nil, fmt.Errorf("add job %s: %w", companies.Name(), err)
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== DART Digest Scheduler ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		next, err := sched.NextRun(name)
		if err != nil || next.IsZero() {
			fmt.Printf("  - %s\n", name)
			continue
		}
		fmt.Printf("  - %s (next: %s)\n", name, next.Format("2006-01-02 15:04:05 MST"))
	}
}
