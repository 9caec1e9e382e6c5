package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dart-digest/internal/contracts"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "공시 리포트 1회 실행",
	Long: `DART 공시를 수집해 리포트를 1회 생성합니다.

이 명령어는:
- 당일 DART RSS 수집 (--date 지정 시 OpenDART 목록 API)
- 대상 시장 필터, 처리 이력 기반 중복 제거
- 채점 후 상위 1~2건 선정
- 심층 리포트 작성, 저장, Slack 전송

Example:
  go run ./cmd/digest run
  go run ./cmd/digest run --force --dry-run --print-article
  go run ./cmd/digest run --date 20250110`,
	RunE: runDigest,
}

var (
	runForce        bool
	runDryRun       bool
	runPrintArticle bool
	runDate         string
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().BoolVar(&runForce, "force", false, "처리 이력 무시 (중복 제거 생략)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Slack 전송 생략")
	runCmd.Flags().BoolVar(&runPrintArticle, "print-article", false, "생성된 기사를 stdout 으로 출력")
	runCmd.Flags().StringVar(&runDate, "date", "", "백테스트 대상일 YYYYMMDD (DART_API_KEY 필요)")
}

func runDigest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.defaultOptions()
	opts.Force = runForce
	opts.DryRun = opts.DryRun || runDryRun

	source := a.rssSource()
	if runDate != "" {
		source, err = a.listSource(runDate)
		if err != nil {
			return err
		}
		opts.RunAt = backtestRunAt(runDate, a.cfg.Location())
	}

	result := a.orch.Run(ctx, source, opts)
	PrintRunResult(os.Stdout, result)

	if runPrintArticle && result.Selection != nil {
		PrintArticle(os.Stdout, result.Selection.Article)
	}

	if result.Status == contracts.RunFailed {
		return fmt.Errorf("run failed: %s", result.Message)
	}
	return nil
}

// backtestRunAt maps a YYYYMMDD date to that day's scheduled run time
// 날짜 검증은 ListSource 에서 이미 수행됨
func backtestRunAt(date string, loc *time.Location) time.Time {
	day, err := time.ParseInLocation("20060102", date, loc)
	if err != nil {
		return time.Time{}
	}
	return day.Add(18*time.Hour + 10*time.Minute)
}
