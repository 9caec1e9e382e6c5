package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "저장된 리포트 조회",
}

var (
	reportShowCmd = &cobra.Command{
		Use:   "show [date]",
		Short: "일자별 리포트 출력 (기본: 오늘, YYYY-MM-DD)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showReport,
	}

	reportListCmd = &cobra.Command{
		Use:   "list",
		Short: "최근 리포트 목록",
		RunE:  listReports,
	}
)

var reportLimit int

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportListCmd)

	reportListCmd.Flags().IntVar(&reportLimit, "limit", 10, "최대 개수")
}

func showReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ledger.Close()

	date := time.Now().In(cfg.Location()).Format("2006-01-02")
	if len(args) == 1 {
		date = args[0]
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", date)
	}

	sel, err := ledger.GetReport(ctx, date)
	if err != nil {
		return fmt.Errorf("get report %s: %w", date, err)
	}

	PrintSelection(os.Stdout, sel)
	PrintArticle(os.Stdout, sel.Article)
	return nil
}

func listReports(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ledger.Close()

	reports, err := ledger.ListReports(ctx, reportLimit)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}

	if len(reports) == 0 {
		fmt.Println("No reports saved yet.")
		return nil
	}
	for _, sel := range reports {
		fmt.Printf("%s  picks=%d  origin=%-9s  delivered=%t  run_id=%s\n",
			sel.Date, len(sel.Items), sel.Origin, sel.Delivered, sel.RunID)
	}
	return nil
}
