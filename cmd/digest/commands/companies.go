package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dart-digest/internal/external/krx"
	"github.com/wonny/dart-digest/pkg/httputil"
)

// companiesCmd represents the companies command
var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "상장사 목록 관리",
}

var companiesUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "KIND 상장사 목록으로 회사 맵 CSV 재생성",
	Long: `KRX KIND 상장법인 목록(KOSPI, KOSDAQ)을 내려받아
DART_COMPANY_MAP_PATH 에 company_name,ticker,market CSV 로 저장합니다.

Example:
  go run ./cmd/digest companies update
  go run ./cmd/digest companies update --out data/companies.csv`,
	RunE: runCompaniesUpdate,
}

var companiesOut string

func init() {
	rootCmd.AddCommand(companiesCmd)
	companiesCmd.AddCommand(companiesUpdateCmd)

	companiesUpdateCmd.Flags().StringVar(&companiesOut, "out", "", "출력 경로 (기본 DART_COMPANY_MAP_PATH)")
}

func runCompaniesUpdate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	out := companiesOut
	if out == "" {
		out = cfg.DART.CompanyMapPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*krx.DefaultTimeout)
	defer cancel()

	client := krx.NewClient(httputil.New(log), log)
	count, err := client.Update(ctx, out)
	if err != nil {
		return fmt.Errorf("update company map: %w", err)
	}

	fmt.Printf("Saved %d companies -> %s\n", count, out)
	return nil
}
