package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/idxscreen/internal/archive"
	"github.com/wonny/idxscreen/internal/marketdata"
	"github.com/wonny/idxscreen/pkg/database"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <symbol>",
	Short: "아카이브된 가격 봉 조회",
	Long: `PostgreSQL 가격 아카이브에 저장된 봉을 조회합니다.

DATABASE_URL 이 설정된 상태에서 api/screen 등으로 조회된 시계열은
자동으로 아카이브됩니다.

Example:
  go run ./cmd/quant archive BBCA
  go run ./cmd/quant archive TLKM --from 2024-01-01 --to 2024-06-30 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

var (
	archiveFrom     string
	archiveTo       string
	archiveInterval string
	archiveJSON     bool
)

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVar(&archiveFrom, "from", "", "시작일 YYYY-MM-DD (default: 30일 전)")
	archiveCmd.Flags().StringVar(&archiveTo, "to", "", "종료일 YYYY-MM-DD (default: 오늘)")
	archiveCmd.Flags().StringVar(&archiveInterval, "interval", "1d", "봉 간격")
	archiveCmd.Flags().BoolVar(&archiveJSON, "json", false, "JSON 출력")
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		return errors.New("archive requires DATABASE_URL")
	}
	if err != nil {
		return err
	}
	defer db.Close()

	to := archiveTo
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	from := archiveFrom
	if from == "" {
		from = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", d)
		}
	}

	symbol := marketdata.Normalize(args[0], cfg.Market.ExchangeSuffix)
	bars, err := archive.NewRepository(db.Pool).LoadBars(ctx, symbol, archiveInterval, from, to)
	if err != nil {
		return fmt.Errorf("load archived bars: %w", err)
	}

	if archiveJSON {
		return PrintJSON(bars)
	}

	fmt.Printf("%s %s  %s ~ %s\n", symbol, archiveInterval, from, to)
	if len(bars) == 0 {
		PrintInfo("No archived bars in range")
		return nil
	}

	widths := []int{10, 10, 10, 10, 10, 12}
	PrintTableHeader([]string{"Date", "Open", "High", "Low", "Close", "Volume"}, widths)
	for _, b := range bars {
		PrintTableRow([]string{
			b.Date,
			fmt.Sprintf("%.0f", b.Open),
			fmt.Sprintf("%.0f", b.High),
			fmt.Sprintf("%.0f", b.Low),
			fmt.Sprintf("%.0f", b.Close),
			fmt.Sprintf("%d", b.Volume),
		}, widths)
	}
	return nil
}
