package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/idxscreen/internal/archive"
	"github.com/wonny/idxscreen/internal/marketdata"
	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/database"
	"github.com/wonny/idxscreen/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "의존성 연결 점검",
	Long: `설정과 외부 의존성 연결을 점검합니다.

이 명령어는:
- 환경변수 설정 로드 및 검증
- PostgreSQL 연결, Health Check, Connection Pool 통계 (DATABASE_URL 설정 시)
- 가격 아카이브 스키마 확인 및 저장된 봉 개수
- Redis Ping (REDIS_ENABLED=true 시)
- 시세 upstream 조회 (--symbol)

Example:
  go run ./cmd/quant check
  go run ./cmd/quant check --symbol TLKM --env production`,
	RunE: runCheck,
}

var checkSymbol string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkSymbol, "symbol", "BBCA", "upstream 조회에 사용할 종목")
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== idxscreen Dependency Check ===")
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))
	PrintKeyValue("Cache", cfg.Cache.Backend, 12)
	PrintKeyValue("Database", maskPassword(cfg.Database.URL), 12)
	fmt.Println()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := checkDatabase(ctx, cfg); err != nil {
		return err
	}
	if err := checkRedis(ctx, cfg); err != nil {
		return err
	}
	if err := checkUpstream(ctx); err != nil {
		return err
	}

	fmt.Println()
	PrintSuccess("All checks passed!")
	return nil
}

func checkDatabase(ctx context.Context, cfg *config.Config) error {
	PrintSeparator()
	fmt.Println("PostgreSQL")

	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		PrintInfo("DATABASE_URL not set, archive disabled")
		return nil
	}
	if err != nil {
		PrintError("Failed to connect to database")
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError("Health check failed")
		return err
	}
	PrintSuccess("Database connection established")
	PrintKeyValue("Response Time", status.ResponseTime.String(), 16)
	PrintKeyValue("Max Conns", fmt.Sprintf("%d", status.Stats.MaxConns), 16)
	PrintKeyValue("Total Conns", fmt.Sprintf("%d", status.Stats.TotalConns), 16)
	PrintKeyValue("Idle Conns", fmt.Sprintf("%d", status.Stats.IdleConns), 16)

	repo := archive.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		PrintError("Archive schema check failed")
		return err
	}
	symbol := marketdata.Normalize(checkSymbol, cfg.Market.ExchangeSuffix)
	count, err := repo.CountBars(ctx, symbol)
	if err != nil {
		return fmt.Errorf("count archived bars: %w", err)
	}
	PrintKeyValue("Archived Bars", fmt.Sprintf("%d (%s)", count, symbol), 16)
	return nil
}

func checkRedis(ctx context.Context, cfg *config.Config) error {
	PrintSeparator()
	fmt.Println("Redis")

	if !cfg.Redis.Enabled {
		PrintInfo("REDIS_ENABLED=false, skipped")
		return nil
	}

	client, err := redis.New(cfg)
	if err != nil {
		PrintError("Failed to connect to redis")
		return err
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		PrintError("Ping failed")
		return err
	}
	PrintSuccess(fmt.Sprintf("Ping successful (%s:%s db=%d)", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB))
	return nil
}

func checkUpstream(ctx context.Context) error {
	PrintSeparator()
	fmt.Println("Market data upstream")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	quote, err := a.gateway.FetchQuote(ctx, checkSymbol)
	if err != nil {
		PrintError(fmt.Sprintf("Quote lookup failed for %s", checkSymbol))
		return err
	}
	price := "n/a"
	if quote.Price.Valid {
		price = fmt.Sprintf("%.2f", quote.Price.Float64)
	}
	PrintSuccess(fmt.Sprintf("Quote received for %s", quote.Symbol))
	PrintKeyValue("Price", price, 16)
	return nil
}

// maskPassword hides the password in a connection URL for display
func maskPassword(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
