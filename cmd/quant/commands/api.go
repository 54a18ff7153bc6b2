package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/idxscreen/internal/api"
	"github.com/wonny/idxscreen/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 시세/지표/스크리닝/데이터셋 엔드포인트 제공
- 캐시 정리/워밍 작업을 같은 프로세스에서 실행 (--jobs)

Endpoints:
  GET  /health
  GET  /api/criteria
  GET  /api/strategies
  GET  /api/stocks/popular
  GET  /api/stocks/quotes?symbols=BBCA,BBRI
  GET  /api/stocks/{symbol}/history
  GET  /api/stocks/{symbol}/indicators
  GET  /api/stocks/{symbol}/orderbook
  GET  /api/stocks/{symbol}/broker
  GET  /api/stocks/{symbol}/features?date=YYYY-MM-DD
  POST /api/stocks/screen
  POST /api/stocks/batch
  POST /api/stocks/compare
  POST /api/stocks/regression-data

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --jobs=false`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiJobs bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT env)")
	apiCmd.Flags().BoolVar(&apiJobs, "jobs", true, "캐시 정리/워밍 작업 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== idxscreen API Server ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 1. Handlers
	stockHandler := handlers.NewStockHandler(a.service, log)
	analysisHandler := handlers.NewAnalysisHandler(a.service, log)
	healthHandler := handlers.NewHealthHandler("idxscreen-api", a.healthChecks())

	// 2. Router + server
	router := api.NewRouter(stockHandler, analysisHandler, healthHandler, log)
	server := api.New(a.cfg, log, router)

	// 3. Background jobs
	if apiJobs {
		sched, err := a.newScheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// 4. Serve until Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// healthChecks lists dependencies for /health; unconfigured ones stay nil
func (a *app) healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"database": nil,
		"redis":    nil,
	}
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.redis != nil && a.redis.Enabled() {
		checks["redis"] = a.redis
	}
	return checks
}
