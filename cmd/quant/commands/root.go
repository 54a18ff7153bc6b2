package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/idxscreen/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "IDX 종목 분석/스크리닝 서비스",
	Long: `idxscreen Unified CLI

Indonesia Stock Exchange (IDX) 종목의 시세 조회, 기술적 지표 계산,
스크리닝, 회귀 학습용 데이터셋 추출을 제공하는 Go 서비스.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant api
  go run ./cmd/quant worker
  go run ./cmd/quant indicators BBCA
  go run ./cmd/quant screen BBCA BBRI TLKM --criteria rsiOversold,highVolume
  go run ./cmd/quant check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
