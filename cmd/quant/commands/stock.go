package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/pipeline"
)

// indicatorsCmd prints the indicator snapshot and signals of one symbol
var indicatorsCmd = &cobra.Command{
	Use:   "indicators [symbol]",
	Short: "종목 기술적 지표/시그널 조회",
	Long: `종목의 차트를 가져와 기술적 지표와 시그널을 계산합니다.

Example:
  go run ./cmd/quant indicators BBCA
  go run ./cmd/quant indicators TLKM --range 1y --interval 1wk --json`,
	Args: cobra.ExactArgs(1),
	RunE: runIndicators,
}

// screenCmd scores symbols against screening criteria
var screenCmd = &cobra.Command{
	Use:   "screen [symbols...]",
	Short: "종목 스크리닝",
	Long: `종목들을 스크리닝 조건으로 평가하고 점수 순으로 출력합니다.

Example:
  go run ./cmd/quant screen BBCA BBRI TLKM --criteria rsiOversold,highVolume
  go run ./cmd/quant screen BBCA ASII UNVR --strategy value
  go run ./cmd/quant screen --list`,
	RunE: runScreen,
}

// datasetCmd exports labelled regression rows
var datasetCmd = &cobra.Command{
	Use:   "dataset [symbols...]",
	Short: "회귀 학습 데이터셋 추출",
	Long: `종목들의 일봉으로 look-ahead 없는 피처/라벨 데이터셋을 JSON 으로 출력합니다.

Example:
  go run ./cmd/quant dataset BBCA BBRI --start 2024-01-01 --end 2024-06-30
  go run ./cmd/quant dataset ASII --up 2 --down -1 --neutral > asii.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDataset,
}

var (
	stockRange    string
	stockInterval string
	stockJSON     bool

	screenCriteria string
	screenStrategy string
	screenList     bool

	datasetOpts = contracts.DefaultDatasetOptions()
)

func init() {
	rootCmd.AddCommand(indicatorsCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(datasetCmd)

	for _, c := range []*cobra.Command{indicatorsCmd, screenCmd} {
		c.Flags().StringVar(&stockRange, "range", "", "차트 기간 (default: DEFAULT_RANGE)")
		c.Flags().StringVar(&stockInterval, "interval", "", "봉 간격 (default: DEFAULT_INTERVAL)")
		c.Flags().BoolVar(&stockJSON, "json", false, "JSON 출력")
	}

	screenCmd.Flags().StringVar(&screenCriteria, "criteria", "", "쉼표로 구분한 조건 이름")
	screenCmd.Flags().StringVar(&screenStrategy, "strategy", "", "스크리닝 전략 id (SCREEN_STRATEGIES_FILE 또는 기본 전략)")
	screenCmd.Flags().BoolVar(&screenList, "list", false, "사용 가능한 조건/전략 목록")

	datasetCmd.Flags().StringVar(&datasetOpts.StartDate, "start", "", "시작일 YYYY-MM-DD")
	datasetCmd.Flags().StringVar(&datasetOpts.EndDate, "end", "", "종료일 YYYY-MM-DD")
	datasetCmd.Flags().Float64Var(&datasetOpts.UpThreshold, "up", datasetOpts.UpThreshold, "상승 라벨 기준 수익률(%)")
	datasetCmd.Flags().Float64Var(&datasetOpts.DownThreshold, "down", datasetOpts.DownThreshold, "하락 라벨 기준 수익률(%)")
	datasetCmd.Flags().BoolVar(&datasetOpts.IncludeNeutral, "neutral", false, "중립 행 포함")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.service.Analyze(cmd.Context(), args[0], stockRange, stockInterval)
	if err != nil {
		return err
	}
	if stockJSON {
		return PrintJSON(map[string]interface{}{
			"symbol":     report.Symbol,
			"indicators": report.Indicators.Current,
			"signals":    report.Signals,
		})
	}

	cur := report.Indicators.Current
	fmt.Printf("📈 %s  (%s, %d bars)\n", report.Symbol, cur.Date, len(report.Series.Bars))
	PrintSeparator()
	PrintKeyValue("Price", formatValue(cur.Price), 10)
	PrintKeyValue("SMA20", formatValue(cur.SMA20), 10)
	PrintKeyValue("SMA50", formatValue(cur.SMA50), 10)
	PrintKeyValue("RSI", formatValue(cur.RSI), 10)
	PrintKeyValue("MACD", formatValue(cur.MACD.Line), 10)
	PrintKeyValue("Signal", formatValue(cur.MACD.Signal), 10)
	PrintKeyValue("ADX", formatValue(cur.ADX.ADX), 10)
	PrintKeyValue("ATR", formatValue(cur.ATR), 10)
	PrintSeparator()

	if len(report.Signals) == 0 {
		PrintInfo("No signals")
		return nil
	}
	for _, s := range report.Signals {
		fmt.Printf("   [%s] %s: %s\n", strings.ToUpper(string(s.Type)), s.Indicator, s.Reason)
	}
	return nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if screenList {
		widths := []int{20, 14}
		PrintTableHeader([]string{"CRITERION", "CATEGORY"}, widths)
		for _, def := range a.service.Criteria() {
			PrintTableRow([]string{string(def.Name), string(def.Category)}, widths)
		}
		fmt.Println()
		PrintTableHeader([]string{"STRATEGY", "MIN SCORE"}, widths)
		for _, s := range a.service.Strategies() {
			PrintTableRow([]string{s.ID, fmt.Sprintf("%.0f", s.MinScore)}, widths)
		}
		return nil
	}

	req := pipeline.ScreenRequest{
		Symbols:  args,
		Criteria: contracts.ScreeningCriteria{},
		Range:    stockRange,
		Interval: stockInterval,
		Strategy: screenStrategy,
	}
	for _, name := range splitList(screenCriteria) {
		req.Criteria[contracts.Criterion(name)] = true
	}

	entries, err := a.service.Screen(cmd.Context(), req)
	if err != nil {
		return err
	}
	if stockJSON {
		return PrintJSON(entries)
	}

	widths := []int{8, 12, 8, 10}
	PrintTableHeader([]string{"SYMBOL", "PRICE", "SCORE", "MET"}, widths)
	for _, e := range entries {
		if e.ScreenItem == nil {
			PrintTableRow([]string{e.Symbol, "-", "-", e.Error}, widths)
			continue
		}
		PrintTableRow([]string{
			e.Symbol,
			formatValue(e.Price),
			fmt.Sprintf("%.1f", e.Score()),
			fmt.Sprintf("%d/%d", e.Screening.ConditionsMet, e.Screening.TotalConditions),
		}, widths)
	}
	return nil
}

func runDataset(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ds, err := a.service.RegressionData(cmd.Context(), pipeline.DatasetRequest{
		Symbols: args,
		Options: datasetOpts,
	})
	if err != nil {
		return err
	}
	return PrintJSON(ds)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
