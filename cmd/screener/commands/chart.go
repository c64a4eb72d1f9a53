package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/borsa-screener/internal/forecast"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart [symbol]",
	Short: "예측 차트 시계열 출력",
	Long: `시간봉 이력과 모델 예측을 하나의 x축으로 합성해 출력합니다.

예측 조회가 실패하면 이력만으로 차트를 만들고 경고를 표시합니다.

Example:
  go run ./cmd/screener chart THYAO
  go run ./cmd/screener chart ASELS --models lstm,gru --days 14
  go run ./cmd/screener chart GARAN --json`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

var (
	chartModels string
	chartDays   int
	chartJSON   bool
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVar(&chartModels, "models", "", "표시할 모델 (쉼표 구분, 기본: 전체)")
	chartCmd.Flags().IntVar(&chartDays, "days", 0, "이력 일수 (1-90, 기본: CHART_HISTORY_DAYS)")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "JSON 출력")
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	models, err := forecast.ParseModels(chartModels)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg, log, "")
	if err != nil {
		return err
	}
	defer a.Close()

	chart, err := a.charts.Build(ctx, args[0], models, chartDays)
	if err != nil {
		return err
	}

	if chartJSON {
		return PrintJSON(chart)
	}
	PrintHeader("Forecast Chart")
	PrintChart(chart.Symbol, chart.Series, chart.Warnings)
	return nil
}
