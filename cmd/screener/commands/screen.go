package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/normalize"
	"github.com/wonny/borsa-screener/internal/snapshot"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "종목 스크리닝 실행",
	Long: `업스트림(또는 JSON 파일)에서 종목을 받아 필터/정렬 후 표로 출력합니다.

프리셋을 지정하면 프리셋의 필터/정렬을 시작점으로 쓰고,
명시한 플래그가 그 위에 덮어씁니다.

Example:
  go run ./cmd/screener screen --preset oversold
  go run ./cmd/screener screen --source filtered --rsi 50-60 --sort rsi --order desc
  go run ./cmd/screener screen --file stocks.json --search thy --favorites-only`,
	RunE: runScreen,
}

var (
	screenFile          string
	screenSource        string
	screenPreset        string
	screenSearch        string
	screenRSI           string
	screenVolume        string
	screenChange        string
	screenDirection     string
	screenTrend         string
	screenMinPrice      float64
	screenMaxPrice      float64
	screenFavoritesOnly bool
	screenSort          string
	screenOrder         string
	screenJSON          bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Input
	screenCmd.Flags().StringVar(&screenFile, "file", "", "업스트림 대신 읽을 JSON 파일 (RawStock 배열)")
	screenCmd.Flags().StringVar(&screenSource, "source", snapshot.SourceUniverse, "업스트림 소스 (universe|filtered)")

	// Filters
	screenCmd.Flags().StringVar(&screenPreset, "preset", "", "프리셋 ID")
	screenCmd.Flags().StringVar(&screenSearch, "search", "", "심볼/종목명 검색어")
	screenCmd.Flags().StringVar(&screenRSI, "rsi", "", "RSI 구간 (all|oversold|neutral|overbought|50-60)")
	screenCmd.Flags().StringVar(&screenVolume, "volume", "", "거래량 구간 (all|above|high|very-high)")
	screenCmd.Flags().StringVar(&screenChange, "change", "", "등락 구간 (all|up|down|high)")
	screenCmd.Flags().StringVar(&screenDirection, "direction", "", "방향 패턴 (all|potential-up|oversold|bullish)")
	screenCmd.Flags().StringVar(&screenTrend, "trend", "", "예측 추세 (all|up|neutral|down)")
	screenCmd.Flags().Float64Var(&screenMinPrice, "min-price", contracts.DefaultMinPrice, "최소 가격")
	screenCmd.Flags().Float64Var(&screenMaxPrice, "max-price", contracts.DefaultMaxPrice, "최대 가격")
	screenCmd.Flags().BoolVar(&screenFavoritesOnly, "favorites-only", false, "즐겨찾기만")

	// Sort
	screenCmd.Flags().StringVar(&screenSort, "sort", "", "정렬 컬럼 (symbol|name|price|change|volume|relVolume|rsi)")
	screenCmd.Flags().StringVar(&screenOrder, "order", "", "정렬 방향 (asc|desc)")

	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "JSON 출력")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, log, screenSource)
	if err != nil {
		return err
	}
	defer a.Close()

	filter, sortState, err := screenState(cmd, a)
	if err != nil {
		return err
	}

	records, err := screenRecords(ctx, a)
	if err != nil {
		return err
	}

	view, err := a.engine.Run(records, filter, sortState)
	if err != nil {
		return err
	}

	if screenJSON {
		return PrintJSON(view)
	}
	PrintHeader("Stock Screen")
	PrintScreenView(view, len(records))
	return nil
}

// screenState resolves the preset and overlays explicitly set flags
func screenState(cmd *cobra.Command, a *app) (contracts.FilterState, contracts.SortState, error) {
	filter := contracts.DefaultFilterState()
	sortState := contracts.DefaultSortState()

	if screenPreset != "" {
		p, err := a.presets.Get(screenPreset)
		if err != nil {
			return filter, sortState, err
		}
		filter, sortState = p.Filter, p.Sort
	}

	flags := cmd.Flags()
	if flags.Changed("search") {
		filter = filter.WithSearch(screenSearch)
	}
	if flags.Changed("rsi") {
		filter = filter.WithRSI(contracts.RSIBucket(screenRSI))
	}
	if flags.Changed("volume") {
		filter = filter.WithVolume(contracts.VolumeBucket(screenVolume))
	}
	if flags.Changed("change") {
		filter = filter.WithChange(contracts.ChangeBucket(screenChange))
	}
	if flags.Changed("direction") {
		filter = filter.WithDirection(contracts.Direction(screenDirection))
	}
	if flags.Changed("trend") {
		filter = filter.WithTrend(contracts.TrendFilter(screenTrend))
	}
	if flags.Changed("min-price") || flags.Changed("max-price") {
		filter = filter.WithPriceRange(screenMinPrice, screenMaxPrice)
	}
	if flags.Changed("favorites-only") {
		filter = filter.WithFavoritesOnly(screenFavoritesOnly)
	}

	if flags.Changed("sort") {
		sortState.Field = contracts.SortField(screenSort)
	}
	if flags.Changed("order") {
		dir, err := contracts.ParseSortDirection(screenOrder)
		if err != nil {
			return filter, sortState, err
		}
		sortState.Direction = dir
	}

	return filter, sortState, nil
}

// screenRecords loads records from --file, or refreshes a snapshot from the upstream
func screenRecords(ctx context.Context, a *app) ([]contracts.StockRecord, error) {
	if screenFile == "" {
		snap, err := a.refresher.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh snapshot: %w", err)
		}
		if snap.Dropped > 0 {
			a.log.WithField("dropped", snap.Dropped).Warn("Dropped invalid upstream rows")
		}
		return snap.Records, nil
	}

	data, err := os.ReadFile(screenFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", screenFile, err)
	}
	var raws []normalize.RawStock
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", screenFile, err)
	}

	batch := a.normalizer.NormalizeBatch(raws)
	if batch.Dropped > 0 {
		a.log.WithFields(map[string]interface{}{
			"dropped": batch.Dropped,
			"reasons": batch.DropReasons,
		}).Warn("Dropped invalid rows")
	}
	return batch.Records, nil
}
