package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/scheduler"
	"github.com/wonny/borsa-screener/internal/selection"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const rule = "───────────────────────────────────────────────────────────"

// PrintHeader prints a formatted command header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println(rule)
}

// PrintScreenView prints screening results as a table
func PrintScreenView(view selection.View, total int) {
	fmt.Printf("  Filters   : %d active\n", view.ActiveFilterCount)
	fmt.Printf("  Sort      : %s %s\n", view.Sort.Field, view.Sort.Direction)
	fmt.Printf("  Favorites : %d\n", view.FavoriteCount)
	fmt.Println(rule)
	fmt.Printf("  %-2s %-8s %-24s %10s %8s %8s %6s %12s\n",
		"", "SYMBOL", "NAME", "PRICE", "CHG%", "RVOL", "RSI", "VOLUME")

	for _, r := range view.Records {
		star := ""
		if view.Favorites.Contains(r.Symbol) {
			star = "★"
		}
		fmt.Printf("  %-2s %-8s %-24s %10s %8s %8s %6s %12s\n",
			star, r.Symbol, truncate(r.Name, 24),
			formatFloat(r.Price, 2), formatFloat(r.DailyChangePercent, 2),
			formatFloat(r.RelativeVolume, 2), formatFloat(r.RSI, 1), formatInt(r.Volume))
	}

	fmt.Println(rule)
	fmt.Printf("✅ %d / %d stocks matched\n", len(view.Records), total)
}

// PrintChart prints a stitched chart summary followed by the axis rows
func PrintChart(symbol string, series contracts.CombinedSeries, warnings []string) {
	fmt.Printf("  Symbol    : %s\n", symbol)
	fmt.Printf("  Slots     : %d\n", len(series.Timestamps))
	for _, c := range series.Channels {
		fmt.Printf("  %-9s : %d values (%s)\n", c.Name, c.ValueCount(), c.Kind)
	}
	for _, w := range warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
	fmt.Println(rule)

	names := make([]string, 0, len(series.Channels))
	for _, c := range series.Channels {
		names = append(names, fmt.Sprintf("%10s", c.Name))
	}
	fmt.Printf("  %-16s %s\n", "TIME", strings.Join(names, " "))
	for i, ts := range series.Timestamps {
		cols := make([]string, 0, len(series.Channels))
		for _, c := range series.Channels {
			cols = append(cols, fmt.Sprintf("%10s", formatFloat(c.Points[i].Value, 2)))
		}
		fmt.Printf("  %-16s %s\n", ts.Format("2006-01-02 15:04"), strings.Join(cols, " "))
	}
}

// PrintJobResult prints a single job execution result
func PrintJobResult(r scheduler.JobResult) {
	status := "✅"
	if !r.Success {
		status = "❌"
	}
	fmt.Printf("%s %s (attempts=%d, %s)\n", status, r.JobName, r.Attempts, r.Duration.Round(time.Millisecond))
	if r.Error != "" {
		fmt.Printf("   error: %s\n", r.Error)
	}
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, *v)
}

func formatInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
