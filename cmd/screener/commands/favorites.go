package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/borsa-screener/pkg/logger"
)

// favoritesCmd represents the favorites command group
var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "즐겨찾기 관리",
	Long: `즐겨찾기 종목을 조회/추가/삭제/토글합니다.
저장소는 FAVORITES_BACKEND (file|memory|redis|postgres) 로 선택합니다.

Example:
  go run ./cmd/screener favorites list
  go run ./cmd/screener favorites add THYAO
  go run ./cmd/screener favorites toggle ASELS`,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "즐겨찾기 목록",
	RunE: withFavorites(func(ctx context.Context, a *app, _ []string) error {
		symbols := a.favorites.All()
		if len(symbols) == 0 {
			fmt.Println("No favorites")
			return nil
		}
		for _, s := range symbols {
			fmt.Printf("★ %s\n", s)
		}
		fmt.Printf("\nTotal: %d\n", len(symbols))
		return nil
	}),
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add [symbol]",
	Short: "즐겨찾기 추가",
	Args:  cobra.ExactArgs(1),
	RunE: withFavorites(func(ctx context.Context, a *app, args []string) error {
		if err := a.favorites.Add(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ %s added\n", args[0])
		return nil
	}),
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove [symbol]",
	Short: "즐겨찾기 삭제",
	Args:  cobra.ExactArgs(1),
	RunE: withFavorites(func(ctx context.Context, a *app, args []string) error {
		if err := a.favorites.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ %s removed\n", args[0])
		return nil
	}),
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle [symbol]",
	Short: "즐겨찾기 토글",
	Args:  cobra.ExactArgs(1),
	RunE: withFavorites(func(ctx context.Context, a *app, args []string) error {
		on, err := a.favorites.Toggle(ctx, args[0])
		if err != nil {
			return err
		}
		state := "off"
		if on {
			state = "on"
		}
		fmt.Printf("✅ %s → %s\n", args[0], state)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
}

// withFavorites wires the app before running fn
func withFavorites(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.New(cfg)

		a, err := newApp(cmd.Context(), cfg, log, "")
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(cmd.Context(), a, args)
	}
}
