package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/market"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// marketCmd represents the market command
var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "市場全体の照会",
	Long: `市場全体の騰落サマリー・セグメント履歴・売買代金ランキングを照会します。

Example:
  go run ./cmd/marketlog market breadth
  go run ./cmd/marketlog market history --days 14
  go run ./cmd/marketlog market ranking --top 20`,
}

// marketBreadthCmd represents the breadth subcommand
var marketBreadthCmd = &cobra.Command{
	Use:   "breadth",
	Short: "市場騰落サマリー",
	RunE:  runMarketBreadth,
}

// marketHistoryCmd represents the history subcommand
var marketHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "セグメント別売買代金履歴",
	RunE:  runMarketHistory,
}

// marketRankingCmd represents the ranking subcommand
var marketRankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "売買代金ランキング",
	RunE:  runMarketRanking,
}

var (
	// Market flags
	historyDays int
	rankingTop  int
)

func init() {
	rootCmd.AddCommand(marketCmd)
	marketCmd.AddCommand(marketBreadthCmd)
	marketCmd.AddCommand(marketHistoryCmd)
	marketCmd.AddCommand(marketRankingCmd)

	// Flags
	marketHistoryCmd.Flags().IntVar(&historyDays, "days", 0, "対象日数 (0は設定値)")
	marketRankingCmd.Flags().IntVar(&rankingTop, "top", 0, "上位件数 (0は設定値)")
}

// newAggregator builds the shared wiring for all market subcommands.
// CLI runs are one-shot, so the Redis memoization is skipped.
func newAggregator() (*market.Aggregator, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	src := jquants.NewSource(cfg, log)
	return market.NewAggregator(src, cfg, nil, log), cfg, nil
}

func runMarketBreadth(cmd *cobra.Command, args []string) error {
	agg, _, err := newAggregator()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	breadth, err := agg.Breadth(ctx)
	if err != nil {
		if contracts.IsNoData(err) {
			PrintWarning("直近に営業日が見つかりません")
			return nil
		}
		return fmt.Errorf("aggregate breadth: %w", err)
	}

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Market Breadth %s\n", breadth.Date.Format("2006-01-02"))
	PrintSeparator()
	if breadth.Degraded {
		fmt.Println("  (degraded: 比較対象の前営業日なし)")
	} else if breadth.PrevDate != nil {
		PrintKeyValue("Prev", breadth.PrevDate.Format("2006-01-02"), 10)
	}
	PrintKeyValue("Securities", fmt.Sprintf("%d", len(breadth.Rows)), 10)
	PrintKeyValue("Up", fmt.Sprintf("%d", breadth.Up), 10)
	PrintKeyValue("Down", fmt.Sprintf("%d", breadth.Down), 10)
	PrintKeyValue("Flat", fmt.Sprintf("%d", breadth.Flat), 10)
	PrintDoubleSeparator()
	return nil
}

func runMarketHistory(cmd *cobra.Command, args []string) error {
	agg, cfg, err := newAggregator()
	if err != nil {
		return err
	}

	days := historyDays
	if days <= 0 {
		days = cfg.Market.HistoryDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
	defer cancel()

	rows, err := agg.SegmentHistory(ctx, days)
	if err != nil {
		if contracts.IsNoData(err) {
			PrintWarning("対象期間に営業日が見つかりません")
			return nil
		}
		return fmt.Errorf("aggregate segment history: %w", err)
	}

	segments := []contracts.Segment{
		contracts.SegmentPrime,
		contracts.SegmentStandard,
		contracts.SegmentGrowth,
		contracts.SegmentOthers,
	}

	fmt.Println()
	widths := []int{12, 14, 14, 14, 14}
	PrintTableHeader([]string{"Date", "プライム(億円)", "スタンダード", "グロース", "その他"}, widths)
	for _, row := range rows {
		cells := []string{row.Date.Format("2006-01-02")}
		for _, seg := range segments {
			cells = append(cells, fmt.Sprintf("%.0f", row.TradingValueBySegment[seg]/contracts.Oku))
		}
		PrintTableRow(cells, widths)
	}
	return nil
}

func runMarketRanking(cmd *cobra.Command, args []string) error {
	agg, cfg, err := newAggregator()
	if err != nil {
		return err
	}

	top := rankingTop
	if top <= 0 {
		top = cfg.Market.TopN
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	breadth, err := agg.Breadth(ctx)
	if err != nil {
		if contracts.IsNoData(err) {
			PrintWarning("直近に営業日が見つかりません")
			return nil
		}
		return fmt.Errorf("aggregate breadth: %w", err)
	}

	ranked := market.RankByTradingValue(breadth.Rows, top)

	fmt.Println()
	fmt.Printf("売買代金ランキング %s (上位%d件)\n\n", breadth.Date.Format("2006-01-02"), len(ranked))
	widths := []int{4, 6, 20, 10, 12, 9}
	PrintTableHeader([]string{"#", "Code", "Name", "Close", "Value(億円)", "Close%"}, widths)
	for i, row := range ranked {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			row.Code,
			row.CompanyName,
			fmt.Sprintf("%.1f", row.Close),
			fmt.Sprintf("%.1f", row.TradingValue/contracts.Oku),
			formatPct(row.PriceChangePct),
		}, widths)
	}

	// Segment mix of the ranked slice, largest bucket first
	counts := make(map[contracts.Segment]int)
	for _, row := range ranked {
		counts[row.Segment]++
	}
	segments := make([]contracts.Segment, 0, len(counts))
	for seg := range counts {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool {
		if counts[segments[i]] != counts[segments[j]] {
			return counts[segments[i]] > counts[segments[j]]
		}
		return segments[i] < segments[j]
	})

	fmt.Println()
	for _, seg := range segments {
		PrintKeyValue(string(seg), fmt.Sprintf("%d", counts[seg]), 14)
	}
	return nil
}
