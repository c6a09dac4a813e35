package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/master"
	"github.com/takumi-oka/market-log/internal/stock"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// stockCmd represents the stock command
var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "個別銘柄の照会",
	Long: `個別銘柄の株価・財務・投資部門別フローを照会します。

Example:
  go run ./cmd/marketlog stock quote 8058
  go run ./cmd/marketlog stock prices 8058 --recent 14
  go run ./cmd/marketlog stock financials 8058`,
}

// stockQuoteCmd represents the quote subcommand
var stockQuoteCmd = &cobra.Command{
	Use:   "quote [code]",
	Short: "最新株価の照会",
	Args:  cobra.ExactArgs(1),
	RunE:  runStockQuote,
}

// stockPricesCmd represents the prices subcommand
var stockPricesCmd = &cobra.Command{
	Use:   "prices [code]",
	Short: "直近の株価履歴テーブル",
	Args:  cobra.ExactArgs(1),
	RunE:  runStockPrices,
}

// stockFinancialsCmd represents the financials subcommand
var stockFinancialsCmd = &cobra.Command{
	Use:   "financials [code]",
	Short: "通期決算の推移とPER/PBR",
	Args:  cobra.ExactArgs(1),
	RunE:  runStockFinancials,
}

var (
	// Stock flags
	pricesRecent int
)

func init() {
	rootCmd.AddCommand(stockCmd)
	stockCmd.AddCommand(stockQuoteCmd)
	stockCmd.AddCommand(stockPricesCmd)
	stockCmd.AddCommand(stockFinancialsCmd)

	// Flags
	stockPricesCmd.Flags().IntVar(&pricesRecent, "recent", 14, "表示する日数")
}

// newStockService builds the shared wiring for all stock subcommands
func newStockService() (*stock.Service, jquants.Source, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	src := jquants.NewSource(cfg, log)
	return stock.NewService(src, cfg, log), src, log, nil
}

func runStockQuote(cmd *cobra.Command, args []string) error {
	code := args[0]

	svc, src, log, err := newStockService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	quote, err := svc.LatestQuote(ctx, code)
	if err != nil {
		return fmt.Errorf("fetch quote: %w", err)
	}

	// Best effort name lookup: the quote itself never depends on the master
	name := quote.Code
	if mc, err := master.Load(ctx, src, log); err == nil {
		if n, ok := mc.Name(quote.Code); ok {
			name = n
		}
	}

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s (%s)\n", name, quote.Code)
	PrintSeparator()
	PrintKeyValue("Date", quote.Date.Format("2006-01-02"), 10)
	PrintKeyValue("Close", fmt.Sprintf("%.1f", quote.Close), 10)
	PrintKeyValue("Prev", fmt.Sprintf("%.1f", quote.PrevClose), 10)
	PrintKeyValue("Delta", fmt.Sprintf("%+.1f", quote.CloseDelta), 10)
	PrintDoubleSeparator()
	return nil
}

func runStockPrices(cmd *cobra.Command, args []string) error {
	code := args[0]

	svc, _, _, err := newStockService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bars, err := svc.PriceHistory(ctx, code)
	if err != nil {
		return fmt.Errorf("fetch price history: %w", err)
	}

	rows := stock.RecentHistory(bars, pricesRecent)

	fmt.Println()
	widths := []int{12, 10, 9, 12, 9}
	PrintTableHeader([]string{"Date", "Close", "Close%", "Value(億円)", "Value%"}, widths)
	for _, row := range rows {
		PrintTableRow([]string{
			row.Date.Format("2006-01-02"),
			fmt.Sprintf("%.1f", row.Close),
			formatPct(row.ClosePct),
			fmt.Sprintf("%.1f", row.TradingValueOku),
			formatPct(row.ValuePct),
		}, widths)
	}
	return nil
}

func runStockFinancials(cmd *cobra.Command, args []string) error {
	code := args[0]

	svc, _, _, err := newStockService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// PER/PBR need the as-of close; a missing price history only drops the ratios
	bars, err := svc.PriceHistory(ctx, code)
	if err != nil && !contracts.IsNoData(err) {
		return fmt.Errorf("fetch price history: %w", err)
	}

	statements, err := svc.FinancialHistory(ctx, code, bars)
	if err != nil {
		return fmt.Errorf("fetch financials: %w", err)
	}

	fmt.Println()
	widths := []int{12, 12, 14, 14, 8, 8}
	PrintTableHeader([]string{"Disclosed", "Period End", "Sales(億円)", "OP(億円)", "PER", "PBR"}, widths)
	for _, st := range statements {
		PrintTableRow([]string{
			st.DisclosureDate.Format("2006-01-02"),
			st.FiscalPeriodEnd.Format("2006-01-02"),
			formatOku(st.NetSales),
			formatOku(st.OperatingProfit),
			formatRatio(st.PER),
			formatRatio(st.PBR),
		}, widths)
	}
	return nil
}
