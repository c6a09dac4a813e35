package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/takumi-oka/market-log/internal/api"
	"github.com/takumi-oka/market-log/internal/api/handlers"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/market"
	"github.com/takumi-oka/market-log/internal/scheduler"
	"github.com/takumi-oka/market-log/internal/scheduler/jobs"
	"github.com/takumi-oka/market-log/internal/stock"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
	"github.com/takumi-oka/market-log/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "APIサーバー起動",
	Long: `REST APIサーバーを起動します。

この命令は:
- HTTP APIサーバー起動
- 銘柄・市場データのエンドポイント提供
- セグメント履歴キャッシュのウォームジョブ登録 (設定時)

Endpoints:
  GET  /health                        - Health check
  GET  /api/stocks                    - 銘柄マスタ一覧
  GET  /api/stocks/{code}/prices      - 株価履歴
  GET  /api/market/breadth            - 市場騰落サマリー
  GET  /api/market/history            - セグメント別売買代金履歴

Example:
  go run ./cmd/marketlog api
  go run ./cmd/marketlog api --port 8089`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "APIサーバーのポート")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== market-log API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
		"mock": cfg.JQuants.MockMode,
	}).Info("Initializing API server")

	// 3. Connect to Redis (optional, cache misses when unavailable)
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		redisClient = nil
	}
	var cache *redis.Cache
	if redisClient != nil {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, "marketlog")
	}

	// 4. Create data source (live J-Quants client or fixture dataset)
	src := jquants.NewSource(cfg, log)

	// 5. Create services
	stockService := stock.NewService(src, cfg, log)
	aggregator := market.NewAggregator(src, cfg, cache, log)

	// 6. Create handlers
	stockHandler := handlers.NewStockHandler(stockService, src, cfg, log)
	marketHandler := handlers.NewMarketHandler(aggregator, cfg, log)

	// 7. Create router
	router := api.NewRouter(stockHandler, marketHandler, log)

	// 8. Create server
	server := api.New(cfg, log, router)

	// 9. Schedule the cache warm job when configured
	var sched *scheduler.Scheduler
	if cfg.Market.WarmSchedule != "" {
		sched = scheduler.New(log)
		warmJob := jobs.NewHistoryWarmJob(aggregator, cfg.Market.HistoryDays, cfg.Market.WarmSchedule, log)
		if err := sched.AddJob(warmJob); err != nil {
			return fmt.Errorf("schedule warm job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/stocks")
	fmt.Println("  GET  /api/stocks/search?q={code|name}")
	fmt.Println("  GET  /api/stocks/{code}/prices")
	fmt.Println("  GET  /api/stocks/{code}/financials")
	fmt.Println("  GET  /api/stocks/{code}/investors")
	fmt.Println("  GET  /api/watchlist")
	fmt.Println("  GET  /api/market/breadth")
	fmt.Println("  GET  /api/market/history")
	fmt.Println("  GET  /api/market/ranking")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
