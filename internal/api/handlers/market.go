package handlers

import (
	"net/http"
	"strconv"

	"github.com/takumi-oka/market-log/internal/market"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// MarketHandler handles market-wide API endpoints
// ⭐ SSOT: 市場系APIハンドラはこの構造体だけ
type MarketHandler struct {
	aggregator *market.Aggregator
	cfg        config.MarketConfig
	logger     *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(aggregator *market.Aggregator, cfg *config.Config, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		aggregator: aggregator,
		cfg:        cfg.Market,
		logger:     log,
	}
}

// Breadth returns the single-day up/down/flat summary with per-code rows
// GET /api/market/breadth
func (h *MarketHandler) Breadth(w http.ResponseWriter, r *http.Request) {
	breadth, err := h.aggregator.Breadth(r.Context())
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, breadth)
}

// History returns the segment-by-day trading value matrix
// GET /api/market/history?days=N
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	days := h.cfg.HistoryDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "days must be a positive integer")
			return
		}
		days = parsed
	}

	history, err := h.aggregator.SegmentHistory(r.Context(), days)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, history)
}

// Ranking returns the top-N trading-value ranking of today's breadth rows
// GET /api/market/ranking?top=N
func (h *MarketHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	topN := h.cfg.TopN
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		parsed, err := strconv.Atoi(topStr)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "top must be a positive integer")
			return
		}
		topN = parsed
	}

	breadth, err := h.aggregator.Breadth(r.Context())
	if err != nil {
		writeFetchError(w, err)
		return
	}

	writeJSON(w, market.RankByTradingValue(breadth.Rows, topN))
}
