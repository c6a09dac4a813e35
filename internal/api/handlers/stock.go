package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/master"
	"github.com/takumi-oka/market-log/internal/stock"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// StockHandler handles per-security API endpoints
// ⭐ SSOT: 銘柄系APIハンドラはこの構造体だけ
type StockHandler struct {
	stocks    *stock.Service
	src       jquants.Source
	watchlist map[string]string
	logger    *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stocks *stock.Service, src jquants.Source, cfg *config.Config, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stocks:    stocks,
		src:       src,
		watchlist: cfg.Watchlist,
		logger:    log,
	}
}

// List returns the security master list
// GET /api/stocks
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	mc, err := master.Load(r.Context(), h.src, h.logger)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, mc.Records())
}

// Search resolves a code-or-name query against the master list
// GET /api/stocks/search?q=<query>
func (h *StockHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeBadRequest(w, "q parameter is required")
		return
	}

	mc, err := master.Load(r.Context(), h.src, h.logger)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	rec, found := mc.Search(query)
	if !found {
		writeFetchError(w, contracts.NoDataError("no security matches "+query))
		return
	}
	writeJSON(w, rec)
}

// Prices returns the canonical price table for one security. With
// ?recent=N the response is the last-N day-over-day table instead.
// GET /api/stocks/{code}/prices[?recent=N]
func (h *StockHandler) Prices(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(r)
	if !ok {
		writeBadRequest(w, "code must be 4 or 5 digits")
		return
	}

	bars, err := h.stocks.PriceHistory(r.Context(), code)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	if recentStr := r.URL.Query().Get("recent"); recentStr != "" {
		recent, err := strconv.Atoi(recentStr)
		if err != nil || recent <= 0 {
			writeBadRequest(w, "recent must be a positive integer")
			return
		}
		writeJSON(w, stock.RecentHistory(bars, recent))
		return
	}

	writeJSON(w, bars)
}

// Financials returns the full-year statement table with PER/PBR
// GET /api/stocks/{code}/financials
func (h *StockHandler) Financials(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(r)
	if !ok {
		writeBadRequest(w, "code must be 4 or 5 digits")
		return
	}

	// The valuation ratios need the price series for the as-of join
	bars, err := h.stocks.PriceHistory(r.Context(), code)
	if err != nil && !contracts.IsNoData(err) {
		writeFetchError(w, err)
		return
	}

	statements, err := h.stocks.FinancialHistory(r.Context(), code, bars)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, statements)
}

// Investors returns the weekly net investor-flow series
// GET /api/stocks/{code}/investors
func (h *StockHandler) Investors(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(r)
	if !ok {
		writeBadRequest(w, "code must be 4 or 5 digits")
		return
	}

	flows, err := h.stocks.InvestorFlows(r.Context(), code)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, flows)
}

// watchEntry is one row of the watched-stock board
type watchEntry struct {
	Code  string           `json:"code"`
	Name  string           `json:"name"`
	Quote *contracts.Quote `json:"quote,omitempty"`
	Error string           `json:"error,omitempty"`
}

// Watchlist returns the latest quote for each watched security. A failure
// for one security does not fail the board.
// GET /api/watchlist
func (h *StockHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	codes := make([]string, 0, len(h.watchlist))
	for code := range h.watchlist {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	entries := make([]watchEntry, 0, len(codes))
	for _, code := range codes {
		entry := watchEntry{Code: code, Name: h.watchlist[code]}
		quote, err := h.stocks.LatestQuote(r.Context(), code)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Quote = &quote
		}
		entries = append(entries, entry)
	}

	writeJSON(w, entries)
}

// pathCode extracts and validates the {code} path variable
func pathCode(r *http.Request) (string, bool) {
	code := mux.Vars(r)["code"]
	if !contracts.IsCodeQuery(code) {
		return "", false
	}
	return code, true
}
