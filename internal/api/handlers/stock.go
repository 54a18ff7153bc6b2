package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/idxscreen/internal/pipeline"
	"github.com/wonny/idxscreen/pkg/logger"
)

// StockHandler handles single-symbol endpoints
// ⭐ SSOT: 종목 API 핸들러는 이 구조체에서만
type StockHandler struct {
	service *pipeline.Service
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service *pipeline.Service, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: service,
		logger:  log,
	}
}

// fail logs and writes a domain error
func (h *StockHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := h.logger.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Warn("Request rejected")
	}
	respondError(w, status, err.Error())
}

// GetHistory returns the bar history of a stock
// GET /api/stocks/{symbol}/history?range=6mo&interval=1d
func (h *StockHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	series, err := h.service.History(r.Context(), mux.Vars(r)["symbol"], q.Get("range"), q.Get("interval"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetIndicators returns indicators, signals and bars of a stock
// GET /api/stocks/{symbol}/indicators?range=6mo&interval=1d
func (h *StockHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.service.Analyze(r.Context(), mux.Vars(r)["symbol"], q.Get("range"), q.Get("interval"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":     report.Symbol,
		"indicators": report.Indicators,
		"signals":    report.Signals,
		"bars":       report.Series.Bars,
	})
}

// GetQuotes returns quotes for several stocks
// GET /api/stocks/quotes?symbols=BBCA,TLKM
func (h *StockHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.Quotes(r.Context(), splitSymbols(r.URL.Query().Get("symbols")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

// GetOrderBook returns the order book of a stock
// GET /api/stocks/{symbol}/orderbook
func (h *StockHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.OrderBook(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

// GetBroker returns the broker summary of a stock
// GET /api/stocks/{symbol}/broker
func (h *StockHandler) GetBroker(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Broker(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetFeatures returns the dataset feature row for a target date
// GET /api/stocks/{symbol}/features?date=2024-06-03&timeframe=1&realtime=true
func (h *StockHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	timeframe := 1
	if tf := q.Get("timeframe"); tf != "" {
		n, err := strconv.Atoi(tf)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "timeframe must be a positive integer")
			return
		}
		timeframe = n
	}

	realtime := false
	if v := q.Get("realtime"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "realtime must be true or false")
			return
		}
		realtime = b
	}

	snap, err := h.service.Features(r.Context(), pipeline.FeatureRequest{
		Symbol:    mux.Vars(r)["symbol"],
		Date:      q.Get("date"),
		Timeframe: timeframe,
		Realtime:  realtime,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetPopular returns the popular-stocks list
// GET /api/stocks/popular
func (h *StockHandler) GetPopular(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Popular())
}

// GetCriteria returns the screening catalogue
// GET /api/criteria
func (h *StockHandler) GetCriteria(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Criteria())
}

// GetStrategies returns the configured screening strategies
// GET /api/strategies
func (h *StockHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Strategies())
}
