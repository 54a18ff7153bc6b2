package handlers

import (
	"net/http"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/pipeline"
	"github.com/wonny/idxscreen/pkg/logger"
)

// AnalysisHandler handles multi-symbol endpoints
type AnalysisHandler struct {
	*StockHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *pipeline.Service, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{StockHandler: NewStockHandler(service, log)}
}

// symbolsRequest is the body shared by batch and compare
type symbolsRequest struct {
	Symbols  []string `json:"symbols"`
	Range    string   `json:"range"`
	Interval string   `json:"interval"`
}

// datasetRequest accepts flat thresholds the way clients send them
type datasetRequest struct {
	Symbols        []string `json:"symbols"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	UpThreshold    *float64 `json:"upThreshold"`
	DownThreshold  *float64 `json:"downThreshold"`
	IncludeNeutral bool     `json:"includeNeutral"`
}

// Screen scores symbols against criteria
// POST /api/stocks/screen
func (h *AnalysisHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ScreenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	results, err := h.service.Screen(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// Batch analyzes several symbols
// POST /api/stocks/batch
func (h *AnalysisHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req symbolsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	results, err := h.service.Batch(r.Context(), req.Symbols, req.Range, req.Interval)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// Compare reports performance of two or more symbols
// POST /api/stocks/compare
func (h *AnalysisHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req symbolsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	results, err := h.service.Compare(r.Context(), req.Symbols, req.Range)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// RegressionData builds a labelled dataset
// POST /api/stocks/regression-data
func (h *AnalysisHandler) RegressionData(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	opts := contracts.DefaultDatasetOptions()
	opts.StartDate = req.StartDate
	opts.EndDate = req.EndDate
	opts.IncludeNeutral = req.IncludeNeutral
	if req.UpThreshold != nil {
		opts.UpThreshold = *req.UpThreshold
	}
	if req.DownThreshold != nil {
		opts.DownThreshold = *req.DownThreshold
	}

	ds, err := h.service.RegressionData(r.Context(), pipeline.DatasetRequest{Symbols: req.Symbols, Options: opts})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ds)
}
