package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/forecast"
	"github.com/wonny/borsa-screener/pkg/httputil"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// ChartBuilder assembles a stitched chart
type ChartBuilder interface {
	Build(ctx context.Context, symbol string, models []contracts.ModelName, days int) (forecast.Chart, error)
}

// ChartHandler handles forecast chart endpoints
type ChartHandler struct {
	charts ChartBuilder
	logger *logger.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(charts ChartBuilder, log *logger.Logger) *ChartHandler {
	return &ChartHandler{
		charts: charts,
		logger: log,
	}
}

// GetChart returns history stitched with model forecasts
// GET /api/stocks/{symbol}/chart?models=lstm,gru&days=45
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	models, err := forecast.ParseModels(r.URL.Query().Get("models"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	days := 0
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = d
	}

	chart, err := h.charts.Build(r.Context(), symbol, models, days)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			respondError(w, http.StatusNotFound, "unknown symbol "+symbol)
			return
		}
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to build chart")
		respondError(w, http.StatusBadGateway, "Failed to load chart data")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    chart,
	})
}
