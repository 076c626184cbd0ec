// handlers_metrics.go - Metrics and currency handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/models"
)

const defaultMetricsLimit = 50

// MetricsHandlerImpl implements the MetricsHandler interface
type MetricsHandlerImpl struct {
	store MetricsStore
	rates RateSource
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(store MetricsStore, rates RateSource) MetricsHandler {
	return &MetricsHandlerImpl{store: store, rates: rates}
}

// HandleRecentMetrics returns the newest metric rows as JSON
func (h *MetricsHandlerImpl) HandleRecentMetrics(c echo.Context) error {
	rows, err := h.recent(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// HandleRecentMetricsMsgpack returns the newest metric rows as msgpack
func (h *MetricsHandlerImpl) HandleRecentMetricsMsgpack(c echo.Context) error {
	rows, err := h.recent(c)
	if err != nil {
		return err
	}
	return respondMsgpack(c, http.StatusOK, map[string]interface{}{
		"metrics": rows,
		"total":   len(rows),
	})
}

// HandleMetricsSummary returns totals and averages, with the EUR total when
// a rate source is configured
func (h *MetricsHandlerImpl) HandleMetricsSummary(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("metrics database is disabled")
	}

	ctx := c.Request().Context()
	sum, err := h.store.Summary(ctx)
	if err != nil {
		return NewInternalError("failed to summarize metrics", err)
	}
	if h.rates != nil {
		sum.TotalCostEUR, _ = h.rates.ToEUR(ctx, sum.TotalCostUSD)
	}

	return c.JSON(http.StatusOK, sum)
}

// HandleCurrency returns the current USD to EUR quote
func (h *MetricsHandlerImpl) HandleCurrency(c echo.Context) error {
	if h.rates == nil {
		return NewServiceUnavailableError("currency conversion is disabled")
	}
	return c.JSON(http.StatusOK, h.rates.Quote(c.Request().Context()))
}

func (h *MetricsHandlerImpl) recent(c echo.Context) ([]models.GenerationMetrics, error) {
	if h.store == nil {
		return nil, NewServiceUnavailableError("metrics database is disabled")
	}

	limit := defaultMetricsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, NewValidationError("limit")
		}
		limit = n
	}

	rows, err := h.store.Recent(c.Request().Context(), limit)
	if err != nil {
		return nil, NewInternalError("failed to read metrics", err)
	}
	if rows == nil {
		rows = []models.GenerationMetrics{}
	}
	return rows, nil
}
