package handlers

import (
	"net/http"

	"github.com/dverbeek/portfolio-tracker/internal/service"
)

// AssetsHandler handles dividend and realized-sale requests
type AssetsHandler struct {
	portfolioService *service.PortfolioService
}

// NewAssetsHandler creates a new AssetsHandler
func NewAssetsHandler(portfolioService *service.PortfolioService) *AssetsHandler {
	return &AssetsHandler{portfolioService: portfolioService}
}

// DividendSummaryResponse represents one asset's dividend aggregate
type DividendSummaryResponse struct {
	Symbol       string  `json:"symbol"`
	TotalAmount  float64 `json:"total_amount"`
	PaymentCount int     `json:"payment_count"`
}

// Dividends returns per-asset dividend summaries
func (h *AssetsHandler) Dividends(w http.ResponseWriter, r *http.Request) {
	summaries := h.portfolioService.DividendSummaries()

	response := make([]DividendSummaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = DividendSummaryResponse{
			Symbol:       s.Symbol,
			TotalAmount:  f(s.TotalAmount),
			PaymentCount: s.PaymentCount,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// SoldAssetResponse represents one asset's realized-sale aggregate
type SoldAssetResponse struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CostBasis    float64 `json:"cost_basis"`
	AvgCost      float64 `json:"avg_cost"`
	Proceeds     float64 `json:"proceeds"`
	AvgSellPrice float64 `json:"avg_sell_price"`
	PNL          float64 `json:"pnl"`
	PNLPercent   float64 `json:"pnl_percent"`
}

// Sold returns realized-sale aggregates per asset
func (h *AssetsHandler) Sold(w http.ResponseWriter, r *http.Request) {
	sold := h.portfolioService.SoldAssets()

	response := make([]SoldAssetResponse, len(sold))
	for i, s := range sold {
		response[i] = SoldAssetResponse{
			Symbol:       s.Symbol,
			Quantity:     f(s.Quantity),
			CostBasis:    f(s.CostBasis),
			AvgCost:      f(s.AvgCost),
			Proceeds:     f(s.Proceeds),
			AvgSellPrice: f(s.AvgSellPrice),
			PNL:          f(s.PNL),
			PNLPercent:   f(s.PNLPercent),
		}
	}

	respondJSON(w, http.StatusOK, response)
}
