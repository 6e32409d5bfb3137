package handlers

import (
	"net/http"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/service"
)

// PortfolioHandler handles holdings and summary requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	cache            *ResponseCache
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, cache *ResponseCache) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		cache:            cache,
	}
}

// HoldingResponse represents one holding in the holdings response
type HoldingResponse struct {
	Symbol                   string   `json:"symbol"`
	Quantity                 float64  `json:"quantity"`
	CostBasis                float64  `json:"cost_basis"`
	AvgCost                  float64  `json:"avg_cost"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketValue              *float64 `json:"market_value"`
	UnrealizedPNL            *float64 `json:"unrealized_pnl"`
	PNLPercent               *float64 `json:"pnl_percent"`
	PrevClose                *float64 `json:"prev_close,omitempty"`
	DailyChangePercent       *float64 `json:"daily_change_percent,omitempty"`
	DailyChangeAmount        *float64 `json:"daily_change_amount,omitempty"`
	HoldingDays              int      `json:"holding_days"`
	AnnualizedReturn         *float64 `json:"annualized_return,omitempty"`
	WeightedAnnualizedReturn *float64 `json:"weighted_annualized_return,omitempty"`
}

// Holdings returns current holdings with live prices
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	payload, err := h.cache.fetch("holdings", 30*time.Second, func() (interface{}, error) {
		holdings := h.portfolioService.Holdings(true)

		response := make([]HoldingResponse, len(holdings))
		for i, holding := range holdings {
			response[i] = HoldingResponse{
				Symbol:                   holding.Symbol,
				Quantity:                 f(holding.Quantity),
				CostBasis:                f(holding.CostBasis),
				AvgCost:                  f(holding.AvgCost),
				CurrentPrice:             fp(holding.CurrentPrice),
				MarketValue:              fp(holding.MarketValue),
				UnrealizedPNL:            fp(holding.UnrealizedPNL),
				PNLPercent:               fp(holding.PNLPercent),
				PrevClose:                fp(holding.PrevClose),
				DailyChangePercent:       fp(holding.DailyChangePercent),
				DailyChangeAmount:        fp(holding.DailyChangeAmount),
				HoldingDays:              holding.HoldingDays,
				AnnualizedReturn:         fp(holding.AnnualizedReturn),
				WeightedAnnualizedReturn: fp(holding.WeightedAnnualizedReturn),
			}
		}
		return response, nil
	})
	if err != nil {
		respondServerError(w, "Failed to retrieve holdings", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// SummaryResponse represents the portfolio summary response
type SummaryResponse struct {
	TotalCostBasis           float64                   `json:"total_cost_basis"`
	TotalMarketValue         float64                   `json:"total_market_value"`
	InvestmentMarketValue    float64                   `json:"investment_market_value"`
	TotalUnrealizedPNL       float64                   `json:"total_unrealized_pnl"`
	TotalRealizedPNL         float64                   `json:"total_realized_pnl"`
	TotalPNL                 float64                   `json:"total_pnl"`
	TotalPNLPercent          float64                   `json:"total_pnl_percent"`
	TotalDividends           float64                   `json:"total_dividends"`
	TotalFees                float64                   `json:"total_fees"`
	AllTimeCostBasis         float64                   `json:"all_time_cost_basis"`
	WeightedAnnualizedReturn *float64                  `json:"weighted_annualized_return,omitempty"`
	Holdings                 []HoldingResponse         `json:"holdings"`
	DividendSummaries        []DividendSummaryResponse `json:"dividend_summaries"`
}

// Summary returns the whole-portfolio summary
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	payload, err := h.cache.fetch("summary", 30*time.Second, func() (interface{}, error) {
		summary := h.portfolioService.Summary(true)

		holdings := make([]HoldingResponse, len(summary.Holdings))
		for i, holding := range summary.Holdings {
			holdings[i] = HoldingResponse{
				Symbol:                   holding.Symbol,
				Quantity:                 f(holding.Quantity),
				CostBasis:                f(holding.CostBasis),
				AvgCost:                  f(holding.AvgCost),
				CurrentPrice:             fp(holding.CurrentPrice),
				MarketValue:              fp(holding.MarketValue),
				UnrealizedPNL:            fp(holding.UnrealizedPNL),
				PNLPercent:               fp(holding.PNLPercent),
				PrevClose:                fp(holding.PrevClose),
				DailyChangePercent:       fp(holding.DailyChangePercent),
				DailyChangeAmount:        fp(holding.DailyChangeAmount),
				HoldingDays:              holding.HoldingDays,
				AnnualizedReturn:         fp(holding.AnnualizedReturn),
				WeightedAnnualizedReturn: fp(holding.WeightedAnnualizedReturn),
			}
		}

		dividends := make([]DividendSummaryResponse, len(summary.DividendSummaries))
		for i, d := range summary.DividendSummaries {
			dividends[i] = DividendSummaryResponse{
				Symbol:       d.Symbol,
				TotalAmount:  f(d.TotalAmount),
				PaymentCount: d.PaymentCount,
			}
		}

		return SummaryResponse{
			TotalCostBasis:           f(summary.TotalCostBasis),
			TotalMarketValue:         f(summary.TotalMarketValue),
			InvestmentMarketValue:    f(summary.InvestmentMarketValue),
			TotalUnrealizedPNL:       f(summary.TotalUnrealizedPNL),
			TotalRealizedPNL:         f(summary.TotalRealizedPNL),
			TotalPNL:                 f(summary.TotalPNL),
			TotalPNLPercent:          f(summary.TotalPNLPercent),
			TotalDividends:           f(summary.TotalDividends),
			TotalFees:                f(summary.TotalFees),
			AllTimeCostBasis:         f(summary.AllTimeCostBasis),
			WeightedAnnualizedReturn: fp(summary.WeightedAnnualizedReturn),
			Holdings:                 holdings,
			DividendSummaries:        dividends,
		}, nil
	})
	if err != nil {
		respondServerError(w, "Failed to get portfolio summary", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}
