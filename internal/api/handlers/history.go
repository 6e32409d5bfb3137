package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/service"
	"github.com/dverbeek/portfolio-tracker/internal/validation"
)

// dailyPNLDays is how far back the daily P&L endpoint reaches.
const dailyPNLDays = 15

// HistoryHandler handles historical value and investment history requests
type HistoryHandler struct {
	historyService *service.HistoryService
	cache          *ResponseCache
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyService *service.HistoryService, cache *ResponseCache) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		cache:          cache,
	}
}

// ValuePointResponse represents one day of the historical value series
type ValuePointResponse struct {
	Date            string  `json:"date"`
	Value           float64 `json:"value"`
	InvestmentValue float64 `json:"investment_value"`
	CostBasis       float64 `json:"cost_basis"`
	Cash            float64 `json:"cash"`
}

// Performance returns the historical portfolio value series
func (h *HistoryHandler) Performance(w http.ResponseWriter, r *http.Request) {
	start, end, err := validation.DateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		respondBadRequest(w, "Invalid date range", err)
		return
	}

	key := fmt.Sprintf("performance/%s/%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	payload, err := h.cache.fetch(key, 60*time.Second, func() (interface{}, error) {
		points, err := h.historyService.HistoricalValues(start, end)
		if err != nil {
			return nil, err
		}

		response := make([]ValuePointResponse, len(points))
		for i, p := range points {
			response[i] = ValuePointResponse{
				Date:            p.Date.Format("2006-01-02"),
				Value:           f(p.TotalValue),
				InvestmentValue: f(p.InvestmentValue),
				CostBasis:       f(p.CostBasis),
				Cash:            f(p.CashValue),
			}
		}
		return response, nil
	})
	if err != nil {
		respondServerError(w, "Failed to get portfolio history", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// DailyPNLResponse represents one day of the daily P&L series
type DailyPNLResponse struct {
	Date            string  `json:"date"`
	Value           float64 `json:"value"`
	DailyPNL        float64 `json:"daily_pnl"`
	DailyPNLPercent float64 `json:"daily_pnl_percent"`
}

// DailyPNL returns the recent daily P&L series
func (h *HistoryHandler) DailyPNL(w http.ResponseWriter, r *http.Request) {
	payload, err := h.cache.fetch("daily-pnl", 60*time.Second, func() (interface{}, error) {
		points, err := h.historyService.DailyPNLHistory(dailyPNLDays)
		if err != nil {
			return nil, err
		}

		response := make([]DailyPNLResponse, len(points))
		for i, p := range points {
			response[i] = DailyPNLResponse{
				Date:            p.Date.Format("2006-01-02"),
				Value:           f(p.Value),
				DailyPNL:        f(p.DailyPNL),
				DailyPNLPercent: f(p.DailyPNLPercent),
			}
		}
		return response, nil
	})
	if err != nil {
		respondServerError(w, "Failed to get daily P&L", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// MonthlyBuyResponse represents one symbol's BUY total within a month
type MonthlyBuyResponse struct {
	Symbol string  `json:"symbol"`
	Action string  `json:"action"`
	Amount float64 `json:"amount"`
}

// MonthlyInvestmentResponse represents one month of the investment series
type MonthlyInvestmentResponse struct {
	Month         string               `json:"month"`
	CostBasis     float64              `json:"cost_basis"`
	NetInvestment float64              `json:"net_investment"`
	Transactions  []MonthlyBuyResponse `json:"transactions"`
}

// Investments returns the monthly invested-amount series
func (h *HistoryHandler) Investments(w http.ResponseWriter, r *http.Request) {
	start, end, err := validation.DateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		respondBadRequest(w, "Invalid date range", err)
		return
	}

	months := h.historyService.InvestmentHistory(start, end)

	response := make([]MonthlyInvestmentResponse, len(months))
	for i, m := range months {
		buys := make([]MonthlyBuyResponse, len(m.Buys))
		for j, b := range m.Buys {
			buys[j] = MonthlyBuyResponse{Symbol: b.Symbol, Action: "BUY", Amount: f(b.Amount)}
		}
		response[i] = MonthlyInvestmentResponse{
			Month:         m.Month,
			CostBasis:     f(m.CostBasis),
			NetInvestment: f(m.NetInvestment),
			Transactions:  buys,
		}
	}

	respondJSON(w, http.StatusOK, response)
}
