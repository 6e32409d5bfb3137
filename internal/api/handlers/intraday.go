package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/service"
	"github.com/dverbeek/portfolio-tracker/internal/validation"
)

// IntradayHandler handles intraday value curve requests
type IntradayHandler struct {
	intradayService *service.IntradayService
	cache           *ResponseCache
}

// NewIntradayHandler creates a new IntradayHandler
func NewIntradayHandler(intradayService *service.IntradayService, cache *ResponseCache) *IntradayHandler {
	return &IntradayHandler{
		intradayService: intradayService,
		cache:           cache,
	}
}

// AssetChangeResponse represents one asset's intraday move
type AssetChangeResponse struct {
	Symbol       string  `json:"symbol"`
	PNL          float64 `json:"pnl"`
	PNLPercent   float64 `json:"pnl_percent"`
	PrevPrice    float64 `json:"prev_price"`
	CurrentPrice float64 `json:"current_price"`
}

// IntradayPointResponse represents one slot of today's value curve
type IntradayPointResponse struct {
	Time            string                `json:"time"`
	Value           float64               `json:"value"`
	BaselineValue   float64               `json:"baseline_value"`
	DailyPNL        float64               `json:"daily_pnl"`
	DailyPNLPercent float64               `json:"daily_pnl_percent"`
	AssetChanges    []AssetChangeResponse `json:"asset_changes"`
}

// Intraday returns today's portfolio value curve
func (h *IntradayHandler) Intraday(w http.ResponseWriter, r *http.Request) {
	interval, err := validation.IntradayInterval(r.URL.Query().Get("interval"))
	if err != nil {
		respondBadRequest(w, "Invalid interval", err)
		return
	}

	key := "intraday/" + interval
	payload, err := h.cache.fetch(key, 30*time.Second, func() (interface{}, error) {
		points, err := h.intradayService.IntradayValues(interval)
		if err != nil {
			return nil, err
		}

		response := make([]IntradayPointResponse, len(points))
		for i, p := range points {
			changes := make([]AssetChangeResponse, len(p.AssetChanges))
			for j, c := range p.AssetChanges {
				changes[j] = AssetChangeResponse{
					Symbol:       c.Symbol,
					PNL:          f(c.PNL),
					PNLPercent:   f(c.PNLPercent),
					PrevPrice:    f(c.PrevPrice),
					CurrentPrice: f(c.CurrentPrice),
				}
			}
			response[i] = IntradayPointResponse{
				Time:            p.Time,
				Value:           f(p.Value),
				BaselineValue:   f(p.BaselineValue),
				DailyPNL:        f(p.DailyPNL),
				DailyPNLPercent: f(p.DailyPNLPercent),
				AssetChanges:    changes,
			}
		}
		return response, nil
	})
	if err != nil {
		respondServerError(w, "Failed to get intraday values", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// MultidayPointResponse represents one sample of the multi-day curve
type MultidayPointResponse struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// IntradayMultiday returns the portfolio value curve over recent days
func (h *IntradayHandler) IntradayMultiday(w http.ResponseWriter, r *http.Request) {
	interval, err := validation.MultidayInterval(r.URL.Query().Get("interval"))
	if err != nil {
		respondBadRequest(w, "Invalid interval", err)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(w, "Invalid days", err)
			return
		}
	}
	days, err = validation.Days(days)
	if err != nil {
		respondBadRequest(w, "Invalid days", err)
		return
	}

	key := fmt.Sprintf("intraday-multiday/%s/%d", interval, days)
	payload, err := h.cache.fetch(key, 60*time.Second, func() (interface{}, error) {
		points, err := h.intradayService.MultidayIntradayValues(interval, days)
		if err != nil {
			return nil, err
		}

		response := make([]MultidayPointResponse, len(points))
		for i, p := range points {
			response[i] = MultidayPointResponse{
				Timestamp: p.Timestamp.Format(time.RFC3339),
				Value:     f(p.Value),
			}
		}
		return response, nil
	})
	if err != nil {
		respondServerError(w, "Failed to get multi-day intraday values", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}
