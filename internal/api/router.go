// Package api wires the HTTP routes to their handlers.
package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dverbeek/portfolio-tracker/internal/api/handlers"
	custommiddleware "github.com/dverbeek/portfolio-tracker/internal/api/middleware"
	"github.com/dverbeek/portfolio-tracker/internal/config"
	"github.com/dverbeek/portfolio-tracker/internal/repository"
	"github.com/dverbeek/portfolio-tracker/internal/service"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	DB        *sql.DB
	Portfolio *service.PortfolioService
	History   *service.HistoryService
	Intraday  *service.IntradayService
	Loader    *service.LoaderService
	PriceRepo *repository.PriceRepository
	ValueRepo *repository.ValueRepository
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// Computed payloads are shared across handlers so a reload can
	// invalidate everything at once.
	cache := handlers.NewResponseCache()

	// API routes
	r.Route("/api", func(r chi.Router) {
		systemHandler := handlers.NewSystemHandler(svc.DB)
		r.Get("/system/health", systemHandler.Health)

		portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, cache)
		r.Get("/holdings", portfolioHandler.Holdings)
		r.Get("/summary", portfolioHandler.Summary)

		assetsHandler := handlers.NewAssetsHandler(svc.Portfolio)
		r.Get("/dividends", assetsHandler.Dividends)
		r.Get("/sold", assetsHandler.Sold)

		historyHandler := handlers.NewHistoryHandler(svc.History, cache)
		r.Get("/performance", historyHandler.Performance)
		r.Get("/daily-pnl", historyHandler.DailyPNL)
		r.Get("/investments", historyHandler.Investments)

		intradayHandler := handlers.NewIntradayHandler(svc.Intraday, cache)
		r.Get("/intraday", intradayHandler.Intraday)
		r.Get("/intraday-multiday", intradayHandler.IntradayMultiday)

		filesHandler := handlers.NewFilesHandler(svc.Loader, svc.ValueRepo, cache)
		r.Get("/files", filesHandler.Files)
		r.Post("/upload", filesHandler.Upload)
		r.Post("/reload", filesHandler.Reload)

		cacheHandler := handlers.NewCacheHandler(svc.PriceRepo, svc.ValueRepo, cache)
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", cacheHandler.Stats)
			r.Post("/clear", cacheHandler.Clear)
		})
	})

	return r
}
