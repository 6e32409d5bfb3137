package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/api"
	"github.com/dverbeek/portfolio-tracker/internal/config"
	"github.com/dverbeek/portfolio-tracker/internal/database"
	"github.com/dverbeek/portfolio-tracker/internal/repository"
	"github.com/dverbeek/portfolio-tracker/internal/scheduler"
	"github.com/dverbeek/portfolio-tracker/internal/service"
	"github.com/dverbeek/portfolio-tracker/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open the cache database and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	priceRepo := repository.NewPriceRepository(db)
	valueRepo := repository.NewValueRepository(db)

	// Create services
	yahooClient := yahoo.NewFinanceClient()
	priceService := service.NewPriceService(yahooClient, priceRepo)
	splitService := service.NewSplitService(yahooClient)
	portfolioService := service.NewPortfolioService(priceService, splitService)
	loaderService := service.NewLoaderService(cfg.Data.Dir, portfolioService)
	historyService := service.NewHistoryService(portfolioService, priceService, splitService, valueRepo)
	intradayService := service.NewIntradayService(portfolioService, priceService)

	// Load transaction files into the live ledger. An empty or missing
	// data directory is not fatal; the API just serves an empty book.
	count, err := loaderService.Reload()
	if err != nil {
		log.Printf("Initial transaction load failed: %v", err)
	} else {
		log.Printf("Loaded %d transactions from %s", count, cfg.Data.Dir)
	}

	// Nightly cache warm
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(historyService, cfg.Scheduler.WarmSchedule)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		sched.Start()
		log.Printf("Cache warm scheduled: %s", cfg.Scheduler.WarmSchedule)
	}

	// Create router
	router := api.NewRouter(api.Services{
		DB:        db,
		Portfolio: portfolioService,
		History:   historyService,
		Intraday:  intradayService,
		Loader:    loaderService,
		PriceRepo: priceRepo,
		ValueRepo: valueRepo,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
