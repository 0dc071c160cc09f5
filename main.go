package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/coinsensei/backend/src/config"
	"github.com/username/coinsensei/backend/src/database"
	"github.com/username/coinsensei/backend/src/handlers"
	"github.com/username/coinsensei/backend/src/logger"
	"github.com/username/coinsensei/backend/src/processors"
	"github.com/username/coinsensei/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-User-ID, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("CoinSensei analytics backend starting...", "readOnly", config.Cfg.ReadOnly)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing caches...", "priceTTL", config.Cfg.PriceCacheTTL)
	priceCache := cache.New(config.Cfg.PriceCacheTTL, 2*config.Cfg.PriceCacheTTL)
	resultCache := cache.New(config.Cfg.PriceCacheTTL, 2*config.Cfg.PriceCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	priceService := services.NewPriceService(
		config.Cfg.CoinGeckoBaseURL, priceCache,
		config.Cfg.PriceTimeout, config.Cfg.PriceBatchTimeout,
	)
	portfolioService := services.NewPortfolioService(
		processors.NewPositionProcessor(),
		processors.NewSummaryProcessor(config.Cfg.ConcentrationWarnThreshold),
		processors.NewHygieneProcessor(nil),
		priceService,
		resultCache,
	)

	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, config.Cfg.MaxBodyBytes)
	recordHandler := handlers.NewRecordHandler(config.Cfg.MaxBodyBytes)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/portfolio/analyze", portfolioHandler.HandleAnalyze)
	apiRouter.HandleFunc("GET /api/portfolio", portfolioHandler.HandleGetPortfolio)
	apiRouter.HandleFunc("GET /api/portfolio/hygiene", portfolioHandler.HandleGetHygiene)
	apiRouter.HandleFunc("POST /api/entries/manual", recordHandler.HandleAddManualEntries)
	apiRouter.HandleFunc("GET /api/entries/manual", recordHandler.HandleListManualEntries)
	apiRouter.HandleFunc("POST /api/transactions/exchange", recordHandler.HandleAddExchangeTransactions)
	apiRouter.HandleFunc("GET /api/transactions/exchange", recordHandler.HandleListExchangeTransactions)
	apiRouter.HandleFunc("DELETE /api/records", recordHandler.HandleDeleteRecords)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "CoinSensei analytics backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
