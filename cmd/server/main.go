package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/trackeasy/railtick/config"
	"github.com/trackeasy/railtick/internal/handler"
	"github.com/trackeasy/railtick/internal/middleware"
	"github.com/trackeasy/railtick/internal/service"
	"github.com/trackeasy/railtick/internal/upstream"
	"github.com/trackeasy/railtick/pkg/cache"
)

// ticketPageSize is the fixed page size for ticket listings.
const ticketPageSize = 10

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ── Initialize layers ───────────────────────────────
	operator := upstream.New(cfg.Upstream, cfg.Cache, redisClient)

	stationSvc := service.NewStationCatalog(operator, nil)
	searchSvc := service.NewSearchEngine(operator)
	pricingSvc := service.NewPricingEngine(operator)
	purchaseSvc := service.NewPurchaseOrchestrator(operator, nil)
	paymentSvc := service.NewPaymentProcessor(operator)
	lifecycleSvc := service.NewLifecycleManager(operator, cfg.Cache.DetailsTTL, ticketPageSize)

	stationHandler := handler.NewStationHandler(stationSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	purchaseHandler := handler.NewPurchaseHandler(pricingSvc, purchaseSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	ticketHandler := handler.NewTicketHandler(lifecycleSvc)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	// Health check and metrics endpoints.
	router.HandleFunc("/health", healthHandler(redisClient)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	// Station reference data
	api.HandleFunc("/stations", stationHandler.ListStations).Methods(http.MethodGet)
	api.HandleFunc("/stations/nearest", stationHandler.NearestStation).Methods(http.MethodGet)
	// Itinerary search
	api.HandleFunc("/connections/search", searchHandler.Search).Methods(http.MethodPost)
	api.HandleFunc("/connections/more", searchHandler.LoadMore).Methods(http.MethodPost)
	api.HandleFunc("/connections", searchHandler.Results).Methods(http.MethodGet)
	// Pricing and purchase
	api.HandleFunc("/orders/price", purchaseHandler.PriceOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", purchaseHandler.SubmitOrder).Methods(http.MethodPost)
	api.HandleFunc("/discounts", purchaseHandler.ListDiscounts).Methods(http.MethodGet)
	api.HandleFunc("/discount-codes/{code}", purchaseHandler.ResolveDiscountCode).Methods(http.MethodGet)
	// Payments
	api.HandleFunc("/payments", paymentHandler.Pay).Methods(http.MethodPost)
	// Ticket lifecycle
	api.HandleFunc("/tickets", ticketHandler.ListTickets).Methods(http.MethodGet)
	api.HandleFunc("/tickets/current", ticketHandler.CurrentTicket).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id}", ticketHandler.GetTicket).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id}/qr", ticketHandler.QRCode).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id}/cancel", ticketHandler.CancelTicket).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id}/refund", ticketHandler.RequestRefund).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id}/cities", ticketHandler.Cities).Methods(http.MethodGet)
	api.HandleFunc("/tickets/{id}/arrivals", ticketHandler.Arrivals).Methods(http.MethodGet)
	api.HandleFunc("/cities/{id}", ticketHandler.CityDetails).Methods(http.MethodGet)

	// Middleware chain, outermost first.
	h := middleware.Recoverer(middleware.RequestLogger(middleware.Metrics(middleware.Session(middleware.CORS(router)))))

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Printf("🚀 Gateway listening on %s (upstream %s)", cfg.Server.ServerAddr(), cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks Redis connectivity.
// The rail operator is deliberately not probed here: its availability is
// surfaced per request, and a health probe must not consume its quota.
func healthHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["redis"] = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
