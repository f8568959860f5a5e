package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitr-app/splitr/internal/api"
	"github.com/splitr-app/splitr/internal/auth"
	"github.com/splitr-app/splitr/internal/config"
	"github.com/splitr-app/splitr/internal/middleware"
	"github.com/splitr-app/splitr/internal/service"
	"github.com/splitr-app/splitr/internal/storage/sqlite"
	"github.com/splitr-app/splitr/pkg/logging"
)

func main() {
	logging.Setup()

	cfg := config.Load()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	// Register/Login are reachable without a token; everything else
	// requires one.
	publicOpts := []connect.Option{
		api.WithJSONCodec(),
		connect.WithInterceptors(
			middleware.MetricsInterceptor(),
			middleware.LoggingInterceptor(),
		),
	}
	protectedOpts := []connect.Option{
		api.WithJSONCodec(),
		connect.WithInterceptors(
			middleware.MetricsInterceptor(),
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	}

	mux := http.NewServeMux()

	authPath, authHandler := service.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager), publicOpts...)
	mux.Handle(authPath, authHandler)

	expensePath, expenseHandler := service.NewExpenseServiceHandler(
		service.NewExpenseService(store), protectedOpts...)
	mux.Handle(expensePath, expenseHandler)

	settlementPath, settlementHandler := service.NewSettlementServiceHandler(
		service.NewSettlementService(store), protectedOpts...)
	mux.Handle(settlementPath, settlementHandler)

	groupPath, groupHandler := service.NewGroupServiceHandler(
		service.NewGroupService(store), protectedOpts...)
	mux.Handle(groupPath, groupHandler)

	mux.Handle("/metrics", promhttp.Handler())

	handler := corsMiddleware(mux)

	// h2c allows HTTP/2 without TLS, which Connect clients expect.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
