package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/app/setup"
	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	slogger, logCloser, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(slogger)

	deps, err := setup.InitializeDependencies(cfg, slogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps.WarmRateGauges(ctx)

	// gRPC health
	grpcServer := grpc.NewServer()
	deps.Health.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		slogger.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			slogger.Error("gRPC server stopped", "error", err)
		}
	}()

	// Ops HTTP: metrics and health
	router := mux.NewRouter()
	handlers.NewOpsHandler(deps.Registry, deps.Health).RegisterRoutes(router)
	opsServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.OpsHTTP.Host, cfg.OpsHTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slogger.Info("ops HTTP server started", "addr", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("ops HTTP server stopped", "error", err)
		}
	}()

	// Rates sync
	deps.Tasks.StartAll(ctx)

	<-ctx.Done()
	slogger.Info("shutting down")

	deps.Tasks.Wait()
	deps.Health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		slogger.Warn("ops HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	slogger.Info("stopped")
}
