package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/infra/memory"
	"github.com/dwikikusuma/storefront/internal/cart/infra/sqlite"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/infra/fakestore"
	"github.com/dwikikusuma/storefront/internal/storefront/page"
	"github.com/dwikikusuma/storefront/internal/storefront/site"
	"github.com/dwikikusuma/storefront/internal/storefront/web"
	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/shutdown"
)

const (
	serviceName     = "storefront"
	readinessPeriod = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	storage, closeStorage, err := openStorage(ctx, cfg.StoragePath)
	if err != nil {
		log.Error("storage open failed", slog.Any("err", err), slog.String("path", cfg.StoragePath))
		os.Exit(1)
	}
	defer closeStorage()

	// Catalog
	source := fakestore.NewClient(cfg.CatalogURL, fakestore.WithTimeout(cfg.CatalogTimeout))
	catalogSvc := catalogapp.NewService(source, log.With("component", "catalog"))

	// Cart
	cartSvc := cartapp.NewService(storage, cfg.CartStorageKey, log.With("component", "cart"))

	handler := web.NewHandler(web.Options{
		Cart:       cartSvc,
		Renderer:   page.NewRenderer(catalogSvc, cfg.CatalogLimit, cfg.ToastDuration, log),
		Site:       site.FS(),
		CookieName: cfg.SessionCookie,
		Ready:      catalogSvc.Ready,
		Log:        log,
	})

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              httpAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", grpcAddr))
		os.Exit(1)
	}
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", httpAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("grpc starting", slog.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		watchCatalog(gctx, catalogSvc, cfg.CatalogLimit, healthSrv, log)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		healthSrv.Shutdown()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()

		if err := server.Shutdown(stopCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopCtx.Done():
			log.Warn("graceful stop timeout, forcing stop")
			grpcServer.Stop()
		case <-stopped:
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

// openStorage returns the SQLite store at path, or an in-memory one when
// path is empty.
func openStorage(ctx context.Context, path string) (cartapp.Storage, func(), error) {
	if path == "" {
		return memory.NewKV(), func() {}, nil
	}
	kv, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return kv, func() { _ = kv.Close() }, nil
}

// watchCatalog warms the catalog and keeps the gRPC health status in step
// with its readiness until ctx ends.
func watchCatalog(ctx context.Context, catalog *catalogapp.Service, limit int, hs *health.Server, log *slog.Logger) {
	ticker := time.NewTicker(readinessPeriod)
	defer ticker.Stop()

	for {
		if !catalog.Ready() {
			if _, err := catalog.ListProducts(ctx, limit); err != nil {
				log.Warn("catalog not ready", slog.Any("err", err))
			}
		}
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if catalog.Ready() {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(serviceName, status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
