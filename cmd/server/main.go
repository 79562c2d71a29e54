package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shipform/internal/address"
	"shipform/internal/directory"
	formhandler "shipform/internal/form/handler"
	formmetrics "shipform/internal/form/metrics"
	"shipform/internal/form/service"
	"shipform/internal/form/store/receipt"
	"shipform/internal/platform/config"
	"shipform/internal/platform/httpserver"
	"shipform/internal/platform/logger"
	"shipform/internal/platform/metrics"
	"shipform/internal/platform/middleware"
	redisclient "shipform/internal/platform/redis"
	"shipform/pkg/platform/httputil"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shipform",
		Short:        "Address capture backend with cascading region/district selection",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr, logLevel string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SHIPFORM_ADDR)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	return cmd
}

// run wires dependencies and serves until ctx is canceled. Business logic
// lives in the internal packages.
func run(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	redis, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var receipts receipt.Store = receipt.NewInMemoryStore()
	if redis != nil {
		defer redis.Close()
		receipts = receipt.NewRedisStore(redis.Client, receipt.WithTTL(cfg.Redis.ReceiptTTL))
		log.Info("receipts stored in redis")
	}

	svc := newService(cfg, log, reg, receipts)
	defer svc.Shutdown()

	router := newRouter(log, reg, svc, redis)
	srv := httpserver.New(cfg.Addr, router, cfg.Upstream.Timeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting shipform", "addr", cfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newService(cfg config.Server, log *slog.Logger, reg *prometheus.Registry, receipts receipt.Store) *service.Service {
	upstream := &http.Client{Timeout: cfg.Upstream.Timeout}
	dirMetrics := directory.NewMetrics(reg)
	sinkMetrics := address.NewSinkMetrics(reg)

	return service.New(
		func(token string) directory.Client {
			return directory.NewHTTPClient(cfg.Upstream.DirectoryBaseURL, token,
				directory.WithHTTPClient(upstream),
				directory.WithMetrics(dirMetrics),
			)
		},
		func(token string) address.Sink {
			return address.NewHTTPSink(cfg.Upstream.SinkBaseURL, token,
				address.WithSinkHTTPClient(upstream),
				address.WithSinkMetrics(sinkMetrics),
			)
		},
		service.WithLogger(log),
		service.WithMetrics(formmetrics.New(reg)),
		service.WithReceiptStore(receipts),
		service.WithIdleTTL(cfg.Session.IdleTTL),
		service.WithErrorTTL(cfg.Session.ErrorTTL),
	)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func newRouter(log *slog.Logger, reg *prometheus.Registry, svc formhandler.Service, redis *redisclient.Client) http.Handler {
	httpMetrics := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.BearerCredential)
	r.Use(middleware.AccessLog(log))
	r.Use(httpMetrics.Middleware)

	var checks []healthChecker
	if redis != nil {
		checks = append(checks, redis)
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		for _, c := range checks {
			if err := c.Health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())

	formhandler.New(svc, log).Register(r)
	return r
}
