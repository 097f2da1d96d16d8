package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/tradeslip/internal/app"
	"github.com/joseph-ayodele/tradeslip/internal/async"
	"github.com/joseph-ayodele/tradeslip/internal/common"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
	"github.com/joseph-ayodele/tradeslip/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("tradeslipd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger, app.Options{Audit: true})
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := a.Limiter()
	maxUpload := a.MaxUploadBytes()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return errors.Wrapf(err, "listen %s", cfg.Server.GRPCAddr)
		}
		svc := server.NewSlipService(a.Processor, maxUpload, logger)
		// JSON base64 inflates uploads by a third.
		grpcServer, healthServer := server.NewGRPCServer(svc, limiter, int(maxUpload*3/2), logger)

		g.Go(func() error {
			logger.Info("tradeslipd grpc listening", "addr", cfg.Server.GRPCAddr)
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			healthServer.Shutdown()
			grpcServer.GracefulStop()
			return nil
		})
	}

	if cfg.Server.HTTPAddr != "" {
		httpServer := &http.Server{
			Addr: cfg.Server.HTTPAddr,
			Handler: server.NewHTTPHandler(a.Processor, server.HTTPConfig{
				MaxUploadBytes: maxUpload,
				RequestTimeout: cfg.Server.RequestTimeout,
				Limiter:        limiter,
				Metrics:        a.Metrics.Handler(),
				Health:         a.Health,
			}, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("tradeslipd http listening", "addr", cfg.Server.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if len(cfg.Watch.Dirs) > 0 {
		g.Go(func() error { return watch(gctx, a, logger) })
	}

	return g.Wait()
}

// watch feeds new files from the watched directories through the worker queue.
func watch(ctx context.Context, a *app.App, logger *slog.Logger) error {
	cfg := a.Config
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    cfg.Watch.Dirs,
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	queue := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		doc, err := ingest.LoadDocument(job.Path, a.MaxUploadBytes())
		if err != nil {
			return err
		}
		_, err = a.Processor.Process(ctx, doc, nil)
		return err
	}, logger,
		async.WithWorkers(cfg.Worker.Count),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithProcessTimeout(cfg.Worker.Timeout),
		async.WithMetrics(a.Metrics),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.Timeout)
		defer cancel()
		queue.Shutdown(shutdownCtx)
	}()

	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := queue.Enqueue(ctx, async.Job{Path: path}); err != nil {
				logger.Warn("dropping watched file", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher reported error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}
