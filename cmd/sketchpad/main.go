// Package main replays pointer and touch events against the drawing pad and
// prints every change of the result view as a JSON line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/sketchpad/internal/canvas"
	"github.com/Brownie44l1/sketchpad/internal/config"
	"github.com/Brownie44l1/sketchpad/internal/inference"
	"github.com/Brownie44l1/sketchpad/internal/logging"
	"github.com/Brownie44l1/sketchpad/internal/model"
	"github.com/Brownie44l1/sketchpad/internal/pad"
	"github.com/Brownie44l1/sketchpad/internal/raster"
	"github.com/Brownie44l1/sketchpad/internal/replay"
	"github.com/Brownie44l1/sketchpad/internal/version"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	var eventsPath string
	var waitModel, showVersion bool

	flag.StringVar(&eventsPath, "events", "-", "event script to replay (- reads stdin)")
	flag.BoolVar(&waitModel, "wait-model", true, "wait for the model load to resolve before replaying")
	flag.BoolVar(&showVersion, "version", false, "print build information and exit")
	flag.Parse()

	if showVersion {
		_ = json.NewEncoder(os.Stdout).Encode(version.Get())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, eventsPath, waitModel, os.Stdout); err != nil {
		slog.Error("Sketchpad failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, eventsPath string, waitModel bool, stdout io.Writer) error {
	metadata, err := model.LoadMetadata(cfg.LabelsPath)
	if err != nil {
		return err
	}
	resampler, err := raster.NewResampler(cfg.ResampleFilter)
	if err != nil {
		return err
	}

	events, err := openEvents(eventsPath)
	if err != nil {
		return err
	}
	defer events.Close()

	clock := clockwork.NewRealClock()
	models := model.NewManager(model.NewONNXLoader(model.ONNXOptions{LibraryPath: cfg.ORTLibraryPath}), clock)
	defer func() {
		if err := models.Close(); err != nil {
			slog.Warn("Failed to release model session", "error", err)
		}
	}()
	models.Load(ctx, cfg.ModelPath)

	out := json.NewEncoder(stdout)
	p := pad.New(models,
		inference.NewOrchestrator(clock, cfg.InferenceTimeout, inference.WithClasses(len(metadata.Classes))),
		canvas.NewSurface(cfg.StrokeWidth),
		pad.WithResampler(resampler),
		pad.WithMetadata(metadata),
		pad.WithOnChange(func(proj inference.Projection) {
			if err := out.Encode(proj); err != nil {
				slog.Warn("Failed to write projection", "error", err)
			}
		}),
	)
	defer p.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			slog.Info("Serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()

		if waitModel {
			if err := models.Wait(gctx); err != nil && gctx.Err() == nil {
				slog.Error("Model unavailable, inference will report not ready", "error", err)
			}
		}

		slog.Info("Replaying events", "source", eventsPath, "filter", cfg.ResampleFilter)
		n, err := replay.Run(gctx, events, p)
		p.Wait()
		slog.Info("Replay finished", "events", n)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}

func openEvents(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events: %w", err)
	}
	return f, nil
}
