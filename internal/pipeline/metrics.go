package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	triggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sidenum_triggers_total",
			Help: "Trigger datagrams received",
		},
		[]string{"status"}, // status: accepted, duplicate, invalid
	)

	framesProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sidenum_frames_processed_total",
			Help: "Stitched frames run through recognition",
		},
	)

	frameProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sidenum_frame_processing_duration_seconds",
			Help:    "Per-frame recognition duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	passesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sidenum_passes_total",
			Help: "Completed train passes",
		},
		[]string{"result"}, // result: resolved, empty
	)

	sendErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sidenum_send_errors_total",
			Help: "Result datagrams that failed to send",
		},
	)
)

// ServeMetrics exposes the Prometheus registry on addr until ctx is
// cancelled. It blocks; run it in its own goroutine.
func ServeMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
