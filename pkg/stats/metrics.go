package stats

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "openbook"

var (
	// IndexedHeight is the height of the last block committed by the indexer.
	IndexedHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "indexed_height",
		Help:      "Height of the last indexed block.",
	})
	// ProcessedBlocks counts the blocks committed by the indexer.
	ProcessedBlocks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "processed_blocks_total",
		Help:      "Number of indexed blocks.",
	})
	// IndexedSwaps counts the atomic swaps stored by the indexer.
	IndexedSwaps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "indexed_swaps_total",
		Help:      "Number of indexed atomic swaps.",
	})
	// IndexedListings counts the listings stored by the indexer.
	IndexedListings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "indexed_listings_total",
		Help:      "Number of indexed listings.",
	})
	// DeactivatedListings counts the listings brought to inactive.
	DeactivatedListings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deactivated_listings_total",
		Help:      "Number of listings whose coin got spent.",
	})
	// RpcRetries counts the retried remote calls, by service.
	RpcRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_retries_total",
		Help:      "Number of retried remote calls.",
	}, []string{"service"})
)

func init() {
	prometheus.MustRegister(
		IndexedHeight,
		ProcessedBlocks,
		IndexedSwaps,
		IndexedListings,
		DeactivatedListings,
		RpcRetries,
	)
}

// ServeMetrics exposes the registered metrics at /metrics until ctx is done.
func ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Infof("serving metrics on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
