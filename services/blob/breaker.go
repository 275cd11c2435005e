package blobsvc

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/services/metrics"
)

// BreakerSettings configures the circuit breaker put in front of a remote BlobStore.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32        // requests allowed while half-open
	Interval         time.Duration // cyclic reset period of the closed state counts
	Timeout          time.Duration // open state duration before going half-open
	FailureThreshold uint32        // consecutive failures that open the circuit
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// breakerStore fails fast once the wrapped store keeps failing, instead of holding uploads
// for the whole client timeout.
type breakerStore struct {
	store core.BlobStore
	cb    *gobreaker.CircuitBreaker[string]
}

var _ core.BlobStore = (*breakerStore)(nil)

func NewBreakerStore(store core.BlobStore, settings BreakerSettings, logger core.Logger) core.BlobStore {
	state := metrics.BlobCircuitState.WithLabelValues(settings.Name)
	state.Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			state.Set(float64(to))
			logger.Warn(fmt.Sprintf("blob storage circuit breaker %q: %s -> %s", name, from, to))
		},
	})
	return &breakerStore{store: store, cb: cb}
}

func (s *breakerStore) Put(ctx context.Context, obj core.BlobObject) (string, error) {
	return s.cb.Execute(func() (string, error) {
		return s.store.Put(ctx, obj)
	})
}

func (s *breakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (string, error) {
		return "", s.store.Delete(ctx, key)
	})
	return err
}
