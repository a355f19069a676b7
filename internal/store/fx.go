package store

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/clock"
	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/observability/metrics"
)

// Stores bundles both stores plus the sweepable backends behind them.
type Stores struct {
	Status    StatusStore
	Documents DocumentStore
	sweepers  []Sweeper
}

func provideStores(cfg config.Config, clk clock.Clock, log *zap.Logger) Stores {
	if cfg.Store.Backend == config.BackendRedis {
		client := NewRedisClient(cfg.Store.RedisAddr, cfg.Store.RedisPassword)
		log.Info("using redis store backend", zap.String("addr", cfg.Store.RedisAddr))
		return Stores{
			Status:    NewRedisStatusStore(client, clk, cfg.Store.StatusTTL),
			Documents: NewRedisDocumentStore(client, clk),
		}
	}

	status := NewMemoryStatusStore(clk, cfg.Store.StatusTTL)
	documents := NewMemoryDocumentStore(clk)
	return Stores{
		Status:    status,
		Documents: documents,
		sweepers:  []Sweeper{status, documents},
	}
}

// SweepAll runs one expiry pass on every sweepable backend, returning
// evictions per store. Redis backends report nothing.
func (s Stores) SweepAll(ctx context.Context) map[string]int {
	names := []string{"status", "documents"}
	results := make(map[string]int, len(s.sweepers))
	for i, sweeper := range s.sweepers {
		results[names[i]] = sweeper.Sweep(ctx)
	}
	return results
}

func provideStatusStore(s Stores) StatusStore     { return s.Status }
func provideDocumentStore(s Stores) DocumentStore { return s.Documents }

// runSweeper expires entries periodically so memory stays bounded even for
// sessions nobody polls. Redis backends have native TTLs and register no
// sweepers.
func runSweeper(lc fx.Lifecycle, s Stores, cfg config.Config, m *metrics.Metrics, log *zap.Logger) {
	if len(s.sweepers) == 0 {
		return
	}

	interval := cfg.Store.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						names := []string{"status", "documents"}
						for i, sweeper := range s.sweepers {
							if evicted := sweeper.Sweep(ctx); evicted > 0 {
								m.RecordSweepEvictions(ctx, names[i], evicted)
								log.Debug("store sweep",
									zap.String("store", names[i]),
									zap.Int("evicted", evicted),
								)
							}
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return s.Documents.Clear(stopCtx)
		},
	})
}

var Module = fx.Module("store",
	fx.Provide(
		provideStores,
		provideStatusStore,
		provideDocumentStore,
	),
	fx.Invoke(runSweeper),
)
