// Package backtester implements the replay loop (component C3): it pulls
// bars from a BarSource in batches, drives the matching engine forward bar
// by bar, and invokes the strategy callback at its configured cadence.
package backtester

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/chidi150c/swapbacktest/internal/engine"
	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/chidi150c/swapbacktest/internal/stratctx"
	"github.com/chidi150c/swapbacktest/internal/telemetry"
	"github.com/google/uuid"
)

// ErrStrategyLevelTooLow is returned when the configured strategy cadence
// is finer than the bar level being replayed: a strategy cannot be
// evaluated more often than bars arrive.
var ErrStrategyLevelTooLow = errors.New("backtester: strategy level must be >= bar level")

// BarSource supplies historical bars in ascending-time batches. Fetch may
// be called repeatedly with an advancing cursor until it returns fewer
// bars than requested (or none), signaling end of stream.
type BarSource interface {
	Fetch(ctx context.Context, product string, level model.Level, cursor int64, limit int) ([]model.Bar, error)
}

// Strategy is the user-supplied decision function, invoked once per
// cadence bar with a read-only Context.
type Strategy func(ctx stratctx.Context)

// Backtester drives one product's replay: fetch a batch, then for each bar
// Ready -> (on cadence) Strategy -> Update, then fetch the next batch. Every
// fetched bar is kept in memory for the strategy's series views.
type Backtester struct {
	Source        BarSource
	Engine        *engine.Engine
	Product       string
	BarLevel      model.Level
	StrategyLevel model.Level
	BatchSize     int
	Strategy      Strategy

	// RunID identifies one replay invocation in logs.
	RunID string
}

// New builds a Backtester with a default batch size and a freshly
// generated run id.
func New(source BarSource, eng *engine.Engine, product string, barLevel, strategyLevel model.Level, strategy Strategy) *Backtester {
	return &Backtester{
		Source:        source,
		Engine:        eng,
		Product:       product,
		BarLevel:      barLevel,
		StrategyLevel: strategyLevel,
		BatchSize:     1000,
		Strategy:      strategy,
		RunID:         uuid.NewString(),
	}
}

// Run streams the product's full history, advancing the engine bar by bar
// and invoking Strategy on every StrategyLevel-aligned bar, returning the
// engine's closed-position history at stream end.
func (b *Backtester) Run(ctx context.Context) ([]engine.Position, error) {
	if b.StrategyLevel.Rank() < b.BarLevel.Rank() {
		return nil, fmt.Errorf("%w: strategy=%s bar=%s", ErrStrategyLevelTooLow, b.StrategyLevel, b.BarLevel)
	}
	batch := b.BatchSize
	if batch <= 0 {
		batch = 1000
	}

	var history []model.Bar
	var cursor int64
	firstStrategyCall := true

	log.Printf("backtester: run=%s product=%s bar=%s strategy=%s starting", b.RunID, b.Product, b.BarLevel, b.StrategyLevel)

	for {
		select {
		case <-ctx.Done():
			log.Printf("backtester: run=%s canceled", b.RunID)
			return b.Engine.History(), ctx.Err()
		default:
		}

		page, err := b.Source.Fetch(ctx, b.Product, b.BarLevel, cursor, batch)
		if err != nil {
			return nil, fmt.Errorf("backtester: fetch: %w", err)
		}
		if len(page) == 0 {
			break
		}
		cursor += int64(len(page))

		for _, bar := range page {
			if err := b.Engine.Ready(b.Product, bar); err != nil {
				return nil, fmt.Errorf("backtester: ready at %d: %w", bar.TimeMillis, err)
			}
			history = append(history, bar)
			current := len(history) - 1

			// The strategy fires on the first bar ever seen (so it can
			// place its opening orders) and thereafter on every bar that
			// starts a new StrategyLevel period. It runs against the bar
			// engine.Ready just stored, before Update resolves any fills
			// against it, so an order placed here is eligible to fill on
			// this same bar (spec: ready -> strategy -> update).
			fire := firstStrategyCall || b.StrategyLevel.PeriodStart(bar.TimeMillis)
			if fire && b.Strategy != nil {
				sc := stratctx.New(b.Engine, b.Product, b.StrategyLevel, history, current)
				b.Strategy(sc)
			}
			firstStrategyCall = false

			if err := b.Engine.Update(b.Product, bar); err != nil {
				return nil, fmt.Errorf("backtester: update at %d: %w", bar.TimeMillis, err)
			}
		}

		telemetry.SetProgress(b.Product, b.RunID, len(history))

		if len(page) < batch {
			break
		}
	}

	log.Printf("backtester: run=%s product=%s complete, bars=%d positions=%d balance=%.8f",
		b.RunID, b.Product, len(history), len(b.Engine.History()), b.Engine.Balance())
	return b.Engine.History(), nil
}
