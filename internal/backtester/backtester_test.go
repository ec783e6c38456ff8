package backtester

import (
	"context"
	"errors"
	"testing"

	"github.com/chidi150c/swapbacktest/internal/engine"
	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/chidi150c/swapbacktest/internal/stratctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	bars []model.Bar
}

func (f *fakeSource) Fetch(_ context.Context, _ string, _ model.Level, cursor int64, limit int) ([]model.Bar, error) {
	start := int(cursor)
	if start >= len(f.bars) {
		return nil, nil
	}
	end := start + limit
	if end > len(f.bars) {
		end = len(f.bars)
	}
	return f.bars[start:end], nil
}

func makeBars(n int, base float64) []model.Bar {
	bars := make([]model.Bar, n)
	price := base
	for i := 0; i < n; i++ {
		bars[i] = model.Bar{TimeMillis: int64(i) * 60000, Open: price, High: price + 10, Low: price - 10, Close: price}
		price += 1
	}
	return bars
}

func TestBacktesterRunCallsStrategyOnEveryBar(t *testing.T) {
	src := &fakeSource{bars: makeBars(10, 100)}
	eng := engine.New(engine.Config{InitialMargin: 1000, Lever: 5, Maintenance: 0.004})
	eng.InsertProduct("BTC-USD", 0.0001, 1)

	var calls int
	bt := New(src, eng, "BTC-USD", model.Minute1, model.Minute1, func(c stratctx.Context) {
		calls++
	})
	bt.BatchSize = 3

	_, err := bt.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, calls)
}

func TestBacktesterRejectsStrategyFinerThanBar(t *testing.T) {
	src := &fakeSource{bars: makeBars(3, 100)}
	eng := engine.New(engine.Config{InitialMargin: 1000, Lever: 5})
	eng.InsertProduct("BTC-USD", 0.0001, 1)

	bt := New(src, eng, "BTC-USD", model.Hour1, model.Minute1, nil)
	_, err := bt.Run(context.Background())
	assert.True(t, errors.Is(err, ErrStrategyLevelTooLow))
}

func TestBacktesterReturnsClosedHistory(t *testing.T) {
	src := &fakeSource{bars: makeBars(5, 100)}
	eng := engine.New(engine.Config{InitialMargin: 1000, Lever: 5, Maintenance: 0.004})
	eng.InsertProduct("BTC-USD", 0.0001, 1)

	bt := New(src, eng, "BTC-USD", model.Minute1, model.Minute1, func(c stratctx.Context) {
		if _, ok := c.Position(); !ok && c.Close.Len() == 1 {
			_, _ = c.Order(model.BuyLong, model.Market(c.Close.Now(), true))
		}
	})
	history, err := bt.Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, history)
}
