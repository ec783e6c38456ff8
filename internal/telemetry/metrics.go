// Package telemetry holds the Prometheus metrics the backtester updates
// during a replay, registered in init() and served over HTTP the way the
// teacher's metrics.go/main.go did for its live trading loop.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	// DelegatesPlaced counts every order admitted into the pending book,
	// split by product and side.
	DelegatesPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_delegates_placed_total",
			Help: "Orders admitted into the pending book.",
		},
		[]string{"product", "side"},
	)

	// DelegatesFilled counts legs that actually filled against a bar.
	DelegatesFilled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_delegates_filled_total",
			Help: "Pending legs filled against bar data.",
		},
		[]string{"product", "side"},
	)

	// DelegatesCancelled counts delegates withdrawn before filling.
	DelegatesCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_delegates_cancelled_total",
			Help: "Pending delegates cancelled before filling.",
		},
		[]string{"product"},
	)

	// PositionsLiquidated counts positions closed out by the liquidation
	// check rather than a normal exit.
	PositionsLiquidated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_positions_liquidated_total",
			Help: "Positions force-closed by the liquidation check.",
		},
		[]string{"product"},
	)

	// RealizedPnL accumulates realized profit across every closed position.
	// It is a gauge because a losing close adds a negative amount.
	RealizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backtest_realized_pnl_total",
			Help: "Cumulative realized profit, split by product.",
		},
		[]string{"product"},
	)

	// Balance reports the engine's current balance.
	Balance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtest_balance",
			Help: "Current engine balance.",
		},
	)

	// ReplayProgress reports how many bars of the configured run have been
	// consumed so far, for a progress bar on a long replay.
	ReplayProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backtest_replay_bars_processed",
			Help: "Bars processed so far in the current replay run.",
		},
		[]string{"product", "run_id"},
	)
)

func init() {
	prometheus.MustRegister(DelegatesPlaced, DelegatesFilled, DelegatesCancelled)
	prometheus.MustRegister(PositionsLiquidated, RealizedPnL)
	prometheus.MustRegister(Balance, ReplayProgress)
}

// RecordFill increments DelegatesFilled and, for a closing fill, folds
// profit into RealizedPnL.
func RecordFill(product, side string, profit float64, isClose bool) {
	DelegatesFilled.WithLabelValues(product, side).Inc()
	if isClose {
		RealizedPnL.WithLabelValues(product).Add(profit)
	}
}

// RecordLiquidation increments PositionsLiquidated for product.
func RecordLiquidation(product string) {
	PositionsLiquidated.WithLabelValues(product).Inc()
}

// SetProgress updates ReplayProgress for one run's product stream.
func SetProgress(product, runID string, bars int) {
	ReplayProgress.WithLabelValues(product, runID).Set(float64(bars))
}
