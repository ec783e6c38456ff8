package main

import (
	"log"

	"github.com/chidi150c/swapbacktest/internal/indicators"
	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/chidi150c/swapbacktest/internal/stratctx"
)

// smaCrossStrategy is an example strategy: it goes long on a fast/slow SMA
// golden cross and flat on a death cross, attaching a fixed stop-loss to
// every fresh entry. It exists to exercise stratctx.Context end to end, not
// as investment advice.
type smaCrossStrategy struct {
	fast, slow   int
	stopLossPct  float64
	lookbackSeed int
}

func newSMACrossStrategy(fast, slow int, stopLossPct float64) *smaCrossStrategy {
	lookback := slow + 1
	return &smaCrossStrategy{fast: fast, slow: slow, stopLossPct: stopLossPct, lookbackSeed: lookback}
}

func (s *smaCrossStrategy) run(c stratctx.Context) {
	if c.Close.Len() < s.slow+2 {
		return
	}
	window := c.Close.Slice(s.slow + 2)
	fastNow := indicators.SMA(window, s.fast)
	slowNow := indicators.SMA(window, s.slow)
	n := len(window)
	fastCur, fastPrev := fastNow[n-1], fastNow[n-2]
	slowCur, slowPrev := slowNow[n-1], slowNow[n-2]

	goldenCross := fastPrev <= slowPrev && fastCur > slowCur
	deathCross := fastPrev >= slowPrev && fastCur < slowCur

	pos, hasPosition := c.Position()

	switch {
	case !hasPosition && goldenCross:
		price := model.Market(c.Close.Now(), true)
		stopLoss := model.Proportion(s.stopLossPct)
		id, err := c.OrderProfitLoss(model.BuyLong, price, model.Ignore(), stopLoss)
		if err != nil {
			log.Printf("strategy: open long rejected: %v", err)
			return
		}
		log.Printf("strategy: opened long delegate=%d at %.2f", id, c.Close.Now())
	case hasPosition && pos.Side == model.BuyLong && deathCross:
		price := model.Market(c.Close.Now(), false)
		if _, err := c.Order(model.BuySell, price); err != nil {
			log.Printf("strategy: close long rejected: %v", err)
		}
	}
}
