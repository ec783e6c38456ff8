package engine

import "github.com/chidi150c/swapbacktest/internal/model"

// Position is an open or closed leveraged exposure in one product. While
// open, Quantity/Margin reflect the current residual size; finalize
// rewrites them to the lifetime peak exposure per spec §4.5.
type Position struct {
	Product          string
	Lever            int
	Side             model.Side // BuyLong (long) or SellShort (short): the position's direction
	OpenPrice        float64
	Quantity         float64
	Margin           float64
	AppendMargin     float64 // margin posted beyond quantity/lever; cushion against liquidation
	LiquidationPrice float64
	ClosePrice       float64
	Profit           float64
	ProfitRatio      float64
	Fee              float64
	OpenTime         int64
	CloseTime        int64
	Log              []Record

	peakQuantity float64
	peakMargin   float64
}

// newPosition opens a fresh position from a filled opening leg.
func newPosition(cfg Config, product string, side model.Side, price, quantity, margin, appendMargin float64, fee float64, barTime int64) *Position {
	p := &Position{
		Product:      product,
		Lever:        cfg.Lever,
		Side:         side,
		OpenPrice:    price,
		Quantity:     quantity,
		Margin:       margin,
		AppendMargin: appendMargin,
		OpenTime:     barTime,
		peakQuantity: quantity,
		peakMargin:   margin,
	}
	p.Log = append(p.Log, Record{
		Side: sideForOpen(side), Price: price, Quantity: quantity, Margin: margin,
		Fee: fee, TimeMillis: barTime,
	})
	p.recomputeLiquidationPrice(cfg)
	return p
}

func sideForOpen(positionSide model.Side) model.Side {
	if positionSide == model.BuyLong {
		return model.BuyLong
	}
	return model.SellShort
}

func sideForClose(positionSide model.Side) model.Side {
	if positionSide == model.BuyLong {
		return model.BuySell
	}
	return model.SellLong
}

// addSameDirection folds an additional same-direction fill into the
// position: weighted-average open price, accumulated quantity/margin, and a
// recomputed liquidation price (spec §4.4 Step C).
func (p *Position) addSameDirection(cfg Config, price, quantity, margin, appendMargin float64, fee float64, barTime int64) {
	totalQty := p.Quantity + quantity
	if totalQty > 0 {
		p.OpenPrice = (p.OpenPrice*p.Quantity + price*quantity) / totalQty
	}
	p.Quantity = totalQty
	p.Margin += margin
	p.AppendMargin += appendMargin
	p.trackPeaks()
	p.Log = append(p.Log, Record{
		Side: sideForOpen(p.Side), Price: price, Quantity: quantity, Margin: margin,
		Fee: fee, TimeMillis: barTime,
	})
	p.recomputeLiquidationPrice(cfg)
}

// reduce applies a closing fill of quantity at fillPrice: realizes P&L
// proportional to the reduced quantity, releases the proportional margin
// (including its share of AppendMargin), and appends the Record. Returns
// the net balance delta (margin released + profit − closeFee), the profit
// realized by this fill, and whether the position is now fully closed
// (quantity reached zero).
func (p *Position) reduce(cfg Config, fillPrice, quantity float64, barTime int64) (balanceDelta, fillProfit float64, closed bool) {
	if quantity > p.Quantity {
		quantity = p.Quantity
	}
	fraction := 0.0
	if p.Quantity > 0 {
		fraction = quantity / p.Quantity
	}
	marginReleased := p.Margin * fraction
	appendReleased := p.AppendMargin * fraction

	sign := p.Side.Sign()
	profit := (fillPrice - p.OpenPrice) * quantity * sign
	notional := quantity * fillPrice
	closeFee := notional * cfg.CloseFee
	profitRatio := 0.0
	if marginReleased > 0 {
		profitRatio = profit / marginReleased
	}

	p.Quantity -= quantity
	p.Margin -= marginReleased
	p.AppendMargin -= appendReleased
	p.Profit += profit
	p.Fee += closeFee

	p.Log = append(p.Log, Record{
		Side: sideForClose(p.Side), Price: fillPrice, Quantity: quantity, Margin: marginReleased,
		Fee: closeFee, Profit: profit, ProfitRatio: profitRatio, TimeMillis: barTime,
	})

	if p.Quantity <= 1e-12 {
		p.Quantity = 0
		p.Margin = 0
		p.AppendMargin = 0
		closed = true
	} else {
		p.recomputeLiquidationPrice(cfg)
	}
	// Margin already includes AppendMargin, so marginReleased covers both.
	return marginReleased + profit - closeFee, profit, closed
}

func (p *Position) trackPeaks() {
	if p.Quantity > p.peakQuantity {
		p.peakQuantity = p.Quantity
	}
	if p.Margin > p.peakMargin {
		p.peakMargin = p.Margin
	}
}

// recomputeLiquidationPrice applies the spec §4.4 Step B formulas.
//
//	imr = 1/lever, mmr = maintenance, append = position.append_margin
//	notional = Quantity * open_price  (Quantity is in coins)
//	Long:  open_price*(1 - imr + mmr) - append/Quantity + notional*close_fee
//	Short: open_price*(1 + imr - mmr) + append/Quantity - notional*close_fee
func (p *Position) recomputeLiquidationPrice(cfg Config) {
	if p.Quantity <= 0 || p.OpenPrice <= 0 {
		p.LiquidationPrice = 0
		return
	}
	imr := cfg.imr()
	mmr := cfg.Maintenance
	notional := p.Quantity * p.OpenPrice
	qtyCoins := p.Quantity // quantity field is coin-denominated; qtyCoins == Quantity
	appendTerm := 0.0
	if qtyCoins > 0 {
		appendTerm = p.AppendMargin / qtyCoins
	}
	if p.Side == model.BuyLong {
		p.LiquidationPrice = p.OpenPrice*(1-imr+mmr) - appendTerm + notional*cfg.CloseFee
	} else {
		p.LiquidationPrice = p.OpenPrice*(1+imr-mmr) + appendTerm - notional*cfg.CloseFee
	}
}

// finalize computes the aggregate fields stored on a closed position and
// rewrites Quantity/Margin to their lifetime peaks, per spec §4.5.
func (p *Position) finalize() {
	var profit, profitRatio, fee float64
	for _, r := range p.Log {
		profit += r.Profit
		profitRatio += r.ProfitRatio
		fee += r.Fee
	}
	p.Profit = profit
	p.ProfitRatio = profitRatio
	p.Fee = fee
	p.Quantity = p.peakQuantity
	p.Margin = p.peakMargin
	if n := len(p.Log); n > 0 {
		last := p.Log[n-1]
		p.ClosePrice = last.Price
		p.CloseTime = last.TimeMillis
	}
}
