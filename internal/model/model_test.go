package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarValidate(t *testing.T) {
	good := Bar{TimeMillis: 1, Open: 1000, High: 2500, Low: 500, Close: 2000}
	require.NoError(t, good.Validate())

	cases := []Bar{
		{TimeMillis: 2, Open: 1000, High: 2500, Low: 0, Close: 2000},   // low <= 0
		{TimeMillis: 3, Open: 3000, High: 2500, Low: 500, Close: 2000}, // open > high
		{TimeMillis: 4, Open: 1000, High: 2500, Low: 500, Close: 3000}, // close > high
		{TimeMillis: 5, Open: 100, High: 2500, Low: 500, Close: 2000},  // open < low
	}
	for _, c := range cases {
		assert.Error(t, c.Validate())
	}
}

func TestSideSignAndOpen(t *testing.T) {
	assert.True(t, BuyLong.IsOpen())
	assert.True(t, SellShort.IsOpen())
	assert.False(t, BuySell.IsOpen())
	assert.False(t, SellLong.IsOpen())

	assert.Equal(t, 1.0, BuyLong.Sign())
	assert.Equal(t, 1.0, BuySell.Sign())
	assert.Equal(t, -1.0, SellShort.Sign())
	assert.Equal(t, -1.0, SellLong.Sign())
}

func TestUnitVariants(t *testing.T) {
	assert.True(t, Ignore().IsIgnore())
	assert.False(t, Quantity(1).IsIgnore())
	assert.True(t, Proportion(0.5).IsSet())
}

func TestPriceArmed(t *testing.T) {
	bar := Bar{TimeMillis: 1, Open: 1000, High: 2500, Low: 500, Close: 2000}

	gtMarket := Market(2100, true)
	assert.True(t, gtMarket.Armed(bar))

	ltMarket := Market(400, false)
	assert.False(t, ltMarket.Armed(bar))

	ltMarket2 := Market(600, false)
	assert.True(t, ltMarket2.Armed(bar))

	nan := Market(0.0, true)
	nan.Trigger = nan.Trigger / nan.Trigger // NaN
	assert.False(t, nan.Armed(bar))

	negative := Market(-5, true)
	assert.False(t, negative.Armed(bar))
}

func TestPriceRestingLimitConversion(t *testing.T) {
	p := Limit(2100, 3000, true)
	require.True(t, p.IsLimit())
	resting := p.RestingLimit()
	assert.False(t, resting.IsLimit())
	assert.Equal(t, 3000.0, resting.Trigger)
	assert.True(t, resting.IsUp())
}

func TestLevelMillisAndPeriodStart(t *testing.T) {
	assert.Equal(t, int64(1000*60*60*4), Hour4.Millis(0))

	// 4-hour periods align to 00:00/04:00/... UTC.
	midnight := int64(0)
	assert.True(t, Hour4.PeriodStart(midnight))
	fourHoursIn := int64(1000 * 60 * 60 * 4)
	assert.True(t, Hour4.PeriodStart(fourHoursIn))
	twoHoursIn := int64(1000 * 60 * 60 * 2)
	assert.False(t, Hour4.PeriodStart(twoHoursIn))
}

func TestLevelMonth1(t *testing.T) {
	// 2024-02-01T00:00:00Z in millis.
	feb1 := int64(1706745600000)
	assert.True(t, Month1.PeriodStart(feb1))
	// Leap-year February has 29 days.
	assert.Equal(t, int64(29*24*60*60*1000), Month1.Millis(feb1))
}
