package cartera

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver serves canned historical rates and degrades like the real one.
type stubResolver struct {
	rates map[Date]decimal.Decimal
	calls int
}

func (s *stubResolver) RateFor(on Date, fallback decimal.Decimal) FXRate {
	s.calls++
	if rate, ok := s.rates[on]; ok {
		return FXRate{Rate: rate}
	}
	return FXRate{Rate: fallback, Fallback: true}
}

func ts(day int) int64 {
	return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC).Unix()
}

func buy(day int, asset string, qty, price float64, counter string) Transaction {
	return Transaction{
		Kind:      KindTradeBuy,
		Asset:     asset,
		Counter:   counter,
		Quantity:  Q(qty),
		UnitPrice: M(price, counter),
		Time:      ts(day),
		Source:    "trade",
	}
}

func sell(day int, asset string, qty, price float64, counter string) Transaction {
	return Transaction{
		Kind:      KindTradeSell,
		Asset:     asset,
		Counter:   counter,
		Quantity:  Q(qty),
		UnitPrice: M(price, counter),
		Time:      ts(day),
		Source:    "trade",
	}
}

func TestAccumulateWeightedAverageOfBuys(t *testing.T) {
	// avg cost of buys only must equal the quantity-weighted mean of prices.
	txs := []Transaction{
		buy(1, "BTC", 0.5, 40000, "USD"),
		buy(2, "BTC", 1.5, 48000, "USDT"),
		buy(3, "BTC", 2.0, 50000, "USD"),
	}
	book := Accumulate(txs, &stubResolver{}, decimal.Decimal{})

	state, ok := book.State("BTC")
	require.True(t, ok)
	assert.True(t, state.QuantityHeld.Equal(Q(4.0)), "held %s", state.QuantityHeld)

	// (0.5*40000 + 1.5*48000 + 2*50000) / 4 = 48000
	avg, defined := state.AvgCost()
	require.True(t, defined)
	assert.Equal(t, "48000", avg.Decimal().String())
	assert.Equal(t, "192000", book.TotalInvested.Decimal().String())
}

func TestAccumulateSellPreservesAverage(t *testing.T) {
	txs := []Transaction{
		buy(1, "ETH", 1, 100, "USD"),
		buy(2, "ETH", 1, 200, "USD"),
		sell(3, "ETH", 1, 250, "USD"),
	}
	book := Accumulate(txs, &stubResolver{}, decimal.Decimal{})

	state, _ := book.State("ETH")
	assert.True(t, state.QuantityHeld.Equal(Q(1)))
	assert.Equal(t, "150", state.TotalCost.Decimal().String())

	avg, defined := state.AvgCost()
	require.True(t, defined)
	assert.Equal(t, "150", avg.Decimal().String())
}

func TestAccumulateFullLiquidation(t *testing.T) {
	txs := []Transaction{
		buy(1, "SOL", 3, 100, "USD"),
		buy(2, "SOL", 7, 120, "USD"),
		sell(3, "SOL", 10, 150, "USD"),
	}
	book := Accumulate(txs, &stubResolver{}, decimal.Decimal{})

	state, _ := book.State("SOL")
	assert.True(t, state.QuantityHeld.IsZero(), "held %s", state.QuantityHeld)
	assert.True(t, state.TotalCost.IsZero(), "cost %s", state.TotalCost)

	_, defined := state.AvgCost()
	assert.False(t, defined)
}

func TestAccumulateOverSellClamps(t *testing.T) {
	txs := []Transaction{
		buy(1, "XRP", 100, 0.5, "USD"),
		sell(2, "XRP", 150, 0.6, "USD"),
	}
	book := Accumulate(txs, &stubResolver{}, decimal.Decimal{})

	state, _ := book.State("XRP")
	assert.False(t, state.QuantityHeld.IsNegative())
	assert.True(t, state.QuantityHeld.IsZero())
	assert.True(t, state.TotalCost.IsZero())
	require.NotEmpty(t, book.Diagnostics)
	assert.Contains(t, book.Diagnostics[0].Msg, "clamped")
}

func TestAccumulateSortsBeforeReplay(t *testing.T) {
	ordered := []Transaction{
		buy(1, "BTC", 1, 100, "USD"),
		sell(2, "BTC", 1, 150, "USD"),
		buy(3, "BTC", 2, 200, "USD"),
	}
	reversed := []Transaction{ordered[2], ordered[1], ordered[0]}

	a := Accumulate(ordered, &stubResolver{}, decimal.Decimal{})
	b := Accumulate(reversed, &stubResolver{}, decimal.Decimal{})

	sa, _ := a.State("BTC")
	sb, _ := b.State("BTC")
	assert.True(t, sa.QuantityHeld.Equal(sb.QuantityHeld))
	assert.True(t, sa.TotalCost.Equal(sb.TotalCost))
	assert.True(t, sa.QuantityHeld.Equal(Q(2)))
	assert.Equal(t, "400", sa.TotalCost.Decimal().String())
}

func TestAccumulateHistoricalRateScenario(t *testing.T) {
	deposit := Transaction{
		Kind:      KindDeposit,
		Asset:     "MXN",
		Counter:   "MXN",
		Quantity:  Q(10000),
		UnitPrice: M(1, "MXN"),
		Time:      ts(5),
		Source:    "funding",
	}
	live := decimal.RequireFromString("18")

	// With the historical rate of 20 MXN/USD the deposit commits $500.00.
	resolver := &stubResolver{rates: map[Date]decimal.Decimal{
		deposit.Date(): decimal.RequireFromString("20"),
	}}
	book := Accumulate([]Transaction{deposit}, resolver, live)
	assert.Equal(t, "500.00", book.TotalInvested.Decimal().StringFixed(2))

	// With the historical source unavailable the current 18 MXN/USD rate is
	// substituted: $555.56. The two must differ, proving historical usage.
	degraded := Accumulate([]Transaction{deposit}, &stubResolver{}, live)
	assert.Equal(t, "555.56", degraded.TotalInvested.Decimal().StringFixed(2))
	assert.NotEmpty(t, degraded.Diagnostics)
}

func TestAccumulateFeesReportedNotCapitalized(t *testing.T) {
	tx := buy(1, "BTC", 1, 100, "USD")
	tx.Fee = M(5, "BTC")
	book := Accumulate([]Transaction{tx}, &stubResolver{}, decimal.Decimal{})

	state, _ := book.State("BTC")
	assert.Equal(t, "100", state.TotalCost.Decimal().String(), "fee must not enter cost basis")
	assert.True(t, book.Fees["BTC"].Equal(Q(5)))
}

func TestAccumulateTransferWithoutPrice(t *testing.T) {
	tx := Transaction{
		Kind:     KindDeposit,
		Asset:    "BTC",
		Counter:  "BTC",
		Quantity: Q(0.25),
		Time:     ts(1),
		Source:   "funding",
	}
	book := Accumulate([]Transaction{tx}, &stubResolver{}, decimal.Decimal{})

	state, _ := book.State("BTC")
	assert.True(t, state.QuantityHeld.Equal(Q(0.25)))
	assert.True(t, state.TotalCost.IsZero())
	assert.Empty(t, book.Diagnostics, "a priceless transfer is routine, not an anomaly")
}

func TestAccumulateSkipsZeroTimestamps(t *testing.T) {
	tx := buy(1, "BTC", 1, 100, "USD")
	tx.Time = 0
	book := Accumulate([]Transaction{tx}, &stubResolver{}, decimal.Decimal{})

	_, ok := book.State("BTC")
	assert.False(t, ok)
	assert.NotEmpty(t, book.Diagnostics)
}
