package cartera

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RateResolver yields the USD/MXN rate (MXN per USD) in effect on a calendar
// date, degrading to the supplied fallback when the historical source is
// unavailable.
type RateResolver interface {
	RateFor(on Date, fallback decimal.Decimal) FXRate
}

// CostBasisState tracks the running weighted-average position of one asset.
// It is mutated only by Accumulate, strictly in chronological order.
type CostBasisState struct {
	QuantityHeld Quantity
	TotalCost    Money // USD
}

// AvgCost returns the weighted-average cost of one unit in USD. It is
// undefined (ok=false) while nothing is held.
func (s CostBasisState) AvgCost() (avg Money, ok bool) {
	if !s.QuantityHeld.IsPositive() {
		return M(0, "USD"), false
	}
	return s.TotalCost.Div(s.QuantityHeld), true
}

// CostBasisBook is the result of replaying the full transaction stream: one
// CostBasisState per asset, fee totals per currency, and the cumulative USD
// capital committed by buy-type transactions.
type CostBasisBook struct {
	states map[string]*CostBasisState
	// Fees accumulates fee amounts per fee currency. Fees are reported, not
	// capitalized into cost basis.
	Fees map[string]Quantity
	// TotalInvested sums the historical USD cost of every buy-type
	// transaction, independent of current holdings.
	TotalInvested Money
	Diagnostics   []Diagnostic
}

// State returns the cost-basis state of an asset.
func (b *CostBasisBook) State(asset string) (CostBasisState, bool) {
	s, ok := b.states[asset]
	if !ok {
		return CostBasisState{}, false
	}
	return *s, true
}

// Assets returns the symbols with a recorded state, sorted.
func (b *CostBasisBook) Assets() []string {
	assets := make([]string, 0, len(b.states))
	for asset := range b.states {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

func (b *CostBasisBook) state(asset string) *CostBasisState {
	s, ok := b.states[asset]
	if !ok {
		s = &CostBasisState{QuantityHeld: Q(0), TotalCost: M(0, "USD")}
		b.states[asset] = s
	}
	return s
}

func (b *CostBasisBook) diag(tx Transaction, format string, args ...any) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{
		Source: tx.Source,
		Msg:    fmt.Sprintf("%s %s on %s: %s", tx.Kind, tx.Asset, tx.Date(), fmt.Sprintf(format, args...)),
	})
}

// Accumulate replays the canonical transaction stream in time order and
// returns the per-asset weighted-average cost-basis table.
//
// Accumulate sorts the input itself (stable, ascending by timestamp, ties kept
// in source order) instead of trusting callers: interleaving several source
// tables by timestamp is exactly where ordering mistakes happen. The input
// slice is not modified.
func Accumulate(transactions []Transaction, rates RateResolver, liveUSDMXN decimal.Decimal) *CostBasisBook {
	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Time < txs[j].Time })

	book := &CostBasisBook{
		states:        make(map[string]*CostBasisState),
		Fees:          make(map[string]Quantity),
		TotalInvested: M(0, "USD"),
	}

	for _, tx := range txs {
		if tx.Time == 0 {
			book.diag(tx, "missing timestamp, skipped")
			continue
		}
		if tx.Quantity.IsNegative() {
			book.diag(tx, "negative quantity %s, skipped", tx.Quantity)
			continue
		}

		switch {
		case tx.Kind.IsBuy():
			book.buy(tx, rates, liveUSDMXN)
		case tx.Kind.IsSell():
			book.sell(tx)
		default:
			book.diag(tx, "unknown kind, skipped")
			continue
		}

		if tx.Fee.IsPositive() {
			feeCur := tx.Fee.Currency()
			book.Fees[feeCur] = book.Fees[feeCur].Add(Q(tx.Fee.Decimal()))
		}
	}
	return book
}

// buy adds quantity*unitPrice, converted to USD at the transaction date's
// exchange rate, to the asset's basis.
func (b *CostBasisBook) buy(tx Transaction, rates RateResolver, liveUSDMXN decimal.Decimal) {
	s := b.state(tx.Asset)
	s.QuantityHeld = s.QuantityHeld.Add(tx.Quantity)

	if !tx.HasPrice() {
		// Pure transfers (crypto deposits) bring units without a settlement
		// price: the position grows but the basis is unchanged. Routine, so
		// no diagnostic; the report's diagnostics are for anomalies.
		return
	}

	settled := tx.UnitPrice.Mul(tx.Quantity)
	costUSD, ok := b.toUSD(tx, settled, rates, liveUSDMXN)
	if !ok {
		return
	}
	s.TotalCost = s.TotalCost.Add(costUSD)
	b.TotalInvested = b.TotalInvested.Add(costUSD)
}

// sell removes a proportional share of the basis, preserving the average cost
// of the remaining position (weighted-average accounting, not FIFO/LIFO).
func (b *CostBasisBook) sell(tx Transaction) {
	s := b.state(tx.Asset)

	sold := tx.Quantity.Min(s.QuantityHeld)
	if sold.LessThan(tx.Quantity) {
		// Clamp at zero rather than going negative; the excess is dropped.
		b.diag(tx, "sell of %s exceeds held %s, clamped", tx.Quantity, s.QuantityHeld)
	}
	if !s.QuantityHeld.IsPositive() {
		return
	}
	removed := s.TotalCost.Mul(sold.Div(s.QuantityHeld))
	s.TotalCost = s.TotalCost.Sub(removed)
	s.QuantityHeld = s.QuantityHeld.Sub(sold)
}

// toUSD converts a settlement amount to USD using the historical rate of the
// transaction date. USD and USDT settle 1:1; MXN consults the resolver.
func (b *CostBasisBook) toUSD(tx Transaction, settled Money, rates RateResolver, liveUSDMXN decimal.Decimal) (Money, bool) {
	switch settled.Currency() {
	case "USD", "USDT":
		return M(settled.Decimal(), "USD"), true
	case "MXN":
		fx := rates.RateFor(tx.Date(), liveUSDMXN)
		if !fx.Rate.IsPositive() {
			b.diag(tx, "no usable USD/MXN rate, cost basis unchanged")
			return Money{}, false
		}
		if fx.Fallback {
			b.diag(tx, "historical USD/MXN rate unavailable, used current rate %s", fx.Rate)
		}
		return M(settled.Decimal().Div(fx.Rate), "USD"), true
	default:
		// Crypto-to-crypto settlements carry no fiat leg; the position grows
		// with no basis contribution.
		b.diag(tx, "settlement currency %s is not priced, cost basis unchanged", settled.Currency())
		return Money{}, false
	}
}
