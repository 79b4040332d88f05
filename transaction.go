// Package cartera implements a cost-basis and valuation engine for a mixed
// crypto/stock portfolio. It replays exported exchange transaction history in
// chronological order, maintaining a weighted-average cost basis per asset,
// and combines the resulting holdings with live market prices into a single
// point-in-time valuation.
package cartera

// Kind identifies the canonical transaction type.
type Kind string

const (
	KindDeposit       Kind = "deposit"
	KindWithdrawal    Kind = "withdrawal"
	KindConversionIn  Kind = "conversion-in"
	KindConversionOut Kind = "conversion-out"
	KindTradeBuy      Kind = "trade-buy"
	KindTradeSell     Kind = "trade-sell"
	KindStockBuy      Kind = "stock-buy"
	KindStockSell     Kind = "stock-sell"
)

// IsBuy reports whether the kind increases the holding of its asset.
func (k Kind) IsBuy() bool {
	switch k {
	case KindDeposit, KindConversionIn, KindTradeBuy, KindStockBuy:
		return true
	}
	return false
}

// IsSell reports whether the kind decreases the holding of its asset.
func (k Kind) IsSell() bool {
	switch k {
	case KindWithdrawal, KindConversionOut, KindTradeSell, KindStockSell:
		return true
	}
	return false
}

// Transaction is the canonical shape every source row is normalized into.
// It is immutable once created.
type Transaction struct {
	Kind    Kind
	Asset   string // primary asset symbol (BTC, ARKQ)
	Counter string // currency the transaction is priced in (MXN, USD, USDT)
	// Quantity is the positive amount of Asset moved.
	Quantity Quantity
	// UnitPrice is the price of one unit of Asset in Counter. It is the zero
	// Money for pure transfers (crypto deposits and withdrawals).
	UnitPrice Money
	// Fee is the fee amount in its own currency. Never folded into UnitPrice.
	Fee Money
	// Time is the settlement instant in unix seconds UTC. It is the single
	// ordering key across all sources. A zero Time is invalid: the normalizer
	// rejects such rows instead of letting them sort first and corrupt the
	// cost-basis order.
	Time int64
	// Source tags the originating table for diagnostics only.
	Source string
}

// Date returns the UTC calendar date of the transaction, the key used for
// historical exchange rate lookups.
func (t Transaction) Date() Date { return DateOfUnix(t.Time) }

// HasPrice reports whether the transaction carries a settlement price.
func (t Transaction) HasPrice() bool { return !t.UnitPrice.IsZero() }

// cashCurrency reports whether the symbol is one of the supported settlement
// currencies.
func cashCurrency(symbol string) bool {
	switch symbol {
	case "MXN", "USD", "USDT":
		return true
	}
	return false
}
