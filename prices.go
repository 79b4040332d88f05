package cartera

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NoPriceError reports that the live price gateway could not supply a price
// for a held asset. The valuation never substitutes zero or a stale price.
type NoPriceError struct {
	Asset string
}

func (e *NoPriceError) Error() string {
	return fmt.Sprintf("no live price available for %s", e.Asset)
}

// PriceSource supplies the current USD price of one unit of an asset.
type PriceSource interface {
	Price(asset string) (decimal.Decimal, error)
}

// LivePrices merges the crypto and equity gateways into one PriceSource.
// USD and USDT are par; MXN is priced through the live USDT/MXN rate.
type LivePrices struct {
	usd    map[string]decimal.Decimal
	usdmxn decimal.Decimal // MXN per USD
}

// NewLivePrices combines per-asset USD price maps with the live USD/MXN rate.
func NewLivePrices(usdmxn decimal.Decimal, quotes ...map[string]decimal.Decimal) *LivePrices {
	usd := make(map[string]decimal.Decimal)
	for _, m := range quotes {
		for asset, price := range m {
			usd[symbol(asset)] = price
		}
	}
	return &LivePrices{usd: usd, usdmxn: usdmxn}
}

// Price implements PriceSource.
func (p *LivePrices) Price(asset string) (decimal.Decimal, error) {
	switch asset {
	case "USD", "USDT":
		return decimal.NewFromInt(1), nil
	case "MXN":
		if !p.usdmxn.IsPositive() {
			return decimal.Decimal{}, &NoPriceError{Asset: asset}
		}
		return decimal.NewFromInt(1).Div(p.usdmxn), nil
	}
	if price, ok := p.usd[asset]; ok {
		return price, nil
	}
	return decimal.Decimal{}, &NoPriceError{Asset: asset}
}

// USDMXN returns the live MXN-per-USD rate.
func (p *LivePrices) USDMXN() decimal.Decimal { return p.usdmxn }
