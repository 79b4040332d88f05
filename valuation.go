package cartera

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Location is where a holding sits.
type Location string

const (
	LocationExchange Location = "Exchange"
	LocationCold     Location = "Cold"
	LocationStock    Location = "Stock"
)

// Holding is one asset quantity at one location.
type Holding struct {
	Asset    string
	Location Location
	Quantity Quantity
}

// dust is the threshold below which a balance is treated as empty.
var dust = decimal.RequireFromString("0.00001")

// AssetValuation is one row of the portfolio report.
type AssetValuation struct {
	Asset      string
	Quantity   Quantity
	Location   string // single location name, or "Both" when held in several
	Price      Money  // current USD price of one unit
	Value      Money  // Quantity * Price
	AvgCost    Money  // weighted-average USD cost of one unit
	HasBasis   bool   // false when no cost basis was accumulated for the asset
	PnL        Money  // Value - AvgCost*Quantity, zero when HasBasis is false
	Allocation Percent
}

// LocationValuation groups the priced holdings of one location.
type LocationValuation struct {
	Location Location
	Rows     []AssetValuation
	Value    Money
}

// FeeValuation is one currency's accumulated fees with its current USD value.
type FeeValuation struct {
	Currency string
	Amount   Quantity
	Value    Money
	HasValue bool
}

// PortfolioReport is the complete point-in-time valuation.
type PortfolioReport struct {
	Generated     time.Time
	Rows          []AssetValuation
	Locations     []LocationValuation
	TotalValue    Money
	TotalInvested Money // cumulative USD capital committed by buy-type transactions
	PnL           Money // TotalValue - TotalInvested
	ROI           Percent
	USDMXN        decimal.Decimal
	Deposits      map[string]Quantity
	Fees          []FeeValuation
	Diagnostics   []Diagnostic
}

// Aggregate merges the holdings of all locations with the cost-basis book and
// live prices into a single valuation.
//
// A missing live price for a held asset fails the whole run: accuracy over
// availability, in deliberate contrast with the FX resolver's graceful
// degradation.
func Aggregate(holdings []Holding, book *CostBasisBook, prices PriceSource) (*PortfolioReport, error) {
	quantities := make(map[string]Quantity)
	locations := make(map[string]map[Location]bool)
	for _, h := range holdings {
		if h.Quantity.Decimal().LessThanOrEqual(dust) {
			continue
		}
		asset := symbol(h.Asset)
		quantities[asset] = quantities[asset].Add(h.Quantity)
		if locations[asset] == nil {
			locations[asset] = make(map[Location]bool)
		}
		locations[asset][h.Location] = true
	}

	report := &PortfolioReport{
		Generated:     time.Now(),
		TotalValue:    M(0, "USD"),
		TotalInvested: M(0, "USD"),
		PnL:           M(0, "USD"),
	}

	priced := make(map[string]Money, len(quantities))
	for asset, quantity := range quantities {
		price, err := prices.Price(asset)
		if err != nil {
			return nil, fmt.Errorf("cannot value holdings: %w", err)
		}
		priced[asset] = M(price, "USD")

		row := AssetValuation{
			Asset:    asset,
			Quantity: quantity,
			Location: locationLabel(locations[asset]),
			Price:    M(price, "USD"),
		}
		row.Value = row.Price.Mul(quantity)

		if book != nil {
			if state, ok := book.State(asset); ok {
				if avg, defined := state.AvgCost(); defined {
					row.AvgCost = avg
					row.HasBasis = true
					row.PnL = row.Value.Sub(avg.Mul(quantity))
				}
			}
		}

		report.Rows = append(report.Rows, row)
		report.TotalValue = report.TotalValue.Add(row.Value)
	}

	// Descending by USD value, ties broken by symbol ascending.
	sortByValue(report.Rows)
	report.Locations = locationsOf(holdings, priced)

	if report.TotalValue.IsPositive() {
		for i := range report.Rows {
			ratio := report.Rows[i].Value.Decimal().Div(report.TotalValue.Decimal())
			report.Rows[i].Allocation = Percent(ratio.InexactFloat64() * 100)
		}
	}

	if book != nil {
		report.TotalInvested = book.TotalInvested
		report.Diagnostics = book.Diagnostics
		report.Fees = valueFees(book.Fees, prices)
	}
	report.PnL = report.TotalValue.Sub(report.TotalInvested)
	if report.TotalInvested.IsPositive() {
		roi := report.PnL.Decimal().Div(report.TotalInvested.Decimal())
		report.ROI = Percent(roi.InexactFloat64() * 100)
	}
	return report, nil
}

func sortByValue(rows []AssetValuation) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Value.Equal(b.Value) {
			return b.Value.LessThan(a.Value)
		}
		return a.Asset < b.Asset
	})
}

// locationsOf groups the non-dust holdings per location, each valued at the
// already-fetched live price, in the fixed exchange, cold, stock order.
func locationsOf(holdings []Holding, priced map[string]Money) []LocationValuation {
	groups := make(map[Location]*LocationValuation)
	for _, h := range holdings {
		if h.Quantity.Decimal().LessThanOrEqual(dust) {
			continue
		}
		asset := symbol(h.Asset)
		price, ok := priced[asset]
		if !ok {
			continue
		}
		g := groups[h.Location]
		if g == nil {
			g = &LocationValuation{Location: h.Location, Value: M(0, "USD")}
			groups[h.Location] = g
		}
		row := AssetValuation{
			Asset:    asset,
			Quantity: h.Quantity,
			Location: string(h.Location),
			Price:    price,
			Value:    price.Mul(h.Quantity),
		}
		g.Rows = append(g.Rows, row)
		g.Value = g.Value.Add(row.Value)
	}

	var out []LocationValuation
	for _, loc := range []Location{LocationExchange, LocationCold, LocationStock} {
		g, ok := groups[loc]
		if !ok {
			continue
		}
		sortByValue(g.Rows)
		out = append(out, *g)
	}
	return out
}

func locationLabel(present map[Location]bool) string {
	if len(present) > 1 {
		return "Both"
	}
	for loc := range present {
		return string(loc)
	}
	return ""
}

// valueFees prices the per-currency fee totals. Fee currencies without a live
// price are listed unvalued rather than failing the run: the fatal-price rule
// protects held positions, not the fee footnote.
func valueFees(fees map[string]Quantity, prices PriceSource) []FeeValuation {
	currencies := make([]string, 0, len(fees))
	for currency := range fees {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var rows []FeeValuation
	for _, currency := range currencies {
		amount := fees[currency]
		if amount.Decimal().LessThanOrEqual(dust) {
			continue
		}
		row := FeeValuation{Currency: currency, Amount: amount}
		if price, err := prices.Price(currency); err == nil {
			row.Value = M(price, "USD").Mul(amount)
			row.HasValue = true
		}
		rows = append(rows, row)
	}
	return rows
}

// HoldingsOf assembles the holding list from the three sources.
func HoldingsOf(exchange, cold, stocks map[string]Quantity) []Holding {
	var holdings []Holding
	appendAll := func(m map[string]Quantity, loc Location) {
		assets := make([]string, 0, len(m))
		for asset := range m {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			holdings = append(holdings, Holding{Asset: asset, Location: loc, Quantity: m[asset]})
		}
	}
	appendAll(exchange, LocationExchange)
	appendAll(cold, LocationCold)
	appendAll(stocks, LocationStock)
	return holdings
}
