package renderer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mvaldez/cartera"
)

func sampleReport() *cartera.PortfolioReport {
	return &cartera.PortfolioReport{
		Rows: []cartera.AssetValuation{
			{
				Asset:      "BTC",
				Quantity:   cartera.Q(0.5),
				Location:   "Both",
				Price:      cartera.M(50000, "USD"),
				Value:      cartera.M(25000, "USD"),
				AvgCost:    cartera.M(40000, "USD"),
				HasBasis:   true,
				PnL:        cartera.M(5000, "USD"),
				Allocation: cartera.Percent(80),
			},
			{
				Asset:      "VOO",
				Quantity:   cartera.Q(10),
				Location:   "Stock",
				Price:      cartera.M(625, "USD"),
				Value:      cartera.M(6250, "USD"),
				Allocation: cartera.Percent(20),
			},
		},
		Locations: []cartera.LocationValuation{
			{
				Location: cartera.LocationExchange,
				Rows:     []cartera.AssetValuation{{Asset: "BTC", Quantity: cartera.Q(0.2), Price: cartera.M(50000, "USD"), Value: cartera.M(10000, "USD")}},
				Value:    cartera.M(10000, "USD"),
			},
			{
				Location: cartera.LocationCold,
				Rows:     []cartera.AssetValuation{{Asset: "BTC", Quantity: cartera.Q(0.3), Price: cartera.M(50000, "USD"), Value: cartera.M(15000, "USD")}},
				Value:    cartera.M(15000, "USD"),
			},
			{
				Location: cartera.LocationStock,
				Rows:     []cartera.AssetValuation{{Asset: "VOO", Quantity: cartera.Q(10), Price: cartera.M(625, "USD"), Value: cartera.M(6250, "USD")}},
				Value:    cartera.M(6250, "USD"),
			},
		},
		TotalValue:    cartera.M(31250, "USD"),
		TotalInvested: cartera.M(26250, "USD"),
		PnL:           cartera.M(5000, "USD"),
		ROI:           cartera.Percent(19.05),
		Deposits:      map[string]cartera.Quantity{"MXN": cartera.Q(500000)},
		Fees: []cartera.FeeValuation{
			{Currency: "BTC", Amount: cartera.Q(0.001), Value: cartera.M(50, "USD"), HasValue: true},
		},
		Diagnostics: []cartera.Diagnostic{
			{Source: "funding", Line: 3, Msg: "missing timestamp"},
		},
	}
}

// headings parses the markdown and returns the text of every heading.
func headings(t *testing.T, source string) []string {
	t.Helper()
	content := []byte(source)
	root := goldmark.DefaultParser().Parse(text.NewReader(content))

	var found []string
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			var sb strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if txt, ok := c.(*ast.Text); ok {
					sb.Write(txt.Segment.Value(content))
				}
			}
			found = append(found, sb.String())
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return found
}

func TestReportMarkdownSections(t *testing.T) {
	out := ReportMarkdown(sampleReport())

	got := headings(t, out)
	assert.Equal(t, []string{
		"Portfolio Dashboard",
		"Deposits (what you put in)",
		"Exchange Holdings",
		"Cold Holdings",
		"Stock Holdings",
		"Combined Holdings",
		"Average Cost & Unrealized P&L",
		"Fees Paid",
		"Diagnostics",
	}, got)

	assert.Contains(t, out, "| BTC ")
	assert.Contains(t, out, "Both")
	assert.Contains(t, out, "By location: Exchange $10,000.00 + Cold $15,000.00 + Stock $6,250.00")
	assert.Contains(t, out, "funding row 3: missing timestamp")
	assert.Contains(t, out, "+19.05%")
}

func TestReportMarkdownOmitsEmptySections(t *testing.T) {
	r := sampleReport()
	r.Deposits = nil
	r.Locations = nil
	r.Fees = nil
	r.Diagnostics = nil
	r.Rows[0].HasBasis = false

	got := headings(t, ReportMarkdown(r))
	assert.Equal(t, []string{"Portfolio Dashboard", "Combined Holdings"}, got)
}

func TestColdWalletMarkdown(t *testing.T) {
	out := ColdWalletMarkdown(map[string]cartera.Quantity{
		"ETH": cartera.Q(2),
		"BTC": cartera.Q(0.75),
	})
	assert.Contains(t, out, "Cold Wallet Holdings")
	// sorted by asset
	assert.Less(t, strings.Index(out, "BTC"), strings.Index(out, "ETH"))
}

func TestColdWalletMarkdownEmpty(t *testing.T) {
	out := ColdWalletMarkdown(nil)
	assert.Contains(t, out, "Cold wallet is empty.")
}

// cachedRates resolves historical rates through a shared FXCache, counting
// how often it has to go past the cache to its remote table.
type cachedRates struct {
	cache   *cartera.FXCache
	remote  map[cartera.Date]decimal.Decimal
	fetches int
}

func (r *cachedRates) RateFor(on cartera.Date, fallback decimal.Decimal) cartera.FXRate {
	if rate, ok := r.cache.Rate(on); ok {
		return cartera.FXRate{Rate: rate}
	}
	r.fetches++
	rate, ok := r.remote[on]
	if !ok {
		return cartera.FXRate{Rate: fallback, Fallback: true}
	}
	r.cache.Put(on, rate)
	return cartera.FXRate{Rate: rate}
}

func TestReportMarkdownWarmCacheIsIdempotent(t *testing.T) {
	on, err := cartera.ParseDate("2024-03-05")
	require.NoError(t, err)

	cache, err := cartera.LoadFXCache(filepath.Join(t.TempDir(), "fx.json"))
	require.NoError(t, err)
	resolver := &cachedRates{
		cache:  cache,
		remote: map[cartera.Date]decimal.Decimal{on: decimal.RequireFromString("20")},
	}

	run := func() string {
		raw := cartera.RawTables{Funding: []cartera.FundingRow{
			{Method: "funding", Currency: "mxn", Gross: "10050", Fee: "50", NetAmount: "10000", Timestamp: "2024-03-05 10:30:00"},
		}}
		txs, diags := cartera.Normalize(raw)
		require.Empty(t, diags)

		live := decimal.RequireFromString("18")
		book := cartera.Accumulate(txs, resolver, live)
		holdings := cartera.HoldingsOf(cartera.Balances(txs), nil, nil)
		report, err := cartera.Aggregate(holdings, book, cartera.NewLivePrices(live))
		require.NoError(t, err)
		report.Deposits = cartera.FundingTotals(txs)
		return ReportMarkdown(report)
	}

	first := run()
	require.Equal(t, 1, resolver.fetches)

	second := run()
	assert.Equal(t, 1, resolver.fetches, "a warm cache must resolve without the remote source")
	assert.Equal(t, first, second, "a warm-cache rerun must render byte-identically")
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "10000.00", formatQuantity("MXN", cartera.Q(10000)))
	assert.Equal(t, "12.50", formatQuantity("USDT", cartera.Q(12.5)))
	assert.Equal(t, "0.00990000", formatQuantity("BTC", cartera.Q(0.0099)))
}
