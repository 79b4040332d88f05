package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mvaldez/cartera"
	"github.com/mvaldez/cartera/renderer"
)

// reportCmd generates the full portfolio valuation report.
type reportCmd struct{}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "value the portfolio with live prices" }
func (*reportCmd) Usage() string {
	return `cta report

  Reads the exchange CSV exports, the stock transaction file and the cold
  wallet, replays the full history to compute weighted-average cost basis,
  fetches live prices, and prints the portfolio dashboard.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	raw, err := loadTables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading transaction files: %v\n", err)
		return subcommands.ExitFailure
	}
	txs, diags := cartera.Normalize(raw)

	// Live prices first: a report without them is worthless, fail fast.
	fmt.Fprintln(os.Stderr, "Fetching live prices from CoinGecko...")
	crypto, err := cartera.FetchCryptoPrices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(os.Stderr, "Fetching live USDT/MXN rate from Bitso...")
	usdmxn, err := cartera.FetchUSDTMXN()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	stockPositions := cartera.StockPositions(txs)
	var tickers []string
	for ticker := range stockPositions {
		tickers = append(tickers, ticker)
	}
	stocks, err := cartera.FetchStockPrices(tickers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	prices := cartera.NewLivePrices(usdmxn, crypto, stocks)

	// Historical cost basis, memoized in the fx cache.
	cache, err := cartera.LoadFXCache(*fxCacheFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fx cache: %v\n", err)
		return subcommands.ExitFailure
	}
	resolver := cartera.NewResolver(cache)
	book := cartera.Accumulate(txs, resolver, usdmxn)
	if err := cache.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not persist fx cache: %v\n", err)
	}

	cold, err := OpenColdWallet().List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cold wallet: %v\n", err)
		return subcommands.ExitFailure
	}

	holdings := cartera.HoldingsOf(cartera.Balances(txs), cold, stockPositions)
	report, err := cartera.Aggregate(holdings, book, prices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	report.USDMXN = usdmxn
	report.Deposits = cartera.FundingTotals(txs)
	report.Diagnostics = append(diags, report.Diagnostics...)

	printMarkdown(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
