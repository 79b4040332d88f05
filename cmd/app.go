// Package cmd implements the CLI application to value the portfolio.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/mvaldez/cartera"
)

// Register the subcommands.
// A main package calls Register() to declare subcommands, and Execute() on the
// user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "report")
	c.Register(&fetchFXCmd{}, "report")

	c.Register(&addColdCmd{}, "cold wallet")
	c.Register(&removeColdCmd{}, "cold wallet")
	c.Register(&listColdCmd{}, "cold wallet")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var (
	fundingFile     = flag.String("funding-file", "funding.csv", "Path to the funding CSV export")
	conversionsFile = flag.String("conversions-file", "conversion.csv", "Path to the conversions CSV export")
	tradesFile      = flag.String("trades-file", "trade.csv", "Path to the trades CSV export")
	withdrawalsFile = flag.String("withdrawals-file", "withdrawal.csv", "Path to the withdrawals CSV export")
	stocksFile      = flag.String("stocks-file", "stocks.jsonl", "Path to the stock transactions file (JSONL format)")
	coldWalletFile  = flag.String("cold-wallet-file", "cold_wallet.json", "Path to the cold wallet JSON store")
	fxCacheFile     = flag.String("fx-cache-file", "fx_cache.json", "Path to the historical USD/MXN rate cache")
)

// OpenColdWallet opens the app cold wallet store.
func OpenColdWallet() cartera.WalletStore {
	return cartera.OpenColdWallet(*coldWalletFile)
}

// loadTables reads every transaction source. A missing file contributes an
// empty table: not everyone has every kind of activity.
func loadTables() (cartera.RawTables, error) {
	var raw cartera.RawTables
	var err error

	if raw.Funding, err = readCSV(*fundingFile, cartera.ReadFundingCSV); err != nil {
		return raw, err
	}
	if raw.Conversions, err = readCSV(*conversionsFile, cartera.ReadConversionCSV); err != nil {
		return raw, err
	}
	if raw.Trades, err = readCSV(*tradesFile, cartera.ReadTradeCSV); err != nil {
		return raw, err
	}
	if raw.Withdrawals, err = readCSV(*withdrawalsFile, cartera.ReadWithdrawalCSV); err != nil {
		return raw, err
	}

	f, err := os.Open(*stocksFile)
	if os.IsNotExist(err) {
		return raw, nil
	}
	if err != nil {
		return raw, fmt.Errorf("could not open %q: %v", *stocksFile, err)
	}
	defer f.Close()
	if raw.Stocks, err = cartera.DecodeStockRecords(f); err != nil {
		return raw, fmt.Errorf("could not read %q: %v", *stocksFile, err)
	}
	return raw, nil
}

func readCSV[T any](path string, read func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %v", path, err)
	}
	defer f.Close()
	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %v", path, err)
	}
	return rows, nil
}
