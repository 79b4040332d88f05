package cartera

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

const stooqURL = "https://stooq.com/q/l/"

// FetchStockPrices fetches the latest USD close for each equity ticker from
// the stooq quote endpoint. Any unknown or unpriceable ticker is a hard
// error naming the asset; the valuation never substitutes a stale price.
func FetchStockPrices(tickers []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(tickers))
	client := live()
	for _, ticker := range tickers {
		price, err := fetchStooqQuote(client, ticker)
		if err != nil {
			return nil, err
		}
		prices[symbol(ticker)] = price
	}
	return prices, nil
}

func fetchStooqQuote(client *http.Client, ticker string) (decimal.Decimal, error) {
	// Symbol,Date,Time,Open,High,Low,Close,Volume
	addr := fmt.Sprintf("%s?s=%s.us&f=sd2t2ohlcv&h&e=csv", stooqURL, strings.ToLower(ticker))
	resp, err := client.Get(addr)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("could not fetch quote for %s: %w", ticker, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("could not fetch quote for %s: %s", ticker, resp.Status)
	}

	reader := csv.NewReader(resp.Body)
	records, err := reader.ReadAll()
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid quote response for %s: %w", ticker, err)
	}
	if len(records) < 2 || len(records[1]) < 7 {
		return decimal.Decimal{}, &NoPriceError{Asset: symbol(ticker)}
	}
	close := strings.TrimSpace(records[1][6])
	if close == "" || close == "N/D" {
		return decimal.Decimal{}, &NoPriceError{Asset: symbol(ticker)}
	}
	price, err := decimal.NewFromString(close)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid close %q for %s: %w", close, ticker, err)
	}
	return price, nil
}
