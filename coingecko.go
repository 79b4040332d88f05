package cartera

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// coinIDs maps the built-in crypto symbols to their CoinGecko identifiers.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"USDT":  "tether",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"MATIC": "polygon",
	"DOGE":  "dogecoin",
	"BNB":   "binancecoin",
	"LTC":   "litecoin",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"XLM":   "stellar",
	"AVAX":  "avalanche-2",
	"ATOM":  "cosmos",
}

var coinsFlag = flag.String("coins", "", "Extra coins as SYMBOL=coingecko-id pairs, comma separated.\n If missing it will read the environment variable \""+cartera_coins+"\".")

const cartera_coins = "CARTERA_COINS"

// coinTable returns the full symbol to CoinGecko id table: the built-ins plus
// any extras configured through the -coins flag or the environment.
func coinTable() map[string]string {
	spec := *coinsFlag
	if spec == "" {
		spec = os.Getenv(cartera_coins)
	}
	table := make(map[string]string, len(coinIDs))
	for sym, id := range coinIDs {
		table[sym] = id
	}
	for _, pair := range strings.Split(spec, ",") {
		sym, id, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		table[symbol(sym)] = strings.TrimSpace(id)
	}
	return table
}

// SupportedCoins returns the crypto symbols the price gateway knows, sorted.
func SupportedCoins() []string {
	table := coinTable()
	coins := make([]string, 0, len(table))
	for sym := range table {
		coins = append(coins, sym)
	}
	sort.Strings(coins)
	return coins
}

const coingeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// FetchCryptoPrices fetches current USD prices for all supported coins in one
// batched CoinGecko call. A failure here is fatal to the report run.
func FetchCryptoPrices() (map[string]decimal.Decimal, error) {
	table := coinTable()
	ids := make([]string, 0, len(table))
	seen := make(map[string]bool)
	for _, id := range table {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	addr := fmt.Sprintf("%s?ids=%s&vs_currencies=usd", coingeckoURL, strings.Join(ids, ","))

	payload := make(map[string]map[string]float64)
	if err := jwget(live(), addr, &payload); err != nil {
		return nil, fmt.Errorf("could not fetch live prices from CoinGecko: %w", err)
	}

	prices := make(map[string]decimal.Decimal)
	for sym, id := range table {
		if quote, ok := payload[id]; ok {
			if usd, ok := quote["usd"]; ok {
				prices[sym] = decimal.NewFromFloat(usd)
			}
		}
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices returned from CoinGecko")
	}
	return prices, nil
}
