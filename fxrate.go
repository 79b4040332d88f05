package cartera

import (
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
)

// frankfurterURL serves historical EUR-based reference rates per calendar date.
const frankfurterURL = "https://api.frankfurter.app"

// FXRate is the outcome of a historical rate lookup. Fallback marks the
// degraded path: the remote source was unavailable and the current rate was
// substituted. Degraded rates are usable but never cached.
type FXRate struct {
	Rate     decimal.Decimal // MXN per USD
	Fallback bool
}

// Resolver resolves the USD/MXN rate valid on a calendar date, memoized in an
// FXCache backed by the remote historical-rate API. A lookup never fails: on
// any network or parse error it degrades to the caller-supplied current rate.
type Resolver struct {
	cache   *FXCache
	client  *http.Client
	baseURL string
}

// NewResolver creates a resolver over the given cache.
func NewResolver(cache *FXCache) *Resolver {
	return &Resolver{cache: cache, client: daily(), baseURL: frankfurterURL}
}

// RateFor implements RateResolver.
func (r *Resolver) RateFor(on Date, fallback decimal.Decimal) FXRate {
	if rate, ok := r.cache.Rate(on); ok {
		return FXRate{Rate: rate}
	}

	rate, err := r.fetch(on)
	if err != nil {
		log.Printf("historical USD/MXN for %s unavailable, falling back to current rate: %v", on, err)
		return FXRate{Rate: fallback, Fallback: true}
	}

	r.cache.Put(on, rate)
	return FXRate{Rate: rate}
}

// fetch retrieves the rate for one date from the remote source. The source
// quotes cross rates against a reference currency (EUR), so the USD/MXN rate
// is derived as (EUR/MXN)/(EUR/USD). The division is exact decimal arithmetic,
// well beyond the 6 significant digits needed to keep rounding error from
// compounding across hundreds of small deposits.
func (r *Resolver) fetch(on Date) (decimal.Decimal, error) {
	addr := fmt.Sprintf("%s/%s?to=USD,MXN", r.baseURL, on)

	var payload struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := jwget(r.client, addr, &payload); err != nil {
		return decimal.Decimal{}, err
	}

	usd, okUSD := payload.Rates["USD"]
	mxn, okMXN := payload.Rates["MXN"]
	if !okUSD || !okMXN {
		return decimal.Decimal{}, fmt.Errorf("rates for %s missing USD or MXN", on)
	}
	if usd <= 0 || mxn <= 0 {
		return decimal.Decimal{}, fmt.Errorf("non-positive rates for %s (USD=%v MXN=%v)", on, usd, mxn)
	}
	return decimal.NewFromFloat(mxn).Div(decimal.NewFromFloat(usd)), nil
}

// MXNDates returns the distinct calendar dates of MXN-denominated
// transactions, the only dates the resolver is ever asked for. Used to warm
// the cache ahead of a report run.
func MXNDates(txs []Transaction) []Date {
	seen := make(map[Date]bool)
	var dates []Date
	for _, tx := range txs {
		if tx.Counter != "MXN" || !tx.HasPrice() || tx.Time == 0 {
			continue
		}
		on := tx.Date()
		if !seen[on] {
			seen[on] = true
			dates = append(dates, on)
		}
	}
	return dates
}
