package cartera

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// FXCache is the persisted memoization of historical USD/MXN rates, one per
// calendar date. It is append-only: a date's rate, once fetched successfully,
// is never overwritten. Rates obtained through the fallback path are never
// stored, so a later run can retry the remote source.
//
// The cache file is read once at start and written once at end; concurrent
// invocations against the same file are unsupported.
type FXCache struct {
	path  string
	rates map[Date]decimal.Decimal
}

// LoadFXCache reads the cache file. A missing file yields an empty cache.
func LoadFXCache(path string) (*FXCache, error) {
	c := &FXCache{path: path, rates: make(map[Date]decimal.Decimal)}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read fx cache %q: %w", path, err)
	}

	var raw map[string]decimal.Decimal
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("could not decode fx cache %q: %w", path, err)
	}
	for key, rate := range raw {
		on, err := ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("invalid date in fx cache %q: %w", path, err)
		}
		c.rates[on] = rate
	}
	return c, nil
}

// Rate returns the cached rate for a date.
func (c *FXCache) Rate(on Date) (decimal.Decimal, bool) {
	rate, ok := c.rates[on]
	return rate, ok
}

// Put stores a rate for a date. The first stored value wins.
func (c *FXCache) Put(on Date, rate decimal.Decimal) {
	if _, ok := c.rates[on]; ok {
		return
	}
	c.rates[on] = rate
}

// Len returns the number of cached dates.
func (c *FXCache) Len() int { return len(c.rates) }

// Save writes the cache back to its file.
func (c *FXCache) Save() error {
	raw := make(map[string]decimal.Decimal, len(c.rates))
	for on, rate := range c.rates {
		raw[on.String()] = rate
	}
	content, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode fx cache: %w", err)
	}
	if err := os.WriteFile(c.path, content, 0644); err != nil {
		return fmt.Errorf("could not write fx cache %q: %w", c.path, err)
	}
	return nil
}
