package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mvaldez/cartera"
)

// fetchFXCmd warms the historical rate cache for every MXN transaction date,
// so a later report run needs no historical-rate network calls at all.
type fetchFXCmd struct{}

func (*fetchFXCmd) Name() string     { return "fetch-fx" }
func (*fetchFXCmd) Synopsis() string { return "prefetch historical USD/MXN rates into the cache" }
func (*fetchFXCmd) Usage() string {
	return `cta fetch-fx

  Resolves the historical USD/MXN rate for every date with MXN-denominated
  activity and persists them in the rate cache.
`
}

func (c *fetchFXCmd) SetFlags(f *flag.FlagSet) {}

func (c *fetchFXCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	raw, err := loadTables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading transaction files: %v\n", err)
		return subcommands.ExitFailure
	}
	txs, _ := cartera.Normalize(raw)

	cache, err := cartera.LoadFXCache(*fxCacheFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fx cache: %v\n", err)
		return subcommands.ExitFailure
	}
	before := cache.Len()

	resolver := cartera.NewResolver(cache)
	var degraded int
	for _, on := range cartera.MXNDates(txs) {
		// A zero fallback keeps degraded lookups visibly unusable here; they
		// are not cached either way.
		if fx := resolver.RateFor(on, cartera.Q(0).Decimal()); fx.Fallback {
			degraded++
		}
	}

	if err := cache.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting fx cache: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Cached %d new rates (%d dates unavailable, %d total cached)\n", cache.Len()-before, degraded, cache.Len())
	return subcommands.ExitSuccess
}
