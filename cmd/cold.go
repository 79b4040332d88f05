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

// addColdCmd adds or updates a cold wallet holding.
type addColdCmd struct{}

func (*addColdCmd) Name() string     { return "add-cold" }
func (*addColdCmd) Synopsis() string { return "add or update a cold wallet holding" }
func (*addColdCmd) Usage() string {
	return `cta add-cold <asset> <amount>

  Records the amount of an asset held in cold storage, replacing any
  previous amount for that asset.

Usage Examples:
$ cta add-cold btc 0.01
$ cta add-cold eth 2.5
`
}

func (c *addColdCmd) SetFlags(f *flag.FlagSet) {}

func (c *addColdCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: cta add-cold <asset> <amount>")
		return subcommands.ExitUsageError
	}
	asset := f.Arg(0)
	amount, err := cartera.ParseQuantity(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid amount %q: %v\n", f.Arg(1), err)
		return subcommands.ExitUsageError
	}

	if err := OpenColdWallet().Put(asset, amount); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating cold wallet: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Added/Updated: %s = %s\n", asset, amount)
	return subcommands.ExitSuccess
}

// removeColdCmd removes a cold wallet holding.
type removeColdCmd struct{}

func (*removeColdCmd) Name() string     { return "remove-cold" }
func (*removeColdCmd) Synopsis() string { return "remove a cold wallet holding" }
func (*removeColdCmd) Usage() string {
	return `cta remove-cold <asset>

  Removes an asset from the cold wallet store.
`
}

func (c *removeColdCmd) SetFlags(f *flag.FlagSet) {}

func (c *removeColdCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cta remove-cold <asset>")
		return subcommands.ExitUsageError
	}
	if err := OpenColdWallet().Delete(f.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed: %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

// listColdCmd displays the cold wallet holdings.
type listColdCmd struct{}

func (*listColdCmd) Name() string     { return "list-cold" }
func (*listColdCmd) Synopsis() string { return "list cold wallet holdings" }
func (*listColdCmd) Usage() string {
	return `cta list-cold

  Displays the assets recorded in the cold wallet store.
`
}

func (c *listColdCmd) SetFlags(f *flag.FlagSet) {}

func (c *listColdCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	wallet, err := OpenColdWallet().List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cold wallet: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.ColdWalletMarkdown(wallet))
	return subcommands.ExitSuccess
}
