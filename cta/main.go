package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/mvaldez/cartera/cmd"
)

func main() {
	// Optional .env for local API configuration; absence is fine.
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	// The report is the default action, matching the one-shot usage pattern.
	if flag.NArg() == 0 {
		flag.CommandLine.Parse(append(os.Args[1:], "report"))
	}
	os.Exit(int(commander.Execute(context.Background())))
}
