/*
main.go - Command-line access to a ledger store

Runs the same policy against the same store the server uses, without the
HTTP layer. Handy for seeding data and checking aggregates by hand.

COMMANDS:
  ledger [-config file] submit -as <account> <value>
  ledger [-config file] query <account>
  ledger [-config file] policy

Configuration is resolved exactly like the server: defaults, then the YAML
file, then PNL_* environment variables.
*/
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	configPath := flag.String("config", "", "Path to YAML config file")

	register(commander, &env{configPath: configPath, out: os.Stdout})

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
