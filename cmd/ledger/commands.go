package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/warp/pnl-ledger/aggregate"
	"github.com/warp/pnl-ledger/config"
	"github.com/warp/pnl-ledger/factory"
	"github.com/warp/pnl-ledger/logger"
	"github.com/warp/pnl-ledger/store"
)

// register adds the ledger subcommands to c.
func register(c *subcommands.Commander, e *env) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&submitCmd{env: e}, "ledger")
	c.Register(&queryCmd{env: e}, "ledger")
	c.Register(&policyCmd{env: e}, "ledger")
}

// env is the state shared by every subcommand.
type env struct {
	configPath *string
	out        io.Writer
}

// open loads config and returns the configured variant. The returned close
// func releases the store and flushes the logger.
func (e *env) open(ctx context.Context) (factory.Variant, func(), error) {
	path := ""
	if e.configPath != nil {
		path = *e.configPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, err
	}

	backend, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}

	variant, err := factory.New(backend, factory.FromConfig(cfg.Ledger), log)
	if err != nil {
		backend.Close()
		log.Sync()
		return nil, nil, err
	}

	return variant, func() {
		backend.Close()
		log.Sync()
	}, nil
}

func (e *env) print(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		// NaN and Inf have no JSON form.
		fmt.Fprintln(e.out, v)
		return
	}
	fmt.Fprintln(e.out, string(b))
}

// =============================================================================
// submit
// =============================================================================

type submitCmd struct {
	env *env
	as  string
}

func (*submitCmd) Name() string     { return "submit" }
func (*submitCmd) Synopsis() string { return "submit a value on behalf of an account" }
func (*submitCmd) Usage() string {
	return `ledger submit -as <account> [--] <value>

  Combines <value> into the account's stored aggregate using the configured
  policy. Text values are taken verbatim; numbers must fit the policy type.
  Put -- before a negative value so it is not read as a flag:

    ledger submit -as bob.near -- -1.36
`
}

func (c *submitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.as, "as", "", "account submitting the value (required)")
}

func (c *submitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.as == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "submit requires -as <account> and exactly one value")
		return subcommands.ExitUsageError
	}

	variant, closeFn, err := c.env.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := variant.SubmitString(ctx, aggregate.AccountID(c.as), f.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error submitting: %v\n", err)
		if aggregate.IsClientError(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// =============================================================================
// query
// =============================================================================

type queryCmd struct {
	env *env
}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "print the aggregate stored for an account" }
func (*queryCmd) Usage() string {
	return `ledger query <account>

  Prints the account's aggregate as JSON, or the policy default when the
  account has never submitted.
`
}

func (*queryCmd) SetFlags(*flag.FlagSet) {}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "query requires exactly one account")
		return subcommands.ExitUsageError
	}

	variant, closeFn, err := c.env.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	v, err := variant.Query(ctx, aggregate.AccountID(f.Arg(0)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying: %v\n", err)
		return subcommands.ExitFailure
	}
	c.env.print(v)
	return subcommands.ExitSuccess
}

// =============================================================================
// policy
// =============================================================================

type policyCmd struct {
	env *env
}

func (*policyCmd) Name() string     { return "policy" }
func (*policyCmd) Synopsis() string { return "print the configured policy definition" }
func (*policyCmd) Usage() string {
	return `ledger policy

  Prints the policy definition the ledger runs with, defaults filled in.
`
}

func (*policyCmd) SetFlags(*flag.FlagSet) {}

func (c *policyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	variant, closeFn, err := c.env.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	c.env.print(variant.Describe())
	return subcommands.ExitSuccess
}
