// Command kipsql drives the engine end-to-end from a terminal: open a
// pebble-backed store, read a batch of already-built ast.Statement values
// from a YAML fixture, bind/plan/execute each in its own transaction, and
// print results or the dry-run plan (§4.10), adapted from
// cmd/mysqldef/mysqldef.go's struct-tag flag parsing and sqldef.Run's
// "read input, loop over statements, report outcome" shape.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/k0kubun/kipsql/bind"
	"github.com/k0kubun/kipsql/config"
	"github.com/k0kubun/kipsql/exec"
	"github.com/k0kubun/kipsql/importer"
	"github.com/k0kubun/kipsql/mvcc"
	"github.com/k0kubun/kipsql/physical"
	"github.com/k0kubun/kipsql/storage"
	"github.com/k0kubun/kipsql/util"
)

type options struct {
	DataDir        string `long:"data-dir" description:"Directory for the pebble-backed store; empty runs against an in-memory store" value-name:"dir"`
	Config         string `long:"config" description:"YAML file with data_dir/catalog_cache_size/bootstrap settings" value-name:"config.yml"`
	DryRun         bool   `long:"dry-run" description:"Build and print the physical plan for each statement without executing it"`
	PasswordPrompt bool   `long:"password-prompt" description:"Force a bootstrap source password prompt instead of reading config.yml's bootstrap.password"`
	Help           bool   `long:"help" description:"Show this help"`
}

func main() {
	util.InitSlog()

	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] fixture.yml"
	args, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "exactly one fixture file must be given")
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	cfg := config.Engine{DataDir: opts.DataDir}
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	buf, err := os.ReadFile(args[0])
	if err != nil {
		slog.Error("reading fixture", "error", err)
		os.Exit(1)
	}
	fx, err := loadFixture(buf)
	if err != nil {
		slog.Error("parsing fixture", "error", err)
		os.Exit(1)
	}

	var store *mvcc.Store
	if cfg.DataDir == "" {
		store, err = mvcc.OpenMem()
	} else {
		store, err = mvcc.Open(cfg.DataDir)
	}
	if err != nil {
		slog.Error("opening store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.Bootstrap != nil {
		if opts.PasswordPrompt {
			fmt.Print("Enter source database password: ")
			pass, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				slog.Error("reading password", "error", err)
				os.Exit(1)
			}
			cfg.Bootstrap.Password = string(pass)
		}
		if err := bootstrap(store, cfg); err != nil {
			slog.Error("bootstrap", "error", err)
			os.Exit(1)
		}
	}

	if err := run(store, cfg, fx, opts.DryRun); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// bootstrap opens the configured external source, introspects it, and
// creates one table per table found, committing as a single transaction
// (§4.11).
func bootstrap(store *mvcc.Store, cfg config.Engine) error {
	src, err := importer.Open(*cfg.Bootstrap)
	if err != nil {
		return err
	}
	defer src.Close()

	tx := storage.Begin(store, cfg.CacheSize())
	created, err := importer.Import(src, tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("bootstrap complete", "tables", len(created))
	return nil
}

func run(store *mvcc.Store, cfg config.Engine, fx fixture, dryRun bool) error {
	for i, spec := range fx.Statements {
		stmt, err := spec.toStatement()
		if err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}

		tx := storage.Begin(store, cfg.CacheSize())
		plan, err := bind.Bind(tx, stmt)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: bind: %w", i, err)
		}

		op, err := physical.NewBuilder().Build(plan)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: plan: %w", i, err)
		}

		if dryRun {
			pp.Println(op)
			_ = tx.Rollback()
			continue
		}

		res, err := exec.Execute(tx, op)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: execute: %w", i, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("statement %d: commit: %w", i, err)
		}
		printResult(i, res)
	}
	return nil
}

func printResult(i int, res exec.Result) {
	switch {
	case res.Tables != nil:
		fmt.Printf("-- statement %d: tables --\n", i)
		for _, t := range res.Tables {
			fmt.Println(t)
		}
	case res.Rows != nil:
		fmt.Printf("-- statement %d: %d rows --\n", i, len(res.Rows))
		for _, row := range res.Rows {
			vals := make([]any, len(row))
			for j, v := range row {
				vals[j] = v.String()
			}
			fmt.Println(vals...)
		}
	default:
		fmt.Printf("-- statement %d: %d rows affected --\n", i, res.RowsAffected)
	}
}
