package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/amir734jj/Sqlite-ORM/internal/config"
	"github.com/amir734jj/Sqlite-ORM/internal/gate"
	"github.com/amir734jj/Sqlite-ORM/internal/logger"
)

const usage = `Usage: ormctl [-config file] [-db file] <command> [arguments]

Commands:
  tables                      list tables and their row counts
  count <table>               print the row count of one table
  dump [-format f] [-o file] [table...]
                              write tables as json or yaml (default: every table)
  restore [-format f] <file>  load a dump, creating missing tables
  config                      print the effective configuration
  init [file]                 write a default configuration file
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "ormctl:", err)
		os.Exit(1)
	}
}

// app is the state shared by every command.
type app struct {
	cfg     *config.Config
	cfgPath string
	gate    *gate.Gate
	log     logger.Logger
	stdout  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ormctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	cfgPath := fs.String("config", "", "config file (default: search path)")
	dbPath := fs.String("db", "", "database file (overrides the config file)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	a, err := setup(*cfgPath, *dbPath, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.gate.Close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "tables":
		return a.tables(ctx)
	case "count":
		return a.count(ctx, rest)
	case "dump":
		return a.dump(ctx, rest)
	case "restore":
		return a.restore(ctx, rest)
	case "config":
		fmt.Fprintf(a.stdout, "Config: %s\n%s\n", orDefault(a.cfgPath), a.cfg.Summary())
		return nil
	case "init":
		return a.initConfig(rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setup(cfgPath, dbPath string, stdout, stderr io.Writer) (*app, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if cfgPath != "" {
		cfg, path, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(stderr, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	db := dbPath
	if db == "" {
		db = cfg.DatabasePath(path)
	}
	log.Debug("using database", "path", db, "config", orDefault(path))

	g := gate.New(db, gate.WithLogger(log), gate.WithDatabaseConfig(cfg.Database))
	return &app{cfg: cfg, cfgPath: path, gate: g, log: log, stdout: stdout}, nil
}

func orDefault(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
