package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/amir734jj/Sqlite-ORM/internal/config"
	"github.com/amir734jj/Sqlite-ORM/internal/dump"
	"github.com/amir734jj/Sqlite-ORM/internal/schema"
)

func (a *app) rowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := a.gate.Query(ctx, "SELECT COUNT(*) FROM "+schema.QuoteIdent(table), func(rows *sql.Rows) error {
		if !rows.Next() {
			return fmt.Errorf("count of %s returned no row", table)
		}
		return rows.Scan(&n)
	})
	return n, err
}

func (a *app) tables(ctx context.Context) error {
	names, err := a.gate.Tables(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, name := range names {
		n, err := a.rowCount(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", name, n)
	}
	return w.Flush()
}

func (a *app) count(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("count needs exactly one table name")
	}
	n, err := a.rowCount(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, n)
	return nil
}

func (a *app) dump(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	format := fs.String("format", "json", "output format: json or yaml")
	out := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codec, err := dump.ForFormat(*format)
	if err != nil {
		return err
	}
	d, err := dump.Export(ctx, a.gate, fs.Args()...)
	if err != nil {
		return err
	}

	w := a.stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	if err := codec.Export(d, w); err != nil {
		return err
	}
	a.log.Info("dump written", "tables", len(d.Tables), "rows", d.Rows(), "format", codec.Format())
	return nil
}

func (a *app) restore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	format := fs.String("format", "", "input format: json or yaml (default: from the file extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("restore needs exactly one file")
	}
	path := fs.Arg(0)

	name := *format
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	codec, err := dump.ForFormat(name)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	d, err := codec.Parse(r)
	if err != nil {
		return err
	}
	n, err := dump.Restore(ctx, a.gate, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "restored %d rows into %d tables\n", n, len(d.Tables))
	return nil
}

func (a *app) initConfig(args []string) error {
	path := config.DefaultConfigPath()
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.EnsureConfigDir(path); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", path)
	return nil
}
