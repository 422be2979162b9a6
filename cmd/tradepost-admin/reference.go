package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hellforge/tradepost/internal/data"
	"github.com/hellforge/tradepost/internal/domain/model"
)

const defaultImportTimeout = 5 * time.Minute

type importOptions struct {
	File    string
	DryRun  bool
	Timeout time.Duration
}

func runImportItems(cmdCtx *commandContext, args []string) error {
	opts, err := parseImportFlags("import-items", args)
	if err != nil {
		return err
	}

	items, err := decodeItemsFile(opts.File)
	if err != nil {
		return err
	}

	if opts.DryRun {
		cmdCtx.Logger.Info("dry run: item records validated", "file", opts.File, "count", len(items))
		return nil
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewReferenceRepo(db)
		written, importErr := repo.ImportItems(ctx, items)
		if importErr != nil {
			return fmt.Errorf("import items: %w", importErr)
		}
		cmdCtx.Logger.Info("item import complete", "file", opts.File, "written", written)
		return nil
	})
}

func runImportRunewords(cmdCtx *commandContext, args []string) error {
	opts, err := parseImportFlags("import-runewords", args)
	if err != nil {
		return err
	}

	runewords, err := decodeRunewordsFile(opts.File)
	if err != nil {
		return err
	}

	if opts.DryRun {
		cmdCtx.Logger.Info("dry run: runeword records validated", "file", opts.File, "count", len(runewords))
		return nil
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewReferenceRepo(db)
		written, importErr := repo.ImportRunewords(ctx, runewords)
		if importErr != nil {
			return fmt.Errorf("import runewords: %w", importErr)
		}
		cmdCtx.Logger.Info("runeword import complete", "file", opts.File, "written", written)
		return nil
	})
}

func decodeItemsFile(path string) ([]*model.Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}

	var items []*model.Item
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items file %q: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("items file %q contains no records", path)
	}

	for i, item := range items {
		if validateErr := item.Validate(); validateErr != nil {
			return nil, fmt.Errorf("items file %q record %d: %w", path, i, validateErr)
		}
	}
	return items, nil
}

func decodeRunewordsFile(path string) ([]*model.Runeword, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runewords file: %w", err)
	}

	var runewords []*model.Runeword
	if err = json.Unmarshal(raw, &runewords); err != nil {
		return nil, fmt.Errorf("decode runewords file %q: %w", path, err)
	}
	if len(runewords) == 0 {
		return nil, fmt.Errorf("runewords file %q contains no records", path)
	}

	for i, rw := range runewords {
		if validateErr := rw.Validate(); validateErr != nil {
			return nil, fmt.Errorf("runewords file %q record %d: %w", path, i, validateErr)
		}
	}
	return runewords, nil
}

func parseImportFlags(name string, args []string) (importOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := importOptions{
		Timeout: defaultImportTimeout,
	}

	fs.StringVar(&opts.File, "file", "", "Path to the JSON file to import (required)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Validate the file without writing to the database")
	fs.DurationVar(&opts.Timeout, "timeout", defaultImportTimeout, "Maximum duration to wait for the import to complete")

	if err := fs.Parse(args); err != nil {
		return importOptions{}, err
	}

	if strings.TrimSpace(opts.File) == "" {
		return importOptions{}, errors.New("--file is required")
	}
	if opts.Timeout <= 0 {
		return importOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}
