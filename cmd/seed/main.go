// Command seed replaces the student directory with a roster read from a JSON
// file, a CSV file or the configured Google spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/juju/gnuflag"

	"studentspend/internal/backend"
	"studentspend/internal/cli"
	"studentspend/internal/config"
	"studentspend/internal/importer"
	applog "studentspend/internal/log"
	"studentspend/internal/services"
	gsheet "studentspend/internal/sheets/google"
)

const (
	sourceJSON  = "json"
	sourceCSV   = "csv"
	sourceSheet = "sheet"
)

type options struct {
	source string
	file   string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := gnuflag.NewFlagSet("seed", gnuflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.source, "source", sourceJSON, "roster source: json, csv or sheet")
	fs.StringVar(&opts.file, "file", "students.json", "roster file for the json and csv sources")
	if err := fs.Parse(true, args); err != nil {
		return options{}, err
	}
	switch opts.source {
	case sourceJSON, sourceCSV, sourceSheet:
	default:
		return options{}, fmt.Errorf("unknown source %q", opts.source)
	}
	return opts, nil
}

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentSeed)

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, gnuflag.ErrHelp) {
			return
		}
		logger.Error("Invalid arguments", "error", err)
		os.Exit(2)
	}

	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Seeding the memory backend has no lasting effect")
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	n, err := seed(ctx, cfg, opts, services.NewRosterService(result.Store))
	if result.Cleanup != nil {
		if cerr := result.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup error", "error", cerr)
		}
	}
	if err != nil {
		logger.Error("Seeding failed", "error", err, "source", opts.source)
		os.Exit(1)
	}
	logger.Info("Seeding completed", "students", n, "source", opts.source)
}

func seed(ctx context.Context, cfg *config.Config, opts options, roster *services.RosterService) (int, error) {
	if opts.source == sourceSheet {
		if !cfg.SheetsEnabled() {
			return 0, errors.New("GOOGLE_SPREADSHEET_ID is required for the sheet source")
		}
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			StudentsSheet:      cfg.GoogleStudentsSheet,
			ContactSheet:       cfg.GoogleContactSheet,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			return 0, err
		}
		return roster.ImportFrom(ctx, client)
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return 0, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	var rows []map[string]any
	if opts.source == sourceCSV {
		rows, err = importer.ReadCSV(f)
	} else {
		rows, err = importer.ReadJSON(f)
	}
	if err != nil {
		return 0, err
	}
	slog.DebugContext(ctx, "Roster rows read", "rows", len(rows), "file", opts.file)
	return roster.Import(ctx, rows)
}
