package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/app"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/export"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "wz-sessions.xlsx", "output XLSX file path")
		fromStr = flag.String("from", "", "from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()

	// Parse date filters
	var from, to *time.Time
	if *fromStr != "" {
		if parsed, err := time.ParseInLocation(time.DateOnly, *fromStr, time.Local); err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		} else {
			from = &parsed
		}
	}
	if *toStr != "" {
		if parsed, err := time.ParseInLocation(time.DateOnly, *toStr, time.Local); err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		} else {
			to = &parsed
		}
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stdout)
	if cfg.Journal.DSN == "" {
		printError("Error: JOURNAL_DSN is required\n")
		os.Exit(2)
	}

	ctx := context.Background()
	journal, err := app.OpenJournal(ctx, cfg.Journal, logger)
	if err != nil {
		logger.Error("failed to open session journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	xlsxBytes, err := export.NewService(journal.Sessions, logger).SessionsXLSX(ctx, from, to)
	if err != nil {
		logger.Error("failed to export sessions", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}
	logger.Info("report written", "output", *out, "bytes", len(xlsxBytes))
}
