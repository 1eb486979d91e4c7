package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"TabScanner/internal/app"
	"TabScanner/internal/config"
	"TabScanner/internal/logging"
)

func main() {
	var (
		tab4uOnly = flag.Bool("tab4u-only", false, "Only fetch from Tab4u")
		ugOnly    = flag.Bool("ug-only", false, "Only fetch from Ultimate Guitar")
		debug     = flag.Bool("debug", false, "Persist raw per-source responses for inspection")
		output    = flag.String("output", "", "Output artifact path (overrides config)")
		browser   = flag.String("browser", "", "Browser whose cookies to use (overrides config)")
	)
	flag.Parse()

	if *tab4uOnly && *ugOnly {
		fmt.Fprintln(os.Stderr, "--tab4u-only and --ug-only are mutually exclusive")
		os.Exit(2)
	}

	cfg := config.Load()
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *browser != "" {
		cfg.Browser = *browser
	}

	ctx := context.Background()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, app.Options{
		Tab4uOnly: *tab4uOnly,
		UGOnly:    *ugOnly,
		Debug:     *debug,
	}, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
