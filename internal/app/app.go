package app

import (
	"context"
	"log/slog"

	"TabScanner/internal/config"
	"TabScanner/internal/infrastructure/credentials"
	"TabScanner/internal/infrastructure/fetcher"
	"TabScanner/internal/infrastructure/parser"
	"TabScanner/internal/infrastructure/site"
	"TabScanner/internal/logging"
	"TabScanner/internal/source"
	"TabScanner/internal/usecase"
	"TabScanner/pkg/console"
)

// Options carries the CLI selections into the wiring.
type Options struct {
	Tab4uOnly bool
	UGOnly    bool
	Debug     bool
}

// Application wires config to the pipeline and single-run lifecycle.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, opts Options, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	creds := credentials.NewProvider(
		baseLogger.With("component", "credentials"),
		credentials.NewChromeStore(),
		credentials.NewKookyReader(cfg.Browser),
	)
	fetch := fetcher.New(nil, creds, baseLogger.With("component", "fetcher"))

	registry := source.NewRegistry()
	for _, sc := range cfg.Sources {
		switch sc.Name {
		case "ultimateguitar":
			registry.Register(parser.NewUGSource(sc, fetch, baseLogger.With("component", "source.ug")))
		case "tab4u":
			registry.Register(parser.NewTab4uSource(sc, fetch, baseLogger.With("component", "source.tab4u")))
		default:
			baseLogger.Warn("unknown source in config", "source", sc.Name)
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry: registry,
		Selected: selectSources(registry, opts),
		Store:    site.NewStore(cfg.Output.Path),
		Console:  console.New(),
		Logger:   baseLogger.With("component", "pipeline"),
		Debug:    opts.Debug,
	})

	return &Application{cfg: cfg, pipeline: pipeline}
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	return a.pipeline.Run(ctx)
}

func selectSources(registry *source.Registry, opts Options) []string {
	var keep []string
	for _, name := range registry.Names() {
		if opts.Tab4uOnly && name != "tab4u" {
			continue
		}
		if opts.UGOnly && name != "ultimateguitar" {
			continue
		}
		keep = append(keep, name)
	}
	return keep
}
