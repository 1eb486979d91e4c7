package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"TabScanner/internal/domain"
	"TabScanner/internal/merge"
	"TabScanner/internal/ports"
	"TabScanner/internal/source"
	"TabScanner/pkg/console"
)

// PipelineDeps wires the driven adapters into the harvest pipeline.
type PipelineDeps struct {
	Registry *source.Registry
	Selected []string
	Store    ports.ArtifactStore
	Console  *console.Console
	Logger   *slog.Logger
	Debug    bool
}

// Pipeline implements the sequential harvest-normalize-emit workflow. Every
// per-source failure is downgraded to "this source contributed nothing this
// run"; only writing the final artifact can fail the run.
type Pipeline struct {
	registry *source.Registry
	selected []string
	store    ports.ArtifactStore
	console  *console.Console
	logger   *slog.Logger
	debug    bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	out := deps.Console
	if out == nil {
		out = console.New()
	}
	return &Pipeline{
		registry: deps.Registry,
		selected: deps.Selected,
		store:    deps.Store,
		console:  out,
		logger:   deps.Logger,
		debug:    deps.Debug,
	}
}

// Run processes each selected source in order and rewrites the artifact.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.registry == nil || p.store == nil {
		return nil
	}

	songs, err := p.store.Load()
	if err != nil {
		p.warn("previous artifact unreadable, starting from an empty list", "error", err)
		songs = nil
	}
	carried := len(songs)

	for _, name := range p.selected {
		src, err := p.registry.Resolve(name)
		if err != nil {
			p.console.Fail("%s: %v", name, err)
			p.warn("unresolvable source", "source", name, "error", err)
			continue
		}

		entries := p.collect(ctx, src)
		before := len(songs)
		songs = merge.Merge(songs, entries, src.Provider())

		if len(entries) == 0 {
			p.console.OK("Found 0 song(s) — empty or expired session")
			continue
		}
		p.console.OK("Found %d song(s), %d new", len(entries), len(songs)-before)
	}

	p.console.Step("Writing %d song(s) (%d carried over from previous runs)", len(songs), carried)
	if err := p.store.Emit(songs); err != nil {
		return fmt.Errorf("emit artifact: %w", err)
	}
	p.console.OK("Artifact updated")
	return nil
}

// collect runs the auto → manual fallback ladder for one source. It always
// returns a (possibly empty) slice; failures end the source, not the run.
func (p *Pipeline) collect(ctx context.Context, src source.Source) []domain.RawEntry {
	p.console.Step("Fetching %s favorites …", src.Provider())

	entries, err := src.Collect(ctx, source.Request{Mode: source.ModeAuto, Debug: p.debug})
	if err == nil {
		return entries
	}

	switch {
	case errors.Is(err, ports.ErrNoCredentials):
		p.console.Fail("no browser credentials: %v", err)
	case errors.Is(err, ports.ErrSourceUnavailable):
		p.console.Fail("site blocked the request: %v", err)
	default:
		p.console.Fail("fetch failed: %v", err)
	}
	p.warn("auto fetch failed, trying manual capture", "source", src.Name(), "error", err)
	p.console.Note("falling back to the manual capture file")

	entries, err = src.Collect(ctx, source.Request{Mode: source.ModeManual, Debug: p.debug})
	if err != nil {
		if errors.Is(err, ports.ErrCaptureMissing) {
			p.console.Fail("no manual capture either — skipping this source")
			p.console.Note("log into the site in a browser, save the bookmarks page, and re-run")
		} else {
			p.console.Fail("manual capture unreadable: %v", err)
		}
		p.warn("source contributed nothing this run", "source", src.Name(), "error", err)
		return nil
	}

	p.console.Note("using the manual capture")
	return entries
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
