package source

import (
	"context"
	"fmt"

	"TabScanner/internal/domain"
)

// Mode selects where a source takes its raw content from.
type Mode string

const (
	// ModeAuto performs the authenticated network fetch.
	ModeAuto Mode = "auto"
	// ModeManual reads the operator-saved capture file.
	ModeManual Mode = "manual"
)

// Request carries all parameters required to collect one source.
type Request struct {
	Mode  Mode
	Debug bool
}

// Source captures a single provider implementation (Tab4u, Ultimate Guitar).
// Collect fetches raw content per the requested mode and parses it into raw
// entries. Parse-level trouble never escapes as an error: a malformed or
// expired document yields an empty slice, only fetch failures are returned.
type Source interface {
	Name() string
	Provider() domain.Source
	Collect(ctx context.Context, req Request) ([]domain.RawEntry, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation, preserving insertion
// order for deterministic pipeline runs.
func (r *Registry) Register(src Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	if _, ok := r.sources[src.Name()]; !ok {
		r.order = append(r.order, src.Name())
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// Names lists registered sources in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
