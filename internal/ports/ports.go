package ports

import (
	"context"
	"errors"

	"TabScanner/internal/domain"
)

// Sentinel errors shared across the port boundary. Callers branch on these
// to pick a fallback path instead of retrying.
var (
	// ErrNoCredentials signals that every cookie-extraction strategy failed.
	ErrNoCredentials = errors.New("no browser credentials available")

	// ErrSourceUnavailable marks an HTTP-level block or a login prompt
	// served in place of data.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCaptureMissing means the operator-saved capture file is absent.
	ErrCaptureMissing = errors.New("manual capture missing")
)

// CredentialProvider yields a single-use credential set with an
// HTTP-header-safe cookie string for a domain. Implementations signal a
// sentinel error when no extraction strategy succeeds, so callers fall back
// to manual captures instead of retrying.
type CredentialProvider interface {
	Credentials(ctx context.Context, host string) (domain.CredentialSet, error)
}

// ArtifactStore reads and rewrites the static picker artifact. Load returns
// the previous song list from the embedded data segment; Emit replaces only
// that segment and must leave the committed artifact intact on failure.
type ArtifactStore interface {
	Load() ([]domain.Song, error)
	Emit(songs []domain.Song) error
}
