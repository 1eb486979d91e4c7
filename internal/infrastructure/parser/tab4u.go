package parser

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"TabScanner/internal/config"
	"TabScanner/internal/domain"
	"TabScanner/internal/source"
)

const (
	tab4uBaseURL = "https://www.tab4u.com"

	// The getMySongs.php response is not a regular page: sections are
	// separated by backtick-quoted tokens, with the saved-songs markup
	// following the marker pair.
	albumsMarker   = "`TOPALB`"
	songsEndMarker = "`TOPEND`"
)

// Song links look like /tabs/songs/74165_Foo_Fighters_-_My_Hero.html where
// underscores stand in for spaces. Hebrew titles arrive percent-encoded.
// Some entries carry no artist segment: /tabs/songs/555_Hallelujah.html.
var (
	tab4uSongExpr      = regexp.MustCompile(`^/tabs/songs/(\d+)_(.+?)_-_(.+?)\.html$`)
	tab4uTitleOnlyExpr = regexp.MustCompile(`^/tabs/songs/(\d+)_(.+?)\.html$`)
)

// ContentFetcher is the slice of the fetcher the parsers need.
type ContentFetcher interface {
	Fetch(ctx context.Context, cfg config.SourceConfig, mode source.Mode, debug bool) ([]byte, error)
}

// Tab4uSource collects saved songs from tab4u.com's AJAX chordsbook endpoint.
type Tab4uSource struct {
	cfg     config.SourceConfig
	fetcher ContentFetcher
	logger  *slog.Logger
}

var _ source.Source = (*Tab4uSource)(nil)

// NewTab4uSource wires the source with its fetch configuration.
func NewTab4uSource(cfg config.SourceConfig, fetcher ContentFetcher, logger *slog.Logger) *Tab4uSource {
	return &Tab4uSource{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Name identifies the source inside the registry.
func (t *Tab4uSource) Name() string {
	return t.cfg.Name
}

// Provider returns the canonical source tag for merged songs.
func (t *Tab4uSource) Provider() domain.Source {
	return domain.SourceTab4u
}

// Collect fetches the raw response and parses it. Parse-level trouble yields
// an empty result, never an error.
func (t *Tab4uSource) Collect(ctx context.Context, req source.Request) ([]domain.RawEntry, error) {
	raw, err := t.fetcher.Fetch(ctx, t.cfg, req.Mode, req.Debug)
	if err != nil {
		return nil, err
	}
	return t.parse(raw), nil
}

// parse locates the marker-bounded songs section and extracts one entry per
// matching anchor. A missing marker pair means an empty or expired session,
// which is a valid state, not a failure.
func (t *Tab4uSource) parse(raw []byte) []domain.RawEntry {
	section, ok := songsSection(string(raw))
	if !ok {
		t.debug("marker pair absent, treating as empty session")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(section))
	if err != nil {
		t.debug("unparsable songs section", "error", err)
		return nil
	}

	seen := map[string]struct{}{}
	var entries []domain.RawEntry
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		path, ok := songPath(href)
		if !ok {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}

		if m := tab4uSongExpr.FindStringSubmatch(path); m != nil {
			entries = append(entries, domain.RawEntry{
				TitleRaw:  strings.ReplaceAll(m[3], "_", " "),
				ArtistRaw: strings.ReplaceAll(m[2], "_", " "),
				URLRaw:    tab4uBaseURL + path,
			})
			return
		}

		if m := tab4uTitleOnlyExpr.FindStringSubmatch(path); m != nil {
			// No artist segment; the normalizer fills in "Unknown".
			entries = append(entries, domain.RawEntry{
				TitleRaw: strings.ReplaceAll(m[2], "_", " "),
				URLRaw:   tab4uBaseURL + path,
			})
		}
	})

	t.debug("parsed songs section", "entries", len(entries))
	return entries
}

// songsSection returns the content following the marker pair. Both markers
// must be present, in order.
func songsSection(raw string) (string, bool) {
	start := strings.Index(raw, albumsMarker)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(albumsMarker):]

	end := strings.Index(rest, songsEndMarker)
	if end == -1 {
		return "", false
	}
	return rest[end+len(songsEndMarker):], true
}

// songPath reduces an absolute or relative href to the /tabs/songs/… path,
// dropping any query string.
func songPath(href string) (string, bool) {
	idx := strings.Index(href, "/tabs/songs/")
	if idx == -1 {
		return "", false
	}
	path := href[idx:]
	if cut := strings.IndexAny(path, "?#"); cut != -1 {
		path = path[:cut]
	}
	return path, true
}

func (t *Tab4uSource) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
