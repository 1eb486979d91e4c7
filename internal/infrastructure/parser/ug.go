package parser

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"TabScanner/internal/config"
	"TabScanner/internal/domain"
	"TabScanner/internal/source"
)

const ugBaseURL = "https://tabs.ultimate-guitar.com"

// Fallback grammar: /tab/{artist-slug}/{title-type-id},
// e.g. /tab/elton-john/sacrifice-chords-978610.
var ugTabPathExpr = regexp.MustCompile(`^/tab/([^/?#]+)/([^/?#]+)$`)

// tabTypes are the slug tokens UG inserts between title and id.
var tabTypes = map[string]bool{
	"chords":   true,
	"tabs":     true,
	"tab":      true,
	"bass":     true,
	"drums":    true,
	"ukulele":  true,
	"power":    true,
	"official": true,
}

// UGSource collects saved tabs from ultimate-guitar.com. The site is a
// Next.js app that embeds all server-rendered state in a
// script#__NEXT_DATA__ JSON island; that is the reliable path. Stripped or
// partial captures fall back to scanning anchors for tab links.
type UGSource struct {
	cfg     config.SourceConfig
	fetcher ContentFetcher
	logger  *slog.Logger
	caser   cases.Caser
}

var _ source.Source = (*UGSource)(nil)

// NewUGSource wires the source with its fetch configuration.
func NewUGSource(cfg config.SourceConfig, fetcher ContentFetcher, logger *slog.Logger) *UGSource {
	return &UGSource{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		caser:   cases.Title(language.English),
	}
}

// Name identifies the source inside the registry.
func (u *UGSource) Name() string {
	return u.cfg.Name
}

// Provider returns the canonical source tag for merged songs.
func (u *UGSource) Provider() domain.Source {
	return domain.SourceUltimateGuitar
}

// Collect fetches the raw response and parses it. Parse-level trouble yields
// an empty result, never an error.
func (u *UGSource) Collect(ctx context.Context, req source.Request) ([]domain.RawEntry, error) {
	raw, err := u.fetcher.Fetch(ctx, u.cfg, req.Mode, req.Debug)
	if err != nil {
		return nil, err
	}
	return u.parse(raw), nil
}

func (u *UGSource) parse(raw []byte) []domain.RawEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		u.debug("unparsable document", "error", err)
		return nil
	}

	if entries := u.parseDataIsland(doc); len(entries) > 0 {
		return entries
	}
	return u.parseAnchors(doc)
}

// jsonTab mirrors the tab records inside __NEXT_DATA__. Field names have
// drifted between site revisions, so both variants are read.
type jsonTab struct {
	SongName   string `json:"song_name"`
	Name       string `json:"name"`
	ArtistName string `json:"artist_name"`
	Artist     string `json:"artist"`
	TabURL     string `json:"tab_url"`
	URL        string `json:"url"`
}

type tabsData struct {
	Tabs []jsonTab `json:"tabs"`
}

func (u *UGSource) parseDataIsland(doc *goquery.Document) []domain.RawEntry {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		u.debug("no __NEXT_DATA__ island, falling back to anchors")
		return nil
	}

	var island struct {
		Props struct {
			PageProps struct {
				Store struct {
					Page struct {
						Data tabsData `json:"data"`
					} `json:"page"`
				} `json:"store"`
				Data tabsData `json:"data"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &island); err != nil {
		u.debug("broken __NEXT_DATA__ island, falling back to anchors", "error", err)
		return nil
	}

	tabs := island.Props.PageProps.Store.Page.Data.Tabs
	if len(tabs) == 0 {
		tabs = island.Props.PageProps.Data.Tabs
	}

	seen := map[string]struct{}{}
	var entries []domain.RawEntry
	for _, tab := range tabs {
		tabURL := firstNonEmpty(tab.TabURL, tab.URL)
		if tabURL == "" {
			continue
		}
		if !strings.HasPrefix(tabURL, "http") {
			tabURL = ugBaseURL + tabURL
		}
		if _, dup := seen[tabURL]; dup {
			continue
		}
		seen[tabURL] = struct{}{}

		entries = append(entries, domain.RawEntry{
			TitleRaw:  firstNonEmpty(tab.SongName, tab.Name, "Unknown"),
			ArtistRaw: firstNonEmpty(tab.ArtistName, tab.Artist, "Unknown"),
			URLRaw:    tabURL,
		})
	}

	u.debug("parsed data island", "entries", len(entries))
	return entries
}

// parseAnchors is the lossier secondary path: artist and title are derived
// from the URL slug, so casing and punctuation are approximations.
func (u *UGSource) parseAnchors(doc *goquery.Document) []domain.RawEntry {
	seen := map[string]struct{}{}
	var entries []domain.RawEntry

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		path, ok := u.tabPath(href)
		if !ok {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}

		m := ugTabPathExpr.FindStringSubmatch(path)
		if m == nil {
			return
		}

		titleParts := strings.Split(m[2], "-")
		if len(titleParts) >= 2 && allDigits(titleParts[len(titleParts)-1]) {
			// Drop the trailing numeric id, and the tab-type token when
			// one precedes it (…/sacrifice-chords-978610).
			titleParts = titleParts[:len(titleParts)-1]
			if len(titleParts) >= 2 && tabTypes[titleParts[len(titleParts)-1]] {
				titleParts = titleParts[:len(titleParts)-1]
			}
		}

		entries = append(entries, domain.RawEntry{
			TitleRaw:  u.caser.String(strings.Join(titleParts, " ")),
			ArtistRaw: u.caser.String(strings.ReplaceAll(m[1], "-", " ")),
			URLRaw:    ugBaseURL + path,
		})
	})

	u.debug("parsed anchors", "entries", len(entries))
	return entries
}

// tabPath accepts relative tab links and absolute links into the tabs host,
// reduced to their /tab/… path without query or fragment.
func (u *UGSource) tabPath(href string) (string, bool) {
	idx := strings.Index(href, "/tab/")
	if idx == -1 {
		return "", false
	}
	if idx > 0 && !strings.Contains(href[:idx], "ultimate-guitar.com") {
		return "", false
	}

	path := href[idx:]
	if cut := strings.IndexAny(path, "?#"); cut != -1 {
		path = path[:cut]
	}
	return strings.TrimSuffix(path, "/"), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (u *UGSource) debug(msg string, args ...any) {
	if u.logger != nil {
		u.logger.Debug(msg, args...)
	}
}
