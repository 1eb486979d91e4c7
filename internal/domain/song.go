package domain

import (
	"fmt"
	"hash/fnv"
	"regexp"
)

// Source identifies one of the external tab-bookmark providers.
type Source string

const (
	SourceTab4u          Source = "Tab4u"
	SourceUltimateGuitar Source = "Ultimate Guitar"
)

// Lang returns the content language tag used by the picker page.
func (s Source) Lang() string {
	if s == SourceTab4u {
		return "he"
	}
	return "en"
}

// Song is a canonical entry of the merged favorites list. The ID is derived
// deterministically from the tab URL, so re-fetching never duplicates songs.
type Song struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Source Source `json:"source"`
	URL    string `json:"url"`
	Lang   string `json:"lang"`
}

// RawEntry is the transient pre-normalization form produced by a parser.
// Whitespace and percent/entity escaping are not yet cleaned.
type RawEntry struct {
	TitleRaw  string
	ArtistRaw string
	URLRaw    string
}

// CredentialSet carries the cookie header for one fetch attempt. It is built,
// used once, and discarded; it is never written anywhere.
type CredentialSet struct {
	Domain       string
	CookieHeader string
}

var (
	tab4uIDExpr = regexp.MustCompile(`/tabs/songs/(\d+)_`)
	ugIDExpr    = regexp.MustCompile(`/tab/[^/]+/[a-z0-9-]*?(\d+)/?$`)
)

// DeriveID computes the stable song identifier from a tab URL. Both sites
// embed a numeric tab id in their song URLs; when the pattern does not match
// (hand-edited entries, future URL schemes) an FNV-1a hash of the URL keeps
// the derivation deterministic.
func DeriveID(source Source, url string) string {
	prefix := "ug"
	expr := ugIDExpr
	if source == SourceTab4u {
		prefix = "tab4u"
		expr = tab4uIDExpr
	}

	if m := expr.FindStringSubmatch(url); m != nil {
		return fmt.Sprintf("%s-%s", prefix, m[1])
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return fmt.Sprintf("%s-%08x", prefix, h.Sum32())
}
