package merge

import (
	"html"
	"net/url"
	"strings"

	"TabScanner/internal/domain"
)

// Merge canonicalizes raw entries and folds them into the existing song
// list. It is a pure function of its inputs: same arguments, same result,
// which lets each source merge independently and compose.
//
// Dedup is by derived id. A known id overwrites title and artist in place
// (sites occasionally correct metadata) without moving the song; unknown
// ids append in input order. Songs are never removed here — dropping an
// entry is a manual edit of the artifact.
func Merge(existing []domain.Song, raw []domain.RawEntry, src domain.Source) []domain.Song {
	out := append([]domain.Song(nil), existing...)

	index := make(map[string]int, len(out))
	for i, song := range out {
		index[song.ID] = i
	}

	for _, entry := range raw {
		rawURL := strings.TrimSpace(entry.URLRaw)
		if rawURL == "" {
			continue
		}

		song := domain.Song{
			ID:     domain.DeriveID(src, rawURL),
			Title:  clean(entry.TitleRaw),
			Artist: clean(entry.ArtistRaw),
			Source: src,
			URL:    rawURL,
			Lang:   src.Lang(),
		}
		if song.Title == "" {
			song.Title = "Unknown"
		}
		if song.Artist == "" {
			song.Artist = "Unknown"
		}

		if at, known := index[song.ID]; known {
			out[at].Title = song.Title
			out[at].Artist = song.Artist
			continue
		}

		index[song.ID] = len(out)
		out = append(out, song)
	}

	return out
}

// clean trims whitespace and reverses percent and HTML-entity escaping left
// over from URLs and markup. Values that are not valid percent sequences
// (a literal % in a title) pass through unchanged.
func clean(value string) string {
	value = strings.TrimSpace(value)
	value = html.UnescapeString(value)
	if decoded, err := url.PathUnescape(value); err == nil {
		value = decoded
	}
	return strings.TrimSpace(value)
}
