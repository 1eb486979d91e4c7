package domain

import (
	"strings"
	"testing"
)

func TestDeriveIDFromTab4uURL(t *testing.T) {
	t.Parallel()

	id := DeriveID(SourceTab4u, "https://www.tab4u.com/tabs/songs/74165_Foo_Fighters_-_My_Hero.html")
	if id != "tab4u-74165" {
		t.Fatalf("unexpected id: %s", id)
	}
}

func TestDeriveIDFromUGURL(t *testing.T) {
	t.Parallel()

	id := DeriveID(SourceUltimateGuitar, "https://tabs.ultimate-guitar.com/tab/elton-john/sacrifice-chords-978610")
	if id != "ug-978610" {
		t.Fatalf("unexpected id: %s", id)
	}
}

func TestDeriveIDFallsBackToHash(t *testing.T) {
	t.Parallel()

	url := "https://tabs.ultimate-guitar.com/some/other/page"
	first := DeriveID(SourceUltimateGuitar, url)
	second := DeriveID(SourceUltimateGuitar, url)

	if first != second {
		t.Fatalf("hash fallback is not deterministic: %s != %s", first, second)
	}
	if !strings.HasPrefix(first, "ug-") {
		t.Fatalf("unexpected prefix: %s", first)
	}
	if first == "ug-" {
		t.Fatalf("empty hash id")
	}
}

func TestSourceLang(t *testing.T) {
	t.Parallel()

	if SourceTab4u.Lang() != "he" {
		t.Fatalf("tab4u lang: %s", SourceTab4u.Lang())
	}
	if SourceUltimateGuitar.Lang() != "en" {
		t.Fatalf("ug lang: %s", SourceUltimateGuitar.Lang())
	}
}
