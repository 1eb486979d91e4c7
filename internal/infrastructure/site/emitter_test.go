package site

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"TabScanner/internal/domain"
)

func testSongs() []domain.Song {
	return []domain.Song{
		{
			ID:     "tab4u-74165",
			Title:  "My Hero",
			Artist: "Foo Fighters",
			Source: domain.SourceTab4u,
			URL:    "https://www.tab4u.com/tabs/songs/74165_Foo_Fighters_-_My_Hero.html",
			Lang:   "he",
		},
		{
			ID:     "ug-978610",
			Title:  "Sacrifice",
			Artist: "Elton John",
			Source: domain.SourceUltimateGuitar,
			URL:    "https://tabs.ultimate-guitar.com/tab/elton-john/sacrifice-chords-978610",
			Lang:   "en",
		},
	}
}

func TestEmitSeedsFromTemplateAndLoadsBack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	store := NewStore(path)

	if err := store.Emit(testSongs()); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(loaded))
	}
	if loaded[0].ID != "tab4u-74165" || loaded[1].Artist != "Elton John" {
		t.Fatalf("round trip corrupted songs: %+v", loaded)
	}

	artifact, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(artifact), "<html") {
		t.Fatalf("seeded artifact is not the picker page")
	}
}

func TestEmitPreservesBytesOutsideSegment(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	custom := "<html><head><title>My Picker</title></head><body>\n" +
		"<script>const songs = /* SONGS:BEGIN */[]/* SONGS:END */;</script>\n" +
		"<!-- hand-edited footer -->\n</body></html>"
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	store := NewStore(path)
	if err := store.Emit(testSongs()); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	got := string(updated)
	beginAt := strings.Index(got, beginMarker)
	endAt := strings.Index(got, endMarker)
	if beginAt == -1 || endAt == -1 {
		t.Fatalf("markers lost on rewrite")
	}

	prefix := got[:beginAt+len(beginMarker)]
	suffix := got[endAt:]
	if prefix != custom[:strings.Index(custom, beginMarker)+len(beginMarker)] {
		t.Fatalf("bytes before the segment changed:\n%q", prefix)
	}
	if suffix != custom[strings.Index(custom, endMarker):] {
		t.Fatalf("bytes after the segment changed:\n%q", suffix)
	}
}

func TestEmitThenEmitShrinksSegment(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	store := NewStore(path)

	if err := store.Emit(testSongs()); err != nil {
		t.Fatalf("first Emit failed: %v", err)
	}
	if err := store.Emit(testSongs()[:1]); err != nil {
		t.Fatalf("second Emit failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 song after shrink, got %d", len(loaded))
	}
}

func TestEmitNilWritesEmptyArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	store := NewStore(path)

	if err := store.Emit(nil); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Fatalf("expected empty list, got %v", loaded)
	}
}

func TestLoadMissingArtifactIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "absent.html"))
	songs, err := store.Load()
	if err != nil {
		t.Fatalf("missing artifact must not error: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("expected no songs, got %d", len(songs))
	}
}

func TestLoadArtifactWithoutSegmentIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("<html><body>no script</body></html>"), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	songs, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("artifact without segment must not error: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("expected no songs, got %d", len(songs))
	}
}

func TestLoadCorruptSegmentErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	content := "<script>const songs = /* SONGS:BEGIN */{not json/* SONGS:END */;</script>"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	if _, err := NewStore(path).Load(); err == nil {
		t.Fatalf("expected decode error for corrupt segment")
	}
}

func TestEmitToArtifactWithoutSegmentFailsAndLeavesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	original := "<html><body>hand-rolled page, no markers</body></html>"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	err := NewStore(path).Emit(testSongs())
	if !errors.Is(err, ErrNoDataSegment) {
		t.Fatalf("expected ErrNoDataSegment, got %v", err)
	}

	after, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read artifact: %v", readErr)
	}
	if string(after) != original {
		t.Fatalf("failed emit must not touch the artifact")
	}
}

func TestEmitFailureLeavesCommittedArtifactIntact(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced here")
	}
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	original := "<script>const songs = /* SONGS:BEGIN */[]/* SONGS:END */;</script>"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod dir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	if err := NewStore(path).Emit(testSongs()); err == nil {
		t.Fatalf("expected emit failure in a read-only directory")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(after) != original {
		t.Fatalf("failed emit must leave the committed artifact byte-identical")
	}
}

func TestWriteAtomicFailedCommitCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "index.html")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir target: %v", err)
	}

	// Rename cannot replace an existing directory, so the commit step fails
	// after the temp file has been fully written.
	if err := writeAtomic(target, []byte("payload")); err == nil {
		t.Fatalf("expected commit failure when the target cannot be replaced")
	}

	left, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(left) != 1 || left[0].Name() != "index.html" {
		t.Fatalf("temp file left behind after failed commit: %v", left)
	}
}

func TestTemplateCarriesDataSegment(t *testing.T) {
	t.Parallel()

	if _, err := dataSegment(pickerTemplate); err != nil {
		t.Fatalf("embedded template has no data segment: %v", err)
	}
}
