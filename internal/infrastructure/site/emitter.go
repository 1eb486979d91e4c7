package site

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"TabScanner/internal/domain"
	"TabScanner/internal/ports"
)

// Data segment delimiters inside the artifact's script block. Everything
// outside them is round-tripped byte for byte.
const (
	beginMarker = "/* SONGS:BEGIN */"
	endMarker   = "/* SONGS:END */"
)

// ErrNoDataSegment means the artifact carries no recognizable data segment.
var ErrNoDataSegment = errors.New("artifact has no song-data segment")

//go:embed assets/picker.html
var pickerTemplate []byte

// Store owns the static picker artifact: it loads the previous song list
// from the embedded data segment and rewrites only that segment on emit.
type Store struct {
	path string
}

var _ ports.ArtifactStore = (*Store)(nil)

// NewStore binds the store to the artifact path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the artifact location, for operator messages.
func (s *Store) Path() string {
	return s.path
}

// Load reads the previous song list. A missing artifact or one without a
// data segment yields an empty list; a segment that no longer deserializes
// is reported so the caller can decide to start fresh.
func (s *Store) Load() ([]domain.Song, error) {
	artifact, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	segment, err := dataSegment(artifact)
	if err != nil {
		if errors.Is(err, ErrNoDataSegment) {
			return nil, nil
		}
		return nil, err
	}

	var songs []domain.Song
	if err := json.Unmarshal(segment, &songs); err != nil {
		return nil, fmt.Errorf("decode data segment: %w", err)
	}
	return songs, nil
}

// Emit serializes the song list into the data segment, preserving all other
// artifact content, and commits via temp-write-then-rename so a crash
// mid-write never corrupts the published page. When no artifact exists yet
// the embedded picker template seeds it.
func (s *Store) Emit(songs []domain.Song) error {
	artifact, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read artifact: %w", err)
		}
		artifact = pickerTemplate
	}

	if songs == nil {
		songs = []domain.Song{}
	}
	payload, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize songs: %w", err)
	}

	updated, err := replaceSegment(artifact, payload)
	if err != nil {
		return err
	}

	return writeAtomic(s.path, updated)
}

// dataSegment returns the bytes between the markers.
func dataSegment(artifact []byte) ([]byte, error) {
	begin := bytes.Index(artifact, []byte(beginMarker))
	if begin == -1 {
		return nil, ErrNoDataSegment
	}
	begin += len(beginMarker)

	length := bytes.Index(artifact[begin:], []byte(endMarker))
	if length == -1 {
		return nil, ErrNoDataSegment
	}
	return artifact[begin : begin+length], nil
}

// replaceSegment swaps the marker-bounded region for the payload, leaving
// every byte outside the markers untouched.
func replaceSegment(artifact, payload []byte) ([]byte, error) {
	begin := bytes.Index(artifact, []byte(beginMarker))
	if begin == -1 {
		return nil, ErrNoDataSegment
	}
	begin += len(beginMarker)

	length := bytes.Index(artifact[begin:], []byte(endMarker))
	if length == -1 {
		return nil, ErrNoDataSegment
	}

	var out bytes.Buffer
	out.Grow(len(artifact) + len(payload))
	out.Write(artifact[:begin])
	out.Write(payload)
	out.Write(artifact[begin+length:])
	return out.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tabscanner-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}
