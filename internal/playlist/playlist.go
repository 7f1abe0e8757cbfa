// Package playlist keeps the deck's track library and persists it as
// "path,length" lines.
package playlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates an index or title that is not in the library.
var ErrNotFound = errors.New("track not found")

// Track is one library entry. Two tracks are the same track when their
// titles match.
type Track struct {
	ID     uuid.UUID
	Path   string
	Title  string
	URL    string
	Length string // m:ss
}

// NewTrack builds a track for path with the given length in seconds.
func NewTrack(path string, seconds float64) Track {
	return Track{
		ID:     uuid.New(),
		Path:   path,
		Title:  TitleOf(path),
		URL:    fileURL(path),
		Length: FormatLength(seconds),
	}
}

// TitleOf returns the file name without its extension.
func TitleOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// FormatLength renders seconds as m:ss, rounding to the nearest second.
func FormatLength(seconds float64) string {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int64(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ProbeFunc returns the duration of the file at path.
type ProbeFunc func(path string) (time.Duration, error)

// Library is an ordered, title-unique track list. It is safe for
// concurrent use.
type Library struct {
	mu     sync.RWMutex
	tracks []Track
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{}
}

// Len returns the number of tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Tracks returns a copy of the track list.
func (l *Library) Tracks() []Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Track(nil), l.tracks...)
}

// Track returns the track at index i.
func (l *Library) Track(i int) (Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i < 0 || i >= len(l.tracks) {
		return Track{}, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	return l.tracks[i], nil
}

// Contains reports whether a track with title is in the library.
func (l *Library) Contains(title string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOf(title) >= 0
}

func (l *Library) indexOf(title string) int {
	for i, t := range l.tracks {
		if t.Title == title {
			return i
		}
	}
	return -1
}

// Import probes and appends each path whose title is not already present.
// Files that fail to probe are skipped and reported in the joined error.
func (l *Library) Import(paths []string, probe ProbeFunc) ([]Track, error) {
	var (
		added []Track
		errs  []error
	)

	for _, p := range paths {
		if l.Contains(TitleOf(p)) {
			continue
		}

		d, err := probe(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}

		t := NewTrack(p, d.Seconds())

		l.mu.Lock()
		if l.indexOf(t.Title) < 0 {
			l.tracks = append(l.tracks, t)
			added = append(added, t)
		}
		l.mu.Unlock()
	}

	return added, errors.Join(errs...)
}

// Add appends t unless its title is already present. Reports whether it
// was added.
func (l *Library) Add(t Track) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(t.Title) >= 0 {
		return false
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	l.tracks = append(l.tracks, t)
	return true
}

// Remove deletes the track at index i.
func (l *Library) Remove(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.tracks) {
		return fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	l.tracks = append(l.tracks[:i], l.tracks[i+1:]...)
	return nil
}

// Find returns the index of the first track whose title contains substr,
// or -1.
func (l *Library) Find(substr string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, t := range l.tracks {
		if strings.Contains(t.Title, substr) {
			return i
		}
	}
	return -1
}

// Write writes one "path,length" record per track.
func (l *Library) Write(w io.Writer) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cw := csv.NewWriter(w)
	for _, t := range l.tracks {
		if err := cw.Write([]string{t.Path, t.Length}); err != nil {
			return fmt.Errorf("write library: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	return nil
}

// Read appends the records in r, skipping titles already present.
func (l *Library) Read(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read library: %w", err)
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}

		t := Track{
			ID:    uuid.New(),
			Path:  rec[0],
			Title: TitleOf(rec[0]),
			URL:   fileURL(rec[0]),
		}
		if len(rec) > 1 {
			t.Length = rec[1]
		}
		l.Add(t)
	}
}

// Save writes the library to path, replacing it.
func (l *Library) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return l.Write(f)
}

// Load reads the library at path. A missing file is an empty library.
func (l *Library) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	defer func() { _ = f.Close() }()

	return l.Read(f)
}
