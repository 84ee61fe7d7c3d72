package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// DefaultRetained is how many entries a store keeps per game.
const DefaultRetained = 100

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidGameID reports whether id is safe to use as a file name.
func ValidGameID(id string) bool {
	return gameIDPattern.MatchString(id)
}

// FileStore keeps each game's leaderboard as a JSON array in its own file.
// Every submit rewrites the whole file.
type FileStore struct {
	dir    string
	retain int
	now    func() time.Time
	mu     sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scores dir: %w", err)
	}
	return &FileStore{dir: dir, retain: DefaultRetained, now: time.Now}, nil
}

var _ Service = (*FileStore)(nil)

func (s *FileStore) path(gameID string) (string, error) {
	if !ValidGameID(gameID) {
		return "", fmt.Errorf("invalid game id %q", gameID)
	}
	return filepath.Join(s.dir, gameID+".json"), nil
}

// FetchTopScores implements Service.
func (s *FileStore) FetchTopScores(ctx context.Context, gameID string, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(gameID)
	if err != nil {
		return nil, err
	}
	return Top(entries, limit), nil
}

// SubmitScore implements Service.
func (s *FileStore) SubmitScore(ctx context.Context, gameID string, entry Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(gameID)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	SortEntries(entries)
	return s.store(gameID, Top(entries, s.retain))
}

func (s *FileStore) load(gameID string) ([]Entry, error) {
	p, err := s.path(gameID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	SortEntries(entries)
	return entries, nil
}

// store replaces the file atomically via a temp file and rename.
func (s *FileStore) store(gameID string, entries []Entry) error {
	p, err := s.path(gameID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	return writeFileAtomic(p, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".scores-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// decodeEntries parses a flat-file body. Empty or blank input is an empty board.
func decodeEntries(data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
