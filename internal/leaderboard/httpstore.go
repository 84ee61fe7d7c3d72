package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPStore talks to a flat-file high-score endpoint (see FlatFileHandler).
// The endpoint only supports reading and replacing the whole list, so a submit
// reads, merges and writes back; concurrent writers race and the last one wins.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	retain  int
	now     func() time.Time
}

// NewHTTPStore returns a store for the endpoint rooted at baseURL.
// A nil client uses a client with a 10 second timeout.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		retain:  DefaultRetained,
		now:     time.Now,
	}
}

var _ Service = (*HTTPStore)(nil)

func (s *HTTPStore) endpoint(gameID string) (string, error) {
	if !ValidGameID(gameID) {
		return "", fmt.Errorf("invalid game id %q", gameID)
	}
	return s.baseURL + "/highscores/" + url.PathEscape(gameID), nil
}

// FetchTopScores implements Service.
func (s *HTTPStore) FetchTopScores(ctx context.Context, gameID string, limit int) ([]Entry, error) {
	entries, err := s.fetchAll(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return Top(entries, limit), nil
}

// SubmitScore implements Service.
func (s *HTTPStore) SubmitScore(ctx context.Context, gameID string, entry Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	entries, err := s.fetchAll(ctx, gameID)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	SortEntries(entries)

	body, err := json.Marshal(Top(entries, s.retain))
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	u, err := s.endpoint(gameID)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post scores: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RejectedError{Reason: fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))}
	}
	return nil
}

func (s *HTTPStore) fetchAll(ctx context.Context, gameID string) ([]Entry, error) {
	u, err := s.endpoint(gameID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get scores: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get scores: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	SortEntries(entries)
	return entries, nil
}
