package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Service persists and lists scores for a game. Implementations must be safe
// for concurrent use; SSH sessions share one.
type Service interface {
	// SubmitScore stores an entry. A *RejectedError explains refusals.
	SubmitScore(ctx context.Context, gameID string, entry Entry) error
	// FetchTopScores returns up to limit entries, best first.
	FetchTopScores(ctx context.Context, gameID string, limit int) ([]Entry, error)
}

// Session identifies the signed-in player.
type Session struct {
	UserID string
	Name   string
}

// Auth reports the current session. A nil session means nobody is signed in.
type Auth interface {
	CurrentSession(ctx context.Context) (*Session, error)
}

// RejectedError is returned when the store refuses an entry.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "score rejected: " + e.Reason
}

// Reason extracts the user-facing explanation from a submit error.
func Reason(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason
	}
	return "Failed to save high score"
}

// StaticAuth always reports the same session.
type StaticAuth struct {
	Session *Session
}

// CurrentSession implements Auth.
func (a StaticAuth) CurrentSession(context.Context) (*Session, error) {
	return a.Session, nil
}

// playerNamespace scopes derived player ids.
var playerNamespace = uuid.MustParse("6f1c3f0e-52a4-4b8e-9a59-2f1d4c7b9e10")

// AnonymousSession creates a session with a fresh random id.
func AnonymousSession(name string) *Session {
	return &Session{UserID: uuid.NewString(), Name: name}
}

// DerivedSession creates a session whose id is stable for the given key
// material, such as an SSH public key.
func DerivedSession(name string, key []byte) *Session {
	return &Session{UserID: uuid.NewSHA1(playerNamespace, key).String(), Name: name}
}

// ParseSession accepts an explicit player id, which must be a UUID.
func ParseSession(name, id string) (*Session, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid player id %q: %w", id, err)
	}
	return &Session{UserID: u.String(), Name: name}, nil
}

func validateEntry(e Entry) error {
	if e.PlayerName == "" {
		return &RejectedError{Reason: "Name is required"}
	}
	if e.Score < 0 {
		return &RejectedError{Reason: "Score must not be negative"}
	}
	return nil
}

// Open picks a store: the flat-file HTTP endpoint at url when set, otherwise
// files under dir.
func Open(url, dir string) (Service, error) {
	if url != "" {
		return NewHTTPStore(url, nil), nil
	}
	return NewFileStore(dir)
}
