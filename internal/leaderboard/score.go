// Package leaderboard holds high-score types, the eligibility gate and the
// stores that persist scores.
package leaderboard

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// Score is a survival time in whole milliseconds. Keeping scores as integers
// makes ordering and ties exact.
type Score int64

// ScoreFromDuration converts a survival time to a Score, rounding to the nearest millisecond.
func ScoreFromDuration(d time.Duration) Score {
	return Score(d.Round(time.Millisecond) / time.Millisecond)
}

// Seconds returns the score as fractional seconds for display.
func (s Score) Seconds() float64 {
	return float64(s) / 1000
}

// String formats the score the way the leaderboard shows it, e.g. "12.34s".
func (s Score) String() string {
	return fmt.Sprintf("%.2fs", s.Seconds())
}

// UnmarshalJSON reads whole numbers as milliseconds and fractional numbers as
// seconds, the format older score files were written in.
func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	if ms, err := n.Int64(); err == nil {
		*s = Score(ms)
		return nil
	}
	secs, err := n.Float64()
	if err != nil {
		return fmt.Errorf("score %q: %w", n, err)
	}
	*s = Score(math.Round(secs * 1000))
	return nil
}

// Entry is one leaderboard row. The JSON field names match the flat-file format.
type Entry struct {
	PlayerName string    `json:"initials"`
	Score      Score     `json:"time"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
	UserID     string    `json:"user_id,omitempty"`
}

// SortEntries orders entries best first. Equal scores keep the earlier entry ahead.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}

// Scores extracts the score column.
func Scores(entries []Entry) []Score {
	out := make([]Score, len(entries))
	for i, e := range entries {
		out[i] = e.Score
	}
	return out
}

// Top returns the best limit entries of an already sorted slice.
func Top(entries []Entry, limit int) []Entry {
	if limit >= 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
