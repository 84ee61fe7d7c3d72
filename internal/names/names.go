// Package names validates player display names before they reach the leaderboard.
package names

import (
	"fmt"
	"strings"
)

// Length limits enforced by the leaderboard service.
const (
	MinLength = 2
	MaxLength = 10
)

// DefaultBannedWords is matched case-insensitively anywhere in a name.
var DefaultBannedWords = []string{
	"fuck", "shit", "ass", "dick", "cock", "pussy", "cunt",
	"whore", "slut", "bitch", "bastard", "damn",
}

// Result is the outcome of validating a name.
type Result struct {
	Valid  bool
	Reason string
}

// Validator checks length, character set and a deny-list.
type Validator struct {
	MinLength int
	MaxLength int
	Banned    []string
}

// NewValidator returns a validator with the stock limits and deny-list.
func NewValidator() *Validator {
	return &Validator{
		MinLength: MinLength,
		MaxLength: MaxLength,
		Banned:    DefaultBannedWords,
	}
}

// MaxLen returns the longest name Validate accepts.
func (v *Validator) MaxLen() int {
	return v.MaxLength
}

// Validate checks name and explains the first rule it breaks.
func (v *Validator) Validate(name string) Result {
	n := len([]rune(name))
	if n < v.MinLength {
		return Result{Reason: fmt.Sprintf("Name must be at least %d characters long", v.MinLength)}
	}
	if n > v.MaxLength {
		return Result{Reason: fmt.Sprintf("Name must be no more than %d characters long", v.MaxLength)}
	}
	for _, r := range name {
		if !IsNameRune(r) {
			return Result{Reason: "Name can only contain letters, numbers, and spaces"}
		}
	}
	lower := strings.ToLower(name)
	for _, word := range v.Banned {
		if strings.Contains(lower, strings.ToLower(word)) {
			return Result{Reason: "Name contains inappropriate language"}
		}
	}
	return Result{Valid: true}
}

// IsNameRune reports whether r may appear in a name: ASCII letters, digits and space.
func IsNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
		return true
	}
	return false
}
