// Package roomname validates the room names peers rendezvous on and
// generates memorable ones for clients that do not bring their own.
package roomname

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLength is the maximum room name length in runes.
const MaxLength = 64

var (
	ErrEmpty    = errors.New("room name is empty")
	ErrTooLong  = fmt.Errorf("room name is longer than %d characters", MaxLength)
	ErrBadRune  = errors.New("room name may only contain letters, digits, '-', '_' and '.'")
	ErrNotUTF8  = errors.New("room name is not valid UTF-8")
	ErrNoRandom = errors.New("could not generate a free room name")
)

// Validate normalizes name (surrounding whitespace is dropped) and checks it
// against the room name rules. It returns the normalized name.
func Validate(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", ErrNotUTF8
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(name) > MaxLength {
		return "", ErrTooLong
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '-', '_', '.':
			continue
		}
		return "", fmt.Errorf("%w: %q", ErrBadRune, r)
	}
	return name, nil
}

// maxAttempts bounds Generate when taken keeps rejecting candidates.
const maxAttempts = 64

// Generate creates a random, memorable room name from the word lists.
// Format: word-word-word-word (e.g., "kitten-waffle-stardust-happy").
// Four distinct lists are picked at random and one word is taken from each.
// taken may be nil; otherwise candidates for which it reports true are skipped.
func Generate(taken func(string) bool) (string, error) {
	allWords := [][]string{animals, dishes, names, randomWords, adjectives, extras}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		used := make(map[int]bool, 4)
		words := make([]string, 0, 4)

		for len(words) < 4 {
			listIndex, err := randomIndex(len(allWords))
			if err != nil {
				return "", err
			}
			if used[listIndex] {
				continue
			}
			used[listIndex] = true

			list := allWords[listIndex]
			wordIndex, err := randomIndex(len(list))
			if err != nil {
				return "", err
			}
			words = append(words, list[wordIndex])
		}

		name := strings.Join(words, "-")
		if taken == nil || !taken(name) {
			return name, nil
		}
	}
	return "", ErrNoRandom
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("random index: %w", err)
	}
	return int(n.Int64()), nil
}
