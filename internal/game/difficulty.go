package game

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty selects how a round is presented to the player.
type Difficulty string

const (
	// Easy shows one candidate word and asks whether it is the word heard.
	Easy Difficulty = "easy"
	// Normal shows the prompt among distractors.
	Normal Difficulty = "normal"
	// Hard shows nothing; the player spells the word.
	Hard Difficulty = "hard"
)

// ErrUnknownDifficulty is returned for difficulty names outside easy/normal/hard.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty accepts a case-insensitive name; empty means Normal.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return Normal, nil
	case Easy, Normal, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, raw)
	}
}

// MinPool is the smallest number of distinct words a session of this difficulty accepts.
func (d Difficulty) MinPool() int {
	if d == Hard {
		return 1
	}
	return OptionCount
}

func (d Difficulty) valid() bool {
	return d == Easy || d == Normal || d == Hard
}
