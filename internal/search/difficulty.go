package search

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty controls how often the bot ignores the search and plays randomly.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// DefaultDifficulty is used when none is requested.
const DefaultDifficulty = Medium

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty accepts "easy", "medium" or "hard" in any case. An empty
// string yields DefaultDifficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultDifficulty, nil
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return DefaultDifficulty, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// RandomShare is the probability that a move is picked at random.
func (d Difficulty) RandomShare() float64 {
	switch d {
	case Easy:
		return 0.7
	case Medium:
		return 0.4
	default:
		return 0
	}
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
