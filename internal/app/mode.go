package app

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects who plays O.
type Mode string

const (
	ModeFriend Mode = "player"
	ModeAI     Mode = "ai"
)

var ErrUnknownMode = errors.New("unknown game mode")

// ParseMode accepts "player" (or "friend") and "ai".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "friend":
		return ModeFriend, nil
	case "ai":
		return ModeAI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
