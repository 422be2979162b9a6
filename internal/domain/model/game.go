//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "strings"

// Game identifies which of the two supported games a record belongs to.
type Game string

const (
	GameResurrected Game = "resurrected"
	GameClassic     Game = "classic"
)

func (g Game) Valid() bool {
	switch g {
	case GameResurrected, GameClassic:
		return true
	default:
		return false
	}
}

// ParseGame normalizes a game string and reports whether it is supported.
func ParseGame(value string) (Game, bool) {
	g := Game(strings.ToLower(strings.TrimSpace(value)))
	if g.Valid() {
		return g, true
	}
	return "", false
}

// Games lists the supported games in display order.
func Games() []Game {
	return []Game{GameResurrected, GameClassic}
}
