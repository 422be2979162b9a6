//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Item is a read-only reference record describing a tradeable item.
// Rows are loaded by the admin import CLI, never mutated through the API.
type Item struct {
	ID         string    `json:"id"          db:"id"`
	Game       Game      `json:"game"        db:"game"`
	Name       string    `json:"name"        db:"name"`
	Category   string    `json:"category"    db:"category"`
	Quality    string    `json:"quality"     db:"quality"`
	LevelReq   int       `json:"level_req"   db:"level_req"`
	Properties []string  `json:"properties"  db:"properties"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Validate checks an item record before import.
func (i *Item) Validate() error {
	if i == nil {
		return errors.New("item is required")
	}
	if !i.Game.Valid() {
		return errors.New("game must be one of: resurrected, classic")
	}
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("item name is required")
	}
	if i.LevelReq < 0 {
		return errors.New("level requirement cannot be negative")
	}
	return nil
}

// Runeword is a read-only reference record describing a runeword recipe.
type Runeword struct {
	ID        string    `json:"id"         db:"id"`
	Game      Game      `json:"game"       db:"game"`
	Name      string    `json:"name"       db:"name"`
	Runes     []string  `json:"runes"      db:"runes"`
	BaseTypes []string  `json:"base_types" db:"base_types"`
	Sockets   int       `json:"sockets"    db:"sockets"`
	LevelReq  int       `json:"level_req"  db:"level_req"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks a runeword record before import.
func (r *Runeword) Validate() error {
	if r == nil {
		return errors.New("runeword is required")
	}
	if !r.Game.Valid() {
		return errors.New("game must be one of: resurrected, classic")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("runeword name is required")
	}
	if len(r.Runes) == 0 {
		return errors.New("at least one rune is required")
	}
	if r.Sockets < len(r.Runes) {
		return errors.New("sockets cannot be fewer than runes")
	}
	return nil
}

// ReferenceListOptions controls paging and filtering for reference lookups.
// Q matches name via ILIKE substring.
type ReferenceListOptions struct {
	Limit    int
	Offset   int
	Q        *string
	Game     *Game
	Category *string
}
