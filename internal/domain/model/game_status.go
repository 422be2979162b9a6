//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// ServerState reports the reachability of a game's trade servers.
type ServerState string

const (
	ServerStateOnline      ServerState = "online"
	ServerStateDegraded    ServerState = "degraded"
	ServerStateOffline     ServerState = "offline"
	ServerStateMaintenance ServerState = "maintenance"
)

func (s ServerState) Valid() bool {
	switch s {
	case ServerStateOnline, ServerStateDegraded, ServerStateOffline, ServerStateMaintenance:
		return true
	default:
		return false
	}
}

// GameStatus is the live status row backing the game-status widgets.
// One row per game; updated by the status webhook and streamed to clients.
type GameStatus struct {
	Game      Game        `json:"game"       db:"game"`
	State     ServerState `json:"state"      db:"state"`
	Message   *string     `json:"message,omitempty" db:"message"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// UpdateGameStatusRequest is the webhook payload updating a game's status.
type UpdateGameStatusRequest struct {
	Game    Game        `json:"game"`
	State   ServerState `json:"state"`
	Message *string     `json:"message,omitempty"`
}

// Validate checks the webhook payload.
func (r *UpdateGameStatusRequest) Validate() error {
	if r == nil {
		return errors.New("request is required")
	}
	if !r.Game.Valid() {
		return errors.New("game must be one of: resurrected, classic")
	}
	if !r.State.Valid() {
		return errors.New("state must be one of: online, degraded, offline, maintenance")
	}
	if r.Message != nil && strings.TrimSpace(*r.Message) == "" {
		r.Message = nil
	}
	return nil
}
