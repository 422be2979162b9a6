//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxItemNameLen  = 255
	maxOfferNoteLen = 2000
)

// TradeOfferStatus tracks the lifecycle of a trade offer.
type TradeOfferStatus string

const (
	TradeOfferStatusOpen      TradeOfferStatus = "open"
	TradeOfferStatusPending   TradeOfferStatus = "pending"
	TradeOfferStatusCompleted TradeOfferStatus = "completed"
	TradeOfferStatusCancelled TradeOfferStatus = "cancelled"
)

func (s TradeOfferStatus) Valid() bool {
	switch s {
	case TradeOfferStatusOpen, TradeOfferStatusPending, TradeOfferStatusCompleted, TradeOfferStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseTradeOfferStatus normalizes a status string and reports whether it is supported.
func ParseTradeOfferStatus(value string) (TradeOfferStatus, bool) {
	s := TradeOfferStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// TradeOffer represents a listing offering items in exchange for others.
type TradeOffer struct {
	ID        string           `json:"id"         db:"id"`
	OwnerID   string           `json:"owner_id"   db:"owner_id"`
	Game      Game             `json:"game"       db:"game"`
	Offering  string           `json:"offering"   db:"offering"`
	Wanting   string           `json:"wanting"    db:"wanting"`
	Note      *string          `json:"note,omitempty" db:"note"`
	Status    TradeOfferStatus `json:"status"     db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// CreateTradeOfferRequest holds fields for creating a trade offer.
type CreateTradeOfferRequest struct {
	Game     Game    `json:"game"`
	Offering string  `json:"offering"`
	Wanting  string  `json:"wanting"`
	Note     *string `json:"note,omitempty"`
}

// Validate checks required fields and length limits.
func (r *CreateTradeOfferRequest) Validate() error {
	if r == nil {
		return errors.New("request is required")
	}
	if !r.Game.Valid() {
		return errors.New("game must be one of: resurrected, classic")
	}
	if strings.TrimSpace(r.Offering) == "" {
		return errors.New("offering is required")
	}
	if utf8.RuneCountInString(r.Offering) > maxItemNameLen {
		return errors.New("offering exceeds maximum length")
	}
	if strings.TrimSpace(r.Wanting) == "" {
		return errors.New("wanting is required")
	}
	if utf8.RuneCountInString(r.Wanting) > maxItemNameLen {
		return errors.New("wanting exceeds maximum length")
	}
	if r.Note != nil && utf8.RuneCountInString(*r.Note) > maxOfferNoteLen {
		return errors.New("note exceeds maximum length")
	}
	return nil
}

// UpdateTradeOfferRequest holds optional fields for updating a trade offer.
// Nil fields are left unchanged.
type UpdateTradeOfferRequest struct {
	Offering *string           `json:"offering,omitempty"`
	Wanting  *string           `json:"wanting,omitempty"`
	Note     *string           `json:"note,omitempty"`
	Status   *TradeOfferStatus `json:"status,omitempty"`
}

// Validate checks provided fields only.
func (r UpdateTradeOfferRequest) Validate() error {
	if r.Offering != nil {
		if strings.TrimSpace(*r.Offering) == "" {
			return errors.New("offering cannot be empty")
		}
		if utf8.RuneCountInString(*r.Offering) > maxItemNameLen {
			return errors.New("offering exceeds maximum length")
		}
	}
	if r.Wanting != nil {
		if strings.TrimSpace(*r.Wanting) == "" {
			return errors.New("wanting cannot be empty")
		}
		if utf8.RuneCountInString(*r.Wanting) > maxItemNameLen {
			return errors.New("wanting exceeds maximum length")
		}
	}
	if r.Note != nil && utf8.RuneCountInString(*r.Note) > maxOfferNoteLen {
		return errors.New("note exceeds maximum length")
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("status must be one of: open, pending, completed, cancelled")
	}
	return nil
}

// TradeOffersListOptions controls paging and filtering for listing offers.
// Q matches offering/wanting via ILIKE substring; Game, Status, OwnerID match exactly.
type TradeOffersListOptions struct {
	Limit   int
	Offset  int
	Q       *string
	Game    *Game
	Status  *TradeOfferStatus
	OwnerID *string
}
