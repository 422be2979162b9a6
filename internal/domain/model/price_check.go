//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// PriceCheckStatus tracks whether a price check is still accepting estimates.
type PriceCheckStatus string

const (
	PriceCheckStatusOpen   PriceCheckStatus = "open"
	PriceCheckStatusClosed PriceCheckStatus = "closed"
)

func (s PriceCheckStatus) Valid() bool {
	switch s {
	case PriceCheckStatusOpen, PriceCheckStatusClosed:
		return true
	default:
		return false
	}
}

// PriceCheck is a request for the community to estimate an item's value.
type PriceCheck struct {
	ID          string           `json:"id"           db:"id"`
	RequesterID string           `json:"requester_id" db:"requester_id"`
	Game        Game             `json:"game"         db:"game"`
	ItemName    string           `json:"item_name"    db:"item_name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Status      PriceCheckStatus `json:"status"       db:"status"`
	CreatedAt   time.Time        `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"   db:"updated_at"`
}

// CreatePriceCheckRequest holds fields for opening a price check.
type CreatePriceCheckRequest struct {
	Game        Game    `json:"game"`
	ItemName    string  `json:"item_name"`
	Description *string `json:"description,omitempty"`
}

// Validate checks required fields and length limits.
func (r *CreatePriceCheckRequest) Validate() error {
	if r == nil {
		return errors.New("request is required")
	}
	if !r.Game.Valid() {
		return errors.New("game must be one of: resurrected, classic")
	}
	if strings.TrimSpace(r.ItemName) == "" {
		return errors.New("item name is required")
	}
	if utf8.RuneCountInString(r.ItemName) > maxItemNameLen {
		return errors.New("item name exceeds maximum length")
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > maxOfferNoteLen {
		return errors.New("description exceeds maximum length")
	}
	return nil
}

// PriceEstimate is a community response to a price check.
type PriceEstimate struct {
	ID           string    `json:"id"             db:"id"`
	PriceCheckID string    `json:"price_check_id" db:"price_check_id"`
	AuthorID     string    `json:"author_id"      db:"author_id"`
	Estimate     string    `json:"estimate"       db:"estimate"`
	Note         *string   `json:"note,omitempty" db:"note"`
	CreatedAt    time.Time `json:"created_at"     db:"created_at"`
}

// CreatePriceEstimateRequest holds fields for responding to a price check.
type CreatePriceEstimateRequest struct {
	Estimate string  `json:"estimate"`
	Note     *string `json:"note,omitempty"`
}

// Validate checks required fields and length limits.
func (r *CreatePriceEstimateRequest) Validate() error {
	if r == nil {
		return errors.New("request is required")
	}
	if strings.TrimSpace(r.Estimate) == "" {
		return errors.New("estimate is required")
	}
	if utf8.RuneCountInString(r.Estimate) > maxItemNameLen {
		return errors.New("estimate exceeds maximum length")
	}
	if r.Note != nil && utf8.RuneCountInString(*r.Note) > maxOfferNoteLen {
		return errors.New("note exceeds maximum length")
	}
	return nil
}

// PriceChecksListOptions controls paging and filtering for listing price checks.
type PriceChecksListOptions struct {
	Limit       int
	Offset      int
	Q           *string
	Game        *Game
	Status      *PriceCheckStatus
	RequesterID *string
}
