//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// CounterOfferStatus tracks negotiation state on a counter-offer.
type CounterOfferStatus string

const (
	CounterOfferStatusPending  CounterOfferStatus = "pending"
	CounterOfferStatusAccepted CounterOfferStatus = "accepted"
	CounterOfferStatusDeclined CounterOfferStatus = "declined"
)

func (s CounterOfferStatus) Valid() bool {
	switch s {
	case CounterOfferStatusPending, CounterOfferStatusAccepted, CounterOfferStatusDeclined:
		return true
	default:
		return false
	}
}

// CounterOffer is a negotiation response attached to a trade offer.
type CounterOffer struct {
	ID        string             `json:"id"         db:"id"`
	OfferID   string             `json:"offer_id"   db:"offer_id"`
	AuthorID  string             `json:"author_id"  db:"author_id"`
	Offering  string             `json:"offering"   db:"offering"`
	Note      *string            `json:"note,omitempty" db:"note"`
	Status    CounterOfferStatus `json:"status"     db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// CreateCounterOfferRequest holds fields for submitting a counter-offer.
type CreateCounterOfferRequest struct {
	Offering string  `json:"offering"`
	Note     *string `json:"note,omitempty"`
}

// Validate checks required fields and length limits.
func (r *CreateCounterOfferRequest) Validate() error {
	if r == nil {
		return errors.New("request is required")
	}
	if strings.TrimSpace(r.Offering) == "" {
		return errors.New("offering is required")
	}
	if utf8.RuneCountInString(r.Offering) > maxItemNameLen {
		return errors.New("offering exceeds maximum length")
	}
	if r.Note != nil && utf8.RuneCountInString(*r.Note) > maxOfferNoteLen {
		return errors.New("note exceeds maximum length")
	}
	return nil
}
