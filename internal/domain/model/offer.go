package model

import (
	"time"

	"telegram-marketplace-bot/internal/domain"

	"github.com/google/uuid"
)

// OfferStatus is "active" while the offer can still be booked.
type OfferStatus string

const (
	OfferActive   OfferStatus = "active"
	OfferInactive OfferStatus = "inactive"
)

// Offer is a discounted item a store puts up for booking. Quantity is the
// number of units still available; bookings decrement it atomically in the
// repository layer.
type Offer struct {
	ID             string
	StoreID        string
	Title          string
	PhotoID        string
	OriginalPrice  int64
	DiscountPrice  int64
	Quantity       int
	Unit           string
	Category       string
	AvailableUntil time.Time
	Status         OfferStatus
	CreatedAt      time.Time
}

func NewOffer(storeID, title string, originalPrice, discountPrice int64, quantity int, unit string, availableUntil time.Time) (*Offer, error) {
	if storeID == "" || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	if originalPrice <= 0 || discountPrice <= 0 || discountPrice > originalPrice {
		return nil, domain.ErrInvalidArgument
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Offer{
		ID:             uuid.NewString(),
		StoreID:        storeID,
		Title:          title,
		OriginalPrice:  originalPrice,
		DiscountPrice:  discountPrice,
		Quantity:       quantity,
		Unit:           unit,
		AvailableUntil: availableUntil,
		Status:         OfferActive,
		CreatedAt:      time.Now(),
	}, nil
}

// DiscountPercent is derived, never stored.
func (o *Offer) DiscountPercent() int {
	if o.OriginalPrice <= 0 {
		return 0
	}
	return int((1 - float64(o.DiscountPrice)/float64(o.OriginalPrice)) * 100)
}

func (o *Offer) IsExpired(now time.Time) bool {
	return !o.AvailableUntil.IsZero() && now.After(o.AvailableUntil)
}

func (o *Offer) Bookable(now time.Time) bool {
	return o.Status == OfferActive && o.Quantity > 0 && !o.IsExpired(now)
}
