package model

import (
	"crypto/rand"
	"time"

	"telegram-marketplace-bot/internal/domain"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// BookingStatus lifecycle: pending -> completed (confirmed by the seller
// against the booking code) or pending -> cancelled.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking reserves quantity units of an offer for a customer. Code is the
// short token the customer shows at pickup.
type Booking struct {
	ID        string
	Code      string
	OfferID   string
	UserID    string
	Quantity  int
	Status    BookingStatus
	CreatedAt time.Time
}

func NewBooking(offerID, userID string, quantity int) (*Booking, error) {
	if offerID == "" || userID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Booking{
		ID:        uuid.NewString(),
		Code:      NewBookingCode(),
		OfferID:   offerID,
		UserID:    userID,
		Quantity:  quantity,
		Status:    BookingPending,
		CreatedAt: time.Now(),
	}, nil
}

// NewBookingCode returns a sortable, URL-safe pickup code.
func NewBookingCode() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func (b *Booking) IsFinal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}

func (b *Booking) Complete() error {
	if b.IsFinal() {
		return domain.ErrBookingFinalized
	}
	b.Status = BookingCompleted
	return nil
}

func (b *Booking) Cancel() error {
	if b.IsFinal() {
		return domain.ErrBookingFinalized
	}
	b.Status = BookingCancelled
	return nil
}
