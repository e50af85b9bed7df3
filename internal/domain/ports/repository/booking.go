package repository

import (
	"context"

	"telegram-marketplace-bot/internal/domain/model"
)

// -----------------------------
// Bookings
// -----------------------------

type BookingRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Booking) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Booking, error)
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Booking, error)
	FindByUser(ctx context.Context, tx Tx, userID string) ([]*model.Booking, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.BookingStatus]int, error)
}
