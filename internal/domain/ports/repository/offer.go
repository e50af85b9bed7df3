package repository

import (
	"context"
	"time"

	"telegram-marketplace-bot/internal/domain/model"
)

// -----------------------------
// Offers
// -----------------------------

type OfferRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Offer) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Offer, error)
	FindByStore(ctx context.Context, tx Tx, storeID string) ([]*model.Offer, error)
	// ListActiveByCity returns bookable offers in a city, newest first.
	ListActiveByCity(ctx context.Context, tx Tx, city string, limit, offset int) ([]*model.Offer, error)
	// ExpireBefore deactivates offers whose availability window has passed.
	ExpireBefore(ctx context.Context, tx Tx, cutoff time.Time) (int, error)
	CountActive(ctx context.Context, tx Tx) (int, error)
}
