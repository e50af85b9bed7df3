package repository

import (
	"context"

	"telegram-marketplace-bot/internal/domain/model"
)

// -----------------------------
// Stores
// -----------------------------

type StoreRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Store) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Store, error)
	// FindByOwner returns all stores owned by the user, any status.
	FindByOwner(ctx context.Context, tx Tx, ownerID string) ([]*model.Store, error)
	// FindApprovedByOwner returns only stores the owner may publish offers for.
	FindApprovedByOwner(ctx context.Context, tx Tx, ownerID string) ([]*model.Store, error)
	ListPending(ctx context.Context, tx Tx) ([]*model.Store, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.StoreStatus]int, error)
}
