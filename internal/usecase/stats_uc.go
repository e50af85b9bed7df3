package usecase

import (
	"context"
	"time"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (users int, stores map[model.StoreStatus]int, activeOffers int, err error)
	Bookings(ctx context.Context) (map[model.BookingStatus]int, error)
	InactiveUsers(ctx context.Context, olderThan time.Time) (int, error)
}

type statsUC struct {
	users    repository.UserRepository
	stores   repository.StoreRepository
	offers   repository.OfferRepository
	bookings repository.BookingRepository

	log *zerolog.Logger
}

func NewStatsUseCase(
	users repository.UserRepository,
	stores repository.StoreRepository,
	offers repository.OfferRepository,
	bookings repository.BookingRepository,
	logger *zerolog.Logger,
) *statsUC {
	return &statsUC{users: users, stores: stores, offers: offers, bookings: bookings, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, map[model.StoreStatus]int, int, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	stores, err := s.stores.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	offers, err := s.offers.CountActive(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	return users, stores, offers, nil
}

func (s *statsUC) Bookings(ctx context.Context) (map[model.BookingStatus]int, error) {
	return s.bookings.CountByStatus(ctx, repository.NoTX)
}

func (s *statsUC) InactiveUsers(ctx context.Context, olderThan time.Time) (int, error) {
	return s.users.CountInactiveUsers(ctx, repository.NoTX, olderThan)
}
