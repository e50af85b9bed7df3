package usecase

import (
	"context"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ BookingUseCase = (*bookingUC)(nil)

type BookingUseCase interface {
	// Book reserves quantity units of an offer and returns the booking with
	// its pickup code. The stock decrement and the booking insert commit
	// together or not at all.
	Book(ctx context.Context, userID, offerID string, quantity int) (*model.Booking, error)
	// ConfirmByCode completes a booking against its pickup code. Only the
	// owner of the store behind the booked offer may confirm.
	ConfirmByCode(ctx context.Context, sellerID, code string) (*model.Booking, error)
	// Cancel releases the reserved stock back to the offer.
	Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	ByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	CountByStatus(ctx context.Context) (map[model.BookingStatus]int, error)
}

type bookingUC struct {
	bookings repository.BookingRepository
	offers   repository.OfferRepository
	stores   repository.StoreRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewBookingUseCase(
	bookings repository.BookingRepository,
	offers repository.OfferRepository,
	stores repository.StoreRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *bookingUC {
	return &bookingUC{bookings: bookings, offers: offers, stores: stores, tm: tm, log: logger}
}

func (b *bookingUC) Book(ctx context.Context, userID, offerID string, quantity int) (*model.Booking, error) {
	defer logging.TraceDuration(b.log, "BookingUC.Book")()
	if quantity <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var booking *model.Booking
	// Serializable so two customers cannot both take the last unit.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := b.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		offer, err := b.offers.FindByID(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if offer == nil {
			return domain.ErrNotFound
		}
		if !offer.Bookable(time.Now()) {
			return domain.ErrOfferInactive
		}
		if offer.Quantity < quantity {
			return domain.ErrNotEnoughQuantity
		}

		offer.Quantity -= quantity
		if offer.Quantity == 0 {
			offer.Status = model.OfferInactive
		}
		if err := b.offers.Save(ctx, tx, offer); err != nil {
			return err
		}

		bk, err := model.NewBooking(offerID, userID, quantity)
		if err != nil {
			return err
		}
		if err := b.bookings.Save(ctx, tx, bk); err != nil {
			return err
		}
		booking = bk
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.log.Info().Str("booking_id", booking.ID).Str("offer_id", offerID).Int("quantity", quantity).Msg("booking created")
	return booking, nil
}

func (b *bookingUC) ConfirmByCode(ctx context.Context, sellerID, code string) (*model.Booking, error) {
	defer logging.TraceDuration(b.log, "BookingUC.ConfirmByCode")()

	var booking *model.Booking
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := b.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		bk, err := b.bookings.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if bk == nil {
			return domain.ErrNotFound
		}

		offer, err := b.offers.FindByID(ctx, tx, bk.OfferID)
		if err != nil {
			return err
		}
		if offer == nil {
			return domain.ErrNotFound
		}
		store, err := b.stores.FindByID(ctx, tx, offer.StoreID)
		if err != nil {
			return err
		}
		if store == nil || store.OwnerID != sellerID {
			return domain.ErrNotFound
		}

		if err := bk.Complete(); err != nil {
			return err
		}
		if err := b.bookings.Save(ctx, tx, bk); err != nil {
			return err
		}
		booking = bk
		return nil
	})
	return booking, err
}

func (b *bookingUC) Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	defer logging.TraceDuration(b.log, "BookingUC.Cancel")()

	var booking *model.Booking
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := b.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		bk, err := b.bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if bk == nil || bk.UserID != userID {
			return domain.ErrNotFound
		}
		if err := bk.Cancel(); err != nil {
			return err
		}

		// Return the reserved units to the offer.
		offer, err := b.offers.FindByID(ctx, tx, bk.OfferID)
		if err != nil {
			return err
		}
		if offer != nil {
			offer.Quantity += bk.Quantity
			if offer.Status == model.OfferInactive && !offer.IsExpired(time.Now()) {
				offer.Status = model.OfferActive
			}
			if err := b.offers.Save(ctx, tx, offer); err != nil {
				return err
			}
		}

		if err := b.bookings.Save(ctx, tx, bk); err != nil {
			return err
		}
		booking = bk
		return nil
	})
	return booking, err
}

func (b *bookingUC) ByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	defer logging.TraceDuration(b.log, "BookingUC.ByUser")()
	return b.bookings.FindByUser(ctx, repository.NoTX, userID)
}

func (b *bookingUC) CountByStatus(ctx context.Context) (map[model.BookingStatus]int, error) {
	defer logging.TraceDuration(b.log, "BookingUC.CountByStatus")()
	return b.bookings.CountByStatus(ctx, repository.NoTX)
}
