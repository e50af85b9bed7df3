package usecase

import (
	"context"
	"strconv"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ OfferUseCase = (*offerUC)(nil)

// OfferDraft carries the fields collected by the offer publishing flows.
type OfferDraft struct {
	StoreID        string
	Title          string
	PhotoID        string
	OriginalPrice  int64
	DiscountPrice  int64
	Quantity       int
	Unit           string
	Category       string
	AvailableUntil time.Time
}

type OfferUseCase interface {
	// Create publishes one offer for an approved store owned by the seller.
	Create(ctx context.Context, sellerID string, draft OfferDraft) (*model.Offer, error)
	// CreateBatch publishes several offers for the same store atomically.
	CreateBatch(ctx context.Context, sellerID string, drafts []OfferDraft) ([]*model.Offer, error)
	// EditField updates one field of a seller's own offer. Value is the
	// normalized string produced by input validation.
	EditField(ctx context.Context, sellerID, offerID, field, value string) (*model.Offer, error)
	Deactivate(ctx context.Context, sellerID, offerID string) error
	Get(ctx context.Context, offerID string) (*model.Offer, error)
	ByStore(ctx context.Context, storeID string) ([]*model.Offer, error)
	ListActiveByCity(ctx context.Context, city string, limit, offset int) ([]*model.Offer, error)
	// ExpireDue deactivates offers past their availability window.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type offerUC struct {
	offers repository.OfferRepository
	stores repository.StoreRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewOfferUseCase(
	offers repository.OfferRepository,
	stores repository.StoreRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *offerUC {
	return &offerUC{offers: offers, stores: stores, tm: tm, log: logger}
}

func (o *offerUC) Create(ctx context.Context, sellerID string, draft OfferDraft) (*model.Offer, error) {
	defer logging.TraceDuration(o.log, "OfferUC.Create")()
	offers, err := o.CreateBatch(ctx, sellerID, []OfferDraft{draft})
	if err != nil {
		return nil, err
	}
	return offers[0], nil
}

func (o *offerUC) CreateBatch(ctx context.Context, sellerID string, drafts []OfferDraft) ([]*model.Offer, error) {
	defer logging.TraceDuration(o.log, "OfferUC.CreateBatch")()
	if len(drafts) == 0 {
		return nil, domain.ErrInvalidArgument
	}

	var created []*model.Offer
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := o.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		store, err := o.stores.FindByID(ctx, tx, drafts[0].StoreID)
		if err != nil {
			return err
		}
		if store == nil || store.OwnerID != sellerID {
			return domain.ErrNotFound
		}
		if !store.IsApproved() {
			return domain.ErrStoreNotApproved
		}

		for _, d := range drafts {
			if d.StoreID != store.ID {
				return domain.ErrInvalidArgument
			}
			of, err := model.NewOffer(d.StoreID, d.Title, d.OriginalPrice, d.DiscountPrice, d.Quantity, d.Unit, d.AvailableUntil)
			if err != nil {
				return err
			}
			of.PhotoID = d.PhotoID
			of.Category = d.Category
			if err := o.offers.Save(ctx, tx, of); err != nil {
				return err
			}
			created = append(created, of)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Info().Int("count", len(created)).Str("store_id", drafts[0].StoreID).Msg("offers published")
	return created, nil
}

func (o *offerUC) EditField(ctx context.Context, sellerID, offerID, field, value string) (*model.Offer, error) {
	defer logging.TraceDuration(o.log, "OfferUC.EditField")()

	var offer *model.Offer
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := o.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		of, err := o.owned(ctx, tx, sellerID, offerID)
		if err != nil {
			return err
		}
		switch field {
		case "title":
			of.Title = value
		case "price":
			price, err := strconv.ParseInt(value, 10, 64)
			if err != nil || price <= 0 || price > of.OriginalPrice {
				return domain.ErrInvalidArgument
			}
			of.DiscountPrice = price
		case "quantity":
			q, err := strconv.Atoi(value)
			if err != nil || q < 0 {
				return domain.ErrInvalidArgument
			}
			of.Quantity = q
			if q == 0 {
				of.Status = model.OfferInactive
			}
		case "until":
			until, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return domain.ErrInvalidArgument
			}
			of.AvailableUntil = until
		default:
			return domain.ErrInvalidArgument
		}
		if err := o.offers.Save(ctx, tx, of); err != nil {
			return err
		}
		offer = of
		return nil
	})
	return offer, err
}

func (o *offerUC) Deactivate(ctx context.Context, sellerID, offerID string) error {
	defer logging.TraceDuration(o.log, "OfferUC.Deactivate")()

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return o.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		of, err := o.owned(ctx, tx, sellerID, offerID)
		if err != nil {
			return err
		}
		of.Status = model.OfferInactive
		return o.offers.Save(ctx, tx, of)
	})
}

// owned loads an offer and verifies the seller owns its store.
func (o *offerUC) owned(ctx context.Context, tx repository.Tx, sellerID, offerID string) (*model.Offer, error) {
	of, err := o.offers.FindByID(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}
	if of == nil {
		return nil, domain.ErrNotFound
	}
	store, err := o.stores.FindByID(ctx, tx, of.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil || store.OwnerID != sellerID {
		return nil, domain.ErrNotFound
	}
	return of, nil
}

func (o *offerUC) Get(ctx context.Context, offerID string) (*model.Offer, error) {
	defer logging.TraceDuration(o.log, "OfferUC.Get")()
	of, err := o.offers.FindByID(ctx, repository.NoTX, offerID)
	if err != nil {
		return nil, err
	}
	if of == nil {
		return nil, domain.ErrNotFound
	}
	return of, nil
}

func (o *offerUC) ByStore(ctx context.Context, storeID string) ([]*model.Offer, error) {
	defer logging.TraceDuration(o.log, "OfferUC.ByStore")()
	return o.offers.FindByStore(ctx, repository.NoTX, storeID)
}

func (o *offerUC) ListActiveByCity(ctx context.Context, city string, limit, offset int) ([]*model.Offer, error) {
	defer logging.TraceDuration(o.log, "OfferUC.ListActiveByCity")()
	if limit <= 0 {
		limit = 10
	}
	return o.offers.ListActiveByCity(ctx, repository.NoTX, city, limit, offset)
}

func (o *offerUC) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	defer logging.TraceDuration(o.log, "OfferUC.ExpireDue")()
	return o.offers.ExpireBefore(ctx, repository.NoTX, now)
}

func (o *offerUC) CountActive(ctx context.Context) (int, error) {
	defer logging.TraceDuration(o.log, "OfferUC.CountActive")()
	return o.offers.CountActive(ctx, repository.NoTX)
}
