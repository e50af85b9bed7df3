package usecase

import (
	"context"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ StoreUseCase = (*storeUC)(nil)

// StoreRegistration carries the fields collected by the store sign-up flow.
type StoreRegistration struct {
	Name        string
	City        string
	Address     string
	Description string
	Category    string
	Phone       string
}

type StoreUseCase interface {
	// Register creates a pending store and promotes its owner to seller.
	Register(ctx context.Context, ownerTgID int64, reg StoreRegistration) (*model.Store, error)
	Approve(ctx context.Context, storeID string) (*model.Store, error)
	Reject(ctx context.Context, storeID, reason string) (*model.Store, error)
	Get(ctx context.Context, storeID string) (*model.Store, error)
	ByOwner(ctx context.Context, ownerID string) ([]*model.Store, error)
	ApprovedByOwner(ctx context.Context, ownerID string) ([]*model.Store, error)
	ListPending(ctx context.Context) ([]*model.Store, error)
	CountByStatus(ctx context.Context) (map[model.StoreStatus]int, error)
}

type storeUC struct {
	stores repository.StoreRepository
	users  repository.UserRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewStoreUseCase(
	stores repository.StoreRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *storeUC {
	return &storeUC{stores: stores, users: users, tm: tm, log: logger}
}

func (s *storeUC) Register(ctx context.Context, ownerTgID int64, reg StoreRegistration) (*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.Register")()

	var store *model.Store
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := s.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		owner, err := s.users.FindByTelegramID(ctx, tx, ownerTgID)
		if err != nil {
			return err
		}
		if owner == nil {
			return domain.ErrNotFound
		}

		st, err := model.NewStore(owner.ID, reg.Name, reg.City, reg.Address, reg.Description, reg.Category, reg.Phone)
		if err != nil {
			return err
		}
		if err := s.stores.Save(ctx, tx, st); err != nil {
			return err
		}

		// First store makes the user a seller; admins keep their role.
		if owner.Role == model.RoleCustomer {
			owner.Role = model.RoleSeller
			if err := s.users.Save(ctx, tx, owner); err != nil {
				return err
			}
		}
		store = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("store_id", store.ID).Str("city", store.City).Msg("store registered, awaiting moderation")
	return store, nil
}

func (s *storeUC) Approve(ctx context.Context, storeID string) (*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.Approve")()
	return s.moderate(ctx, storeID, func(st *model.Store) { st.Approve() })
}

func (s *storeUC) Reject(ctx context.Context, storeID, reason string) (*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.Reject")()
	return s.moderate(ctx, storeID, func(st *model.Store) { st.Reject(reason) })
}

func (s *storeUC) moderate(ctx context.Context, storeID string, fn func(*model.Store)) (*model.Store, error) {
	var store *model.Store
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := s.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		st, err := s.stores.FindByID(ctx, tx, storeID)
		if err != nil {
			return err
		}
		if st == nil {
			return domain.ErrNotFound
		}
		fn(st)
		if err := s.stores.Save(ctx, tx, st); err != nil {
			return err
		}
		store = st
		return nil
	})
	return store, err
}

func (s *storeUC) Get(ctx context.Context, storeID string) (*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.Get")()
	st, err := s.stores.FindByID(ctx, repository.NoTX, storeID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

func (s *storeUC) ByOwner(ctx context.Context, ownerID string) ([]*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.ByOwner")()
	return s.stores.FindByOwner(ctx, repository.NoTX, ownerID)
}

func (s *storeUC) ApprovedByOwner(ctx context.Context, ownerID string) ([]*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.ApprovedByOwner")()
	return s.stores.FindApprovedByOwner(ctx, repository.NoTX, ownerID)
}

func (s *storeUC) ListPending(ctx context.Context) ([]*model.Store, error) {
	defer logging.TraceDuration(s.log, "StoreUC.ListPending")()
	return s.stores.ListPending(ctx, repository.NoTX)
}

func (s *storeUC) CountByStatus(ctx context.Context) (map[model.StoreStatus]int, error) {
	defer logging.TraceDuration(s.log, "StoreUC.CountByStatus")()
	return s.stores.CountByStatus(ctx, repository.NoTX)
}
