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

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot and admin flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string) (*model.User, error)
	CompleteRegistration(ctx context.Context, tgID int64, phone, city string) (*model.User, error)
	SetCity(ctx context.Context, tgID int64, city string) error
	SetLanguage(ctx context.Context, tgID int64, lang string) error
	ToggleNotifications(ctx context.Context, tgID int64) (bool, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
	CountInactiveSince(ctx context.Context, since time.Time) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	// Find and save run as one atomic operation so concurrent first contacts
	// from the same user cannot create two rows.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		if usr != nil {
			if username != "" && usr.Username != username {
				usr.Username = username
			}
			if firstName != "" && usr.FirstName != firstName {
				usr.FirstName = firstName
			}
			usr.Touch()
			if err = u.users.Save(ctx, tx, usr); err != nil {
				u.log.Error().Err(err).Msg("Failed to update user")
				return err
			}
			user = usr
			return nil
		}

		nu, err := model.NewUser("", tgID, username, firstName)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})

	return user, err
}

func (u *userUC) CompleteRegistration(ctx context.Context, tgID int64, phone, city string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.CompleteRegistration")()

	var user *model.User
	err := u.mutate(ctx, tgID, func(usr *model.User) error {
		if phone == "" || city == "" {
			return domain.ErrInvalidArgument
		}
		usr.Phone = phone
		usr.City = city
		user = usr
		return nil
	})
	return user, err
}

func (u *userUC) SetCity(ctx context.Context, tgID int64, city string) error {
	defer logging.TraceDuration(u.log, "UserUC.SetCity")()
	return u.mutate(ctx, tgID, func(usr *model.User) error {
		if city == "" {
			return domain.ErrInvalidArgument
		}
		usr.City = city
		return nil
	})
}

func (u *userUC) SetLanguage(ctx context.Context, tgID int64, lang string) error {
	defer logging.TraceDuration(u.log, "UserUC.SetLanguage")()
	return u.mutate(ctx, tgID, func(usr *model.User) error {
		if lang != model.LangRU && lang != model.LangUZ {
			return domain.ErrInvalidArgument
		}
		usr.Language = lang
		return nil
	})
}

func (u *userUC) ToggleNotifications(ctx context.Context, tgID int64) (bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.ToggleNotifications")()
	var enabled bool
	err := u.mutate(ctx, tgID, func(usr *model.User) error {
		usr.Notifications = !usr.Notifications
		enabled = usr.Notifications
		return nil
	})
	return enabled, err
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

func (u *userUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByID")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.List")()
	return u.users.List(ctx, repository.NoTX, limit, offset)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}

func (u *userUC) CountInactiveSince(ctx context.Context, since time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.CountInactiveSince")()
	return u.users.CountInactiveUsers(ctx, repository.NoTX, since)
}

// mutate loads the user inside a transaction, applies fn and saves the result.
func (u *userUC) mutate(ctx context.Context, tgID int64, fn func(*model.User) error) error {
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		if usr == nil {
			return domain.ErrNotFound
		}
		if err := fn(usr); err != nil {
			return err
		}
		usr.Touch()
		return u.users.Save(ctx, tx, usr)
	})
}
