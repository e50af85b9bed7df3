package usecase

import (
	"context"
	"time"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

type BroadcastUseCase interface {
	// BroadcastMessage queues an admin announcement to every non-admin user
	// and returns how many recipients were queued.
	BroadcastMessage(ctx context.Context, message string) (int, error)
	// NotifyCity queues a message to users in a city who opted into
	// notifications, skipping the user who triggered it.
	NotifyCity(ctx context.Context, city, message string, skipTgID int64) (int, error)
}

type broadcastUC struct {
	users      repository.UserRepository
	bot        adapter.TelegramBotAdapter
	workerPool *worker.Pool
	log        *zerolog.Logger
}

func NewBroadcastUseCase(
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) BroadcastUseCase {
	return &broadcastUC{users: users, bot: bot, workerPool: pool, log: logger}
}

func (uc *broadcastUC) BroadcastMessage(ctx context.Context, message string) (int, error) {
	allUsers, err := uc.users.List(ctx, repository.NoTX, 0, 0)
	if err != nil {
		uc.log.Error().Err(err).Msg("Failed to fetch users for broadcast")
		return 0, err
	}

	var recipients []*model.User
	for _, user := range allUsers {
		if user.Role != model.RoleAdmin {
			recipients = append(recipients, user)
		}
	}
	uc.queue(recipients, message)
	return len(recipients), nil
}

func (uc *broadcastUC) NotifyCity(ctx context.Context, city, message string, skipTgID int64) (int, error) {
	cityUsers, err := uc.users.ListByCity(ctx, repository.NoTX, city)
	if err != nil {
		uc.log.Error().Err(err).Str("city", city).Msg("Failed to fetch users for city notification")
		return 0, err
	}

	var recipients []*model.User
	for _, user := range cityUsers {
		if user.TelegramID != skipTgID {
			recipients = append(recipients, user)
		}
	}
	uc.queue(recipients, message)
	return len(recipients), nil
}

func (uc *broadcastUC) queue(recipients []*model.User, message string) {
	// Throttle to respect Telegram's API limits (approx. 30 messages/sec).
	throttle := time.NewTicker(time.Second / 25)

	go func() {
		defer throttle.Stop()
		uc.log.Info().Int("user_count", len(recipients)).Msg("Starting broadcast job")

		for _, user := range recipients {
			<-throttle.C

			task := uc.createSendTask(user.TelegramID, message)
			if err := uc.workerPool.Submit(task); err != nil {
				uc.log.Warn().Err(err).Int64("tg_id", user.TelegramID).Msg("Failed to submit broadcast task to worker pool")
			}
		}
		uc.log.Info().Msg("Broadcast job finished queuing all tasks")
	}()
}

// createSendTask creates a closure for the worker pool to execute.
func (uc *broadcastUC) createSendTask(telegramID int64, message string) worker.Task {
	return func(ctx context.Context) error {
		if err := uc.bot.SendMessage(ctx, telegramID, message); err != nil {
			// A failed delivery usually means the user blocked the bot.
			uc.log.Warn().Err(err).Int64("tg_id", telegramID).Msg("Failed to send broadcast message to user")
		}
		return nil
	}
}
