//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/infra/worker"
	"telegram-marketplace-bot/internal/usecase"
)

func TestBroadcastUseCase(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	seed := func(repo *MockUserRepo, users ...*model.User) {
		for _, u := range users {
			repo.Save(ctx, nil, u)
		}
	}

	waitFor := func(t *testing.T, wg *sync.WaitGroup) {
		t.Helper()
		waitChan := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitChan)
		}()
		select {
		case <-waitChan:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for messages to be sent")
		}
	}

	t.Run("should broadcast message only to non-admin users", func(t *testing.T) {
		mockRepo := NewMockUserRepo()
		seed(mockRepo,
			&model.User{ID: "user-1", TelegramID: 101, Role: model.RoleCustomer},
			&model.User{ID: "user-2", TelegramID: 102, Role: model.RoleAdmin},
			&model.User{ID: "user-3", TelegramID: 103, Role: model.RoleSeller},
			&model.User{ID: "user-4", TelegramID: 104, Role: model.RoleCustomer},
		)
		expectedRecipientCount := 3

		var wg sync.WaitGroup
		wg.Add(expectedRecipientCount)
		mockBot := &MockTelegramBot{
			SendMessageFunc: func(ctx context.Context, telegramID int64, text string) error {
				wg.Done()
				return nil
			},
		}

		pool := worker.NewPool(2, logger)
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(mockRepo, mockBot, pool, logger)

		count, err := uc.BroadcastMessage(ctx, "Hello everyone")
		if err != nil {
			t.Fatalf("BroadcastMessage returned an error: %v", err)
		}
		if count != expectedRecipientCount {
			t.Errorf("expected count %d, but got %d", expectedRecipientCount, count)
		}
		waitFor(t, &wg)
	})

	t.Run("city notification skips opted-out users and the trigger user", func(t *testing.T) {
		mockRepo := NewMockUserRepo()
		seed(mockRepo,
			&model.User{ID: "user-1", TelegramID: 101, City: "Ташкент", Notifications: true},
			&model.User{ID: "user-2", TelegramID: 102, City: "Ташкент", Notifications: false},
			&model.User{ID: "user-3", TelegramID: 103, City: "Самарканд", Notifications: true},
			&model.User{ID: "user-4", TelegramID: 104, City: "Ташкент", Notifications: true},
		)

		var wg sync.WaitGroup
		wg.Add(1) // only user-1: user-2 opted out, user-3 other city, user-4 is the trigger
		mockBot := &MockTelegramBot{
			SendMessageFunc: func(ctx context.Context, telegramID int64, text string) error {
				if telegramID != 101 {
					t.Errorf("unexpected recipient %d", telegramID)
				}
				wg.Done()
				return nil
			},
		}

		pool := worker.NewPool(2, logger)
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(mockRepo, mockBot, pool, logger)

		count, err := uc.NotifyCity(ctx, "Ташкент", "New offer nearby", 104)
		if err != nil {
			t.Fatalf("NotifyCity returned an error: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 recipient, got %d", count)
		}
		waitFor(t, &wg)
	})
}
