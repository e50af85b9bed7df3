//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/usecase"
)

func TestStoreUseCase_Register(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	mockTxManager := NewMockTxManager()

	reg := usecase.StoreRegistration{
		Name:        "Bread Corner",
		City:        "Ташкент",
		Address:     "Amir Temur 1",
		Description: "bakery leftovers",
		Category:    "Пекарня",
		Phone:       "+998901234567",
	}

	t.Run("should create a pending store and promote the owner to seller", func(t *testing.T) {
		mockUserRepo := NewMockUserRepo()
		mockStoreRepo := NewMockStoreRepo()
		uc := usecase.NewStoreUseCase(mockStoreRepo, mockUserRepo, mockTxManager, testLogger)

		owner, _ := model.NewUser("", 42, "ann", "Ann")
		mockUserRepo.Save(ctx, nil, owner)

		store, err := uc.Register(ctx, 42, reg)
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if store.Status != model.StorePending {
			t.Errorf("expected pending status, got %q", store.Status)
		}
		if store.OwnerID != owner.ID {
			t.Errorf("expected owner %q, got %q", owner.ID, store.OwnerID)
		}

		updatedOwner, _ := mockUserRepo.FindByTelegramID(ctx, nil, 42)
		if updatedOwner.Role != model.RoleSeller {
			t.Errorf("expected owner promoted to seller, got %q", updatedOwner.Role)
		}
	})

	t.Run("should keep admin role for admin owners", func(t *testing.T) {
		mockUserRepo := NewMockUserRepo()
		mockStoreRepo := NewMockStoreRepo()
		uc := usecase.NewStoreUseCase(mockStoreRepo, mockUserRepo, mockTxManager, testLogger)

		admin, _ := model.NewUser("", 1, "root", "")
		admin.Role = model.RoleAdmin
		mockUserRepo.Save(ctx, nil, admin)

		if _, err := uc.Register(ctx, 1, reg); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		got, _ := mockUserRepo.FindByTelegramID(ctx, nil, 1)
		if got.Role != model.RoleAdmin {
			t.Errorf("expected admin role preserved, got %q", got.Role)
		}
	})

	t.Run("should fail for unknown owner", func(t *testing.T) {
		uc := usecase.NewStoreUseCase(NewMockStoreRepo(), NewMockUserRepo(), mockTxManager, testLogger)
		_, err := uc.Register(ctx, 404, reg)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStoreUseCase_Moderation(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	mockTxManager := NewMockTxManager()

	seedStore := func(repo *MockStoreRepo) *model.Store {
		st, _ := model.NewStore("owner-1", "Bread Corner", "Ташкент", "", "", "Пекарня", "")
		repo.Save(ctx, nil, st)
		return st
	}

	t.Run("approve makes the store visible", func(t *testing.T) {
		mockStoreRepo := NewMockStoreRepo()
		uc := usecase.NewStoreUseCase(mockStoreRepo, NewMockUserRepo(), mockTxManager, testLogger)
		st := seedStore(mockStoreRepo)

		got, err := uc.Approve(ctx, st.ID)
		if err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		if !got.IsApproved() {
			t.Error("expected store approved")
		}
	})

	t.Run("reject records the reason", func(t *testing.T) {
		mockStoreRepo := NewMockStoreRepo()
		uc := usecase.NewStoreUseCase(mockStoreRepo, NewMockUserRepo(), mockTxManager, testLogger)
		st := seedStore(mockStoreRepo)

		got, err := uc.Reject(ctx, st.ID, "no license")
		if err != nil {
			t.Fatalf("Reject failed: %v", err)
		}
		if got.Status != model.StoreRejected || got.RejectionReason != "no license" {
			t.Errorf("unexpected store after reject: %+v", got)
		}
	})

	t.Run("pending list excludes moderated stores", func(t *testing.T) {
		mockStoreRepo := NewMockStoreRepo()
		uc := usecase.NewStoreUseCase(mockStoreRepo, NewMockUserRepo(), mockTxManager, testLogger)
		st1 := seedStore(mockStoreRepo)
		seedStore(mockStoreRepo)
		if _, err := uc.Approve(ctx, st1.ID); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}

		pending, err := uc.ListPending(ctx)
		if err != nil {
			t.Fatalf("ListPending failed: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("expected 1 pending store, got %d", len(pending))
		}
	})
}
