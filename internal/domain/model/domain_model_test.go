//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"telegram-marketplace-bot/internal/domain"
)

// --- User Model Tests ---

func TestNewUser(t *testing.T) {
	t.Run("should create a new user successfully", func(t *testing.T) {
		user, err := NewUser("", 12345, "testuser", "Test")

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if user == nil {
			t.Fatal("expected user to be non-nil, but got nil")
		}
		if user.ID == "" {
			t.Error("expected user ID to be non-empty")
		}
		if user.Role != RoleCustomer {
			t.Errorf("expected default role customer, but got %s", user.Role)
		}
		if user.Language != LangRU {
			t.Errorf("expected default language ru, but got %s", user.Language)
		}
		if user.IsRegistered() {
			t.Error("a fresh user without phone and city must not count as registered")
		}
	})

	t.Run("should fail with invalid telegram ID", func(t *testing.T) {
		user, err := NewUser("", 0, "testuser", "")
		if err == nil {
			t.Fatal("expected an error for invalid telegram ID, but got nil")
		}
		if user != nil {
			t.Errorf("expected user to be nil on error, but it was not")
		}
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected error to be ErrInvalidArgument, but got %T", err)
		}
	})

	t.Run("registered only with phone and city", func(t *testing.T) {
		user, _ := NewUser("", 12345, "testuser", "Test")
		user.Phone = "+998901234567"
		if user.IsRegistered() {
			t.Error("phone alone must not count as registered")
		}
		user.City = "Ташкент"
		if !user.IsRegistered() {
			t.Error("expected user with phone and city to be registered")
		}
	})
}

// --- Store Model Tests ---

func TestStoreModeration(t *testing.T) {
	store, err := NewStore("owner-1", "Bakery", "Ташкент", "Main st 1", "", "Пекарня", "+998900000000")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if store.Status != StorePending {
		t.Fatalf("new store must start pending, got %s", store.Status)
	}
	if store.IsApproved() {
		t.Error("pending store must not be approved")
	}

	store.Reject("incomplete address")
	if store.Status != StoreRejected || store.RejectionReason == "" {
		t.Error("rejection must set status and keep the reason")
	}

	store.Approve()
	if !store.IsApproved() {
		t.Error("expected store to be approved")
	}
	if store.RejectionReason != "" {
		t.Error("approval must clear the rejection reason")
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("", "Bakery", "Ташкент", "", "", "", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty owner, got %v", err)
	}
	if _, err := NewStore("owner-1", "", "Ташкент", "", "", "", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty name, got %v", err)
	}
}

// --- Offer Model Tests ---

func TestNewOffer(t *testing.T) {
	until := time.Now().Add(6 * time.Hour)

	t.Run("valid offer", func(t *testing.T) {
		offer, err := NewOffer("store-1", "Bread box", 20000, 8000, 5, "шт", until)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if offer.Status != OfferActive {
			t.Errorf("expected active status, got %s", offer.Status)
		}
		if got := offer.DiscountPercent(); got != 60 {
			t.Errorf("expected 60%% discount, got %d", got)
		}
		if !offer.Bookable(time.Now()) {
			t.Error("expected fresh offer to be bookable")
		}
	})

	t.Run("discount above original price", func(t *testing.T) {
		if _, err := NewOffer("store-1", "Bread box", 8000, 20000, 5, "шт", until); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("expired offer is not bookable", func(t *testing.T) {
		offer, err := NewOffer("store-1", "Bread box", 20000, 8000, 5, "шт", time.Now().Add(-time.Hour))
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if offer.Bookable(time.Now()) {
			t.Error("expired offer must not be bookable")
		}
	})
}

// --- Booking Model Tests ---

func TestBookingLifecycle(t *testing.T) {
	booking, err := NewBooking("offer-1", "user-1", 2)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if booking.Code == "" {
		t.Fatal("expected booking code to be generated")
	}
	if booking.Status != BookingPending {
		t.Fatalf("new booking must start pending, got %s", booking.Status)
	}

	if err := booking.Complete(); err != nil {
		t.Fatalf("completing a pending booking must succeed: %v", err)
	}
	if err := booking.Cancel(); !errors.Is(err, domain.ErrBookingFinalized) {
		t.Errorf("expected ErrBookingFinalized when cancelling a completed booking, got %v", err)
	}
}

func TestNewBookingValidation(t *testing.T) {
	if _, err := NewBooking("offer-1", "user-1", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero quantity, got %v", err)
	}
}
