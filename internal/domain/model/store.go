package model

import (
	"time"

	"telegram-marketplace-bot/internal/domain"

	"github.com/google/uuid"
)

// StoreStatus tracks a store through moderation.
type StoreStatus string

const (
	StorePending  StoreStatus = "pending"
	StoreActive   StoreStatus = "active"
	StoreRejected StoreStatus = "rejected"
)

// Store is a seller's venue. New stores start pending and become visible to
// customers only after an admin approves them.
type Store struct {
	ID              string
	OwnerID         string
	Name            string
	City            string
	Address         string
	Description     string
	Category        string
	Phone           string
	Status          StoreStatus
	RejectionReason string
	CreatedAt       time.Time
}

func NewStore(ownerID, name, city, address, description, category, phone string) (*Store, error) {
	if ownerID == "" || name == "" || city == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Store{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		City:        city,
		Address:     address,
		Description: description,
		Category:    category,
		Phone:       phone,
		Status:      StorePending,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *Store) IsApproved() bool { return s != nil && s.Status == StoreActive }

func (s *Store) Approve() {
	s.Status = StoreActive
	s.RejectionReason = ""
}

func (s *Store) Reject(reason string) {
	s.Status = StoreRejected
	s.RejectionReason = reason
}
