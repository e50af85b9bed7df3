package model

import (
	"time"

	"telegram-marketplace-bot/internal/domain"

	"github.com/google/uuid"
)

// Role describes what the marketplace lets a user do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Supported interface languages.
const (
	LangRU = "ru"
	LangUZ = "uz"
)

// User is a domain entity representing a Telegram user in our system.
// A user counts as registered once both phone and city are known;
// everything before that is driven by the registration flow.
type User struct {
	ID            string
	TelegramID    int64
	Username      string
	FirstName     string
	Phone         string
	City          string
	Language      string
	Role          Role
	Notifications bool
	RegisteredAt  time.Time
	LastActiveAt  time.Time
}

func NewUser(id string, tgID int64, username, firstName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:            id,
		TelegramID:    tgID,
		Username:      username,
		FirstName:     firstName,
		Language:      LangRU,
		Role:          RoleCustomer,
		Notifications: true,
		RegisteredAt:  now,
		LastActiveAt:  now,
	}, nil
}

// IsRegistered reports whether the user finished the registration flow.
func (u *User) IsRegistered() bool {
	return u != nil && u.Phone != "" && u.City != ""
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }
