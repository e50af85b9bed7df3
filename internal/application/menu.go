package application

import (
	"telegram-marketplace-bot/internal/domain/model"
)

// Action identifies a menu entry independent of its localized label.
type Action string

const (
	ActionOffers        Action = "offers"
	ActionMyBookings    Action = "my_bookings"
	ActionChangeCity    Action = "change_city"
	ActionRegisterStore Action = "register_store"
	ActionMyStore       Action = "my_store"
	ActionCreateOffer   Action = "create_offer"
	ActionBulkCreate    Action = "bulk_create"
	ActionEditOffer     Action = "edit_offer"
	ActionConfirmOrder  Action = "confirm_order"
	ActionStats         Action = "stats"
	ActionPending       Action = "pending_stores"
	ActionBroadcast     Action = "broadcast"
	ActionLanguage      Action = "language"
	ActionNotifications Action = "notifications"
	ActionHelp          Action = "help"
	ActionCancel        Action = "cancel"
	ActionStart         Action = "start"
)

// MenuItem pairs an action with the translation key of its button label.
type MenuItem struct {
	Action   Action
	LabelKey string
}

// MenuDescriptor is what a user's main menu looks like: button rows for the
// reply keyboard. It is resolved purely from the user's role.
type MenuDescriptor struct {
	Rows [][]MenuItem
}

// ResolveMenu builds the role-dependent main menu. Sellers keep the customer
// entries and gain the store tools; admins additionally get moderation and
// stats entries.
func ResolveMenu(role model.Role) MenuDescriptor {
	rows := [][]MenuItem{
		{
			{Action: ActionOffers, LabelKey: "btn_offers"},
			{Action: ActionMyBookings, LabelKey: "btn_my_bookings"},
		},
	}

	switch role {
	case model.RoleSeller, model.RoleAdmin:
		rows = append(rows,
			[]MenuItem{
				{Action: ActionCreateOffer, LabelKey: "btn_create_offer"},
				{Action: ActionBulkCreate, LabelKey: "btn_bulk_create"},
			},
			[]MenuItem{
				{Action: ActionEditOffer, LabelKey: "btn_edit_offer"},
				{Action: ActionConfirmOrder, LabelKey: "btn_confirm_order"},
			},
			[]MenuItem{
				{Action: ActionMyStore, LabelKey: "btn_my_store"},
				{Action: ActionChangeCity, LabelKey: "btn_change_city"},
			},
		)
	default:
		rows = append(rows, []MenuItem{
			{Action: ActionRegisterStore, LabelKey: "btn_register_store"},
			{Action: ActionChangeCity, LabelKey: "btn_change_city"},
		})
	}

	if role == model.RoleAdmin {
		rows = append(rows, []MenuItem{
			{Action: ActionPending, LabelKey: "btn_pending_stores"},
			{Action: ActionStats, LabelKey: "btn_stats"},
		})
	}

	rows = append(rows, []MenuItem{
		{Action: ActionLanguage, LabelKey: "btn_language"},
		{Action: ActionNotifications, LabelKey: "btn_notifications"},
	})
	return MenuDescriptor{Rows: rows}
}

// commandActions maps slash commands onto menu actions. Commands stay
// available even when the reply keyboard is hidden.
var commandActions = map[string]Action{
	"start":          ActionStart,
	"menu":           ActionStart,
	"help":           ActionHelp,
	"cancel":         ActionCancel,
	"offers":         ActionOffers,
	"my_bookings":    ActionMyBookings,
	"change_city":    ActionChangeCity,
	"register_store": ActionRegisterStore,
	"my_store":       ActionMyStore,
	"create_offer":   ActionCreateOffer,
	"bulk_create":    ActionBulkCreate,
	"edit_offer":     ActionEditOffer,
	"confirm_order":  ActionConfirmOrder,
	"stats":          ActionStats,
	"pending":        ActionPending,
	"broadcast":      ActionBroadcast,
	"language":       ActionLanguage,
	"notifications":  ActionNotifications,
}

// allowedFor reports whether the action is available to the role. Unknown
// actions are customer-level.
func allowedFor(action Action, role model.Role) bool {
	switch action {
	case ActionCreateOffer, ActionBulkCreate, ActionEditOffer, ActionConfirmOrder, ActionMyStore:
		return role == model.RoleSeller || role == model.RoleAdmin
	case ActionStats, ActionPending, ActionBroadcast:
		return role == model.RoleAdmin
	default:
		return true
	}
}
