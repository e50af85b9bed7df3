package adapter

import "context"

// UpdateKind discriminates the inbound update union.
type UpdateKind int

const (
	UpdateCommand UpdateKind = iota
	UpdateText
	UpdateContact
	UpdatePhoto
	UpdateCallback
)

// Update is a transport-neutral inbound event. Exactly the fields for its
// Kind are populated; UserID is always set.
type Update struct {
	Kind       UpdateKind
	UserID     int64
	Username   string
	FirstName  string
	Command    string // without leading slash
	Args       string
	Text       string
	Phone      string // contact payload
	PhotoID    string // largest photo file id
	CallbackID string // for AnswerCallback
	Callback   string // callback payload
}

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// TelegramBotAdapter is the outbound port toward the chat transport.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
	// SendReplyKeyboard sends text with a one-time reply keyboard; a row item
	// with RequestContact set asks the client for the user's phone number.
	SendReplyKeyboard(ctx context.Context, telegramID int64, text string, rows [][]ReplyButton) error
	SendPhoto(ctx context.Context, telegramID int64, fileID, caption string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type ReplyButton struct {
	Text           string
	RequestContact bool
}
