package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*RealBotAdapter)(nil)

// UpdateHandler consumes translated inbound updates. The conversation
// orchestrator implements it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd adapter.Update) error
}

// RealBotAdapter uses tgbotapi to poll updates and fans them out to a
// fixed number of workers. Per-user ordering is enforced downstream by
// the turn lock, not here.
type RealBotAdapter struct {
	bot     *tgbotapi.BotAPI
	workers int
	log     *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(token string, workers int, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if token == "" {
		return nil, errors.New("bot token is empty")
	}
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:     bot,
		workers: workers,
		log:     &l,
	}, nil
}

// StartPolling blocks until ctx is cancelled. The handler is supplied here
// rather than at construction because the orchestrator itself sends through
// this adapter.
func (r *RealBotAdapter) StartPolling(ctx context.Context, handler UpdateHandler) error {
	if handler == nil {
		return errors.New("update handler is nil")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					inbound, ok := translate(up)
					if !ok {
						continue
					}
					if err := handler.HandleUpdate(ctx, inbound); err != nil {
						r.log.Error().Err(err).Int("worker", id).Int64("tg_id", inbound.UserID).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// translate maps a raw tgbotapi update onto the transport-neutral union.
// Updates without an actionable payload are dropped.
func translate(up tgbotapi.Update) (adapter.Update, bool) {
	if q := up.CallbackQuery; q != nil && q.From != nil {
		return adapter.Update{
			Kind:       adapter.UpdateCallback,
			UserID:     q.From.ID,
			Username:   q.From.UserName,
			FirstName:  q.From.FirstName,
			CallbackID: q.ID,
			Callback:   strings.TrimSpace(q.Data),
		}, true
	}

	msg := up.Message
	if msg == nil || msg.From == nil {
		return adapter.Update{}, false
	}

	out := adapter.Update{
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}

	switch {
	case msg.Contact != nil:
		out.Kind = adapter.UpdateContact
		out.Phone = msg.Contact.PhoneNumber
	case len(msg.Photo) > 0:
		out.Kind = adapter.UpdatePhoto
		// sizes come sorted ascending, the last is the largest
		out.PhotoID = msg.Photo[len(msg.Photo)-1].FileID
		out.Text = msg.Caption
	case msg.IsCommand():
		out.Kind = adapter.UpdateCommand
		out.Command = msg.Command()
		out.Args = strings.TrimSpace(msg.CommandArguments())
	case msg.Text != "":
		out.Kind = adapter.UpdateText
		out.Text = msg.Text
	default:
		return adapter.Update{}, false
	}
	return out, true
}

func (r *RealBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(telegramID, text))
	return err
}

// SendButtons sends a message with inline buttons.
//   - If btn.URL is set, the button opens a link
//   - Else if btn.Data is set, the button sends callback data
//   - Else a safe fallback uses btn.Text as callback data
func (r *RealBotAdapter) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBotAdapter) SendReplyKeyboard(ctx context.Context, telegramID int64, text string, rows [][]adapter.ReplyButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.RequestContact {
				kbRow = append(kbRow, tgbotapi.NewKeyboardButtonContact(btn.Text))
			} else {
				kbRow = append(kbRow, tgbotapi.NewKeyboardButton(btn.Text))
			}
		}
		kbRows = append(kbRows, kbRow)
	}

	markup := tgbotapi.NewReplyKeyboard(kbRows...)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = true

	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = markup
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBotAdapter) SendPhoto(ctx context.Context, telegramID int64, fileID, caption string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	photo := tgbotapi.NewPhoto(telegramID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := r.bot.Send(photo)
	return err
}

func (r *RealBotAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}
