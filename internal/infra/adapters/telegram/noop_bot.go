package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for local runs
// without a bot token. Outbound traffic is logged instead of sent.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMessage(_ context.Context, tgID int64, text string) error {
	b.log.Info().Int64("tg_id", tgID).Str("text", text).Msg("send message")
	return nil
}

func (b *NoopBotAdapter) SendButtons(_ context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	b.log.Info().Int64("tg_id", tgID).Str("text", text).Int("rows", len(rows)).Msg("send inline keyboard")
	return nil
}

func (b *NoopBotAdapter) SendReplyKeyboard(_ context.Context, tgID int64, text string, rows [][]adapter.ReplyButton) error {
	b.log.Info().Int64("tg_id", tgID).Str("text", text).Int("rows", len(rows)).Msg("send reply keyboard")
	return nil
}

func (b *NoopBotAdapter) SendPhoto(_ context.Context, tgID int64, fileID, caption string) error {
	b.log.Info().Int64("tg_id", tgID).Str("file_id", fileID).Str("caption", caption).Msg("send photo")
	return nil
}

func (b *NoopBotAdapter) AnswerCallback(_ context.Context, callbackID, text string) error {
	b.log.Info().Str("callback_id", callbackID).Str("text", text).Msg("answer callback")
	return nil
}
