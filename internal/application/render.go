package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/i18n"
)

// promptStep sends the prompt of the given step together with whatever
// keyboard the step needs to be answerable.
func (o *Orchestrator) promptStep(ctx context.Context, t *turn, def *flow.Definition, idx int) error {
	step, ok := def.StepAt(idx)
	if !ok {
		return domain.ErrFlowConfig
	}
	prompt := t.tr.T(step.Prompt)

	switch {
	case step.Input == flow.InputContact:
		rows := [][]adapter.ReplyButton{{{Text: t.tr.T("btn_send_phone"), RequestContact: true}}}
		return o.bot.SendReplyKeyboard(ctx, t.upd.UserID, prompt, rows)
	case step.Field == "city":
		return o.bot.SendReplyKeyboard(ctx, t.upd.UserID, prompt, replyRows(model.Cities(t.user.Language), 2))
	case def.Name == flow.RegisterStore && step.Name == "category":
		return o.bot.SendReplyKeyboard(ctx, t.upd.UserID, prompt, replyRows(model.StoreCategories(t.user.Language), 2))
	case step.Name == "unit":
		return o.bot.SendReplyKeyboard(ctx, t.upd.UserID, prompt, replyRows(model.Units, 4))
	case step.Name == "store":
		return o.promptStoreChoice(ctx, t, prompt)
	case def.Name == flow.EditOffer && step.Name == "field":
		rows := [][]adapter.InlineButton{
			{
				{Text: t.tr.T("btn_edit_title"), Data: "title"},
				{Text: t.tr.T("btn_edit_price"), Data: "price"},
			},
			{
				{Text: t.tr.T("btn_edit_quantity"), Data: "quantity"},
				{Text: t.tr.T("btn_edit_until"), Data: "until"},
			},
		}
		return o.bot.SendButtons(ctx, t.upd.UserID, prompt, rows)
	default:
		return o.bot.SendMessage(ctx, t.upd.UserID, prompt)
	}
}

// promptStoreChoice rebuilds the seller's store buttons. The allowed ids were
// seeded at flow start; labels come from a fresh lookup so renames show up.
func (o *Orchestrator) promptStoreChoice(ctx context.Context, t *turn, prompt string) error {
	stores, err := o.uc.Stores.ApprovedByOwner(ctx, t.user.ID)
	if err != nil {
		return err
	}
	rows := make([][]adapter.InlineButton, 0, len(stores))
	for _, s := range stores {
		rows = append(rows, []adapter.InlineButton{{Text: s.Name, Data: s.ID}})
	}
	return o.bot.SendButtons(ctx, t.upd.UserID, prompt, rows)
}

// sendMainMenu shows the text with the role-scoped reply keyboard.
func (o *Orchestrator) sendMainMenu(ctx context.Context, t *turn, text string) error {
	menu := ResolveMenu(t.user.Role)
	rows := make([][]adapter.ReplyButton, 0, len(menu.Rows))
	for _, row := range menu.Rows {
		btns := make([]adapter.ReplyButton, 0, len(row))
		for _, item := range row {
			btns = append(btns, adapter.ReplyButton{Text: t.tr.T(item.LabelKey)})
		}
		rows = append(rows, btns)
	}
	return o.bot.SendReplyKeyboard(ctx, t.upd.UserID, text, rows)
}

func (o *Orchestrator) sendHelp(ctx context.Context, t *turn) error {
	return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("help_text"))
}

func (o *Orchestrator) sendUnrecognized(ctx context.Context, t *turn) error {
	return o.sendMainMenu(ctx, t, t.tr.T("unrecognized"))
}

func (o *Orchestrator) sendLanguageChoice(ctx context.Context, t *turn) error {
	rows := [][]adapter.InlineButton{{
		{Text: "Русский", Data: "lang:ru"},
		{Text: "O'zbekcha", Data: "lang:uz"},
	}}
	return o.bot.SendButtons(ctx, t.upd.UserID, t.tr.T("choose_language"), rows)
}

// replyRows chunks labels into reply-keyboard rows of the given width.
func replyRows(labels []string, perRow int) [][]adapter.ReplyButton {
	var rows [][]adapter.ReplyButton
	for i := 0; i < len(labels); i += perRow {
		end := i + perRow
		if end > len(labels) {
			end = len(labels)
		}
		row := make([]adapter.ReplyButton, 0, perRow)
		for _, l := range labels[i:end] {
			row = append(row, adapter.ReplyButton{Text: l})
		}
		rows = append(rows, row)
	}
	return rows
}

func formatPrice(v int64) string {
	return strconv.FormatInt(v, 10)
}

// formatOffer renders one offer card.
func formatOffer(tr *i18n.Translator, offer *model.Offer, storeName string) string {
	var b strings.Builder
	b.WriteString(tr.T("offer_card_title", offer.Title, storeName))
	b.WriteString("\n")
	b.WriteString(tr.T("offer_card_price",
		formatPrice(offer.OriginalPrice), formatPrice(offer.DiscountPrice), offer.DiscountPercent()))
	b.WriteString("\n")
	b.WriteString(tr.T("offer_card_quantity", offer.Quantity, offer.Unit))
	if !offer.AvailableUntil.IsZero() {
		b.WriteString("\n")
		b.WriteString(tr.T("offer_card_until", offer.AvailableUntil.Format("02.01 15:04")))
	}
	return b.String()
}

func formatBooking(tr *i18n.Translator, bk *model.Booking, offer *model.Offer) string {
	title := bk.OfferID
	unit := ""
	if offer != nil {
		title = offer.Title
		unit = offer.Unit
	}
	var b strings.Builder
	b.WriteString(tr.T("booking_card", title, bk.Quantity, unit, bk.Code))
	b.WriteString("\n")
	b.WriteString(tr.T("booking_status_" + string(bk.Status)))
	return b.String()
}

func formatStore(tr *i18n.Translator, s *model.Store) string {
	var b strings.Builder
	b.WriteString(tr.T("store_card", s.Name, s.Category, s.City, s.Address))
	b.WriteString("\n")
	b.WriteString(tr.T("store_status_" + string(s.Status)))
	if s.Status == model.StoreRejected && s.RejectionReason != "" {
		b.WriteString("\n")
		b.WriteString(tr.T("store_rejection_reason", s.RejectionReason))
	}
	return b.String()
}

func parseUntilRFC3339(v string) time.Time {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return ts
}
