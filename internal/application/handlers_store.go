package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
	"telegram-marketplace-bot/internal/usecase"
)

func (o *Orchestrator) handleRegisterStore(ctx context.Context, t *turn) error {
	// The owner's city pre-answers the first step.
	seed := map[string]string{}
	if t.user.City != "" {
		seed["city"] = t.user.City
	}
	return o.startFlow(ctx, t, flow.RegisterStore, seed)
}

func (o *Orchestrator) commitRegisterStore(ctx context.Context, t *turn) (string, error) {
	reg := usecase.StoreRegistration{
		Name:        t.sess.Value("name"),
		City:        t.sess.Value("city"),
		Address:     t.sess.Value("address"),
		Description: t.sess.Value("description"),
		Category:    t.sess.Value("category"),
		Phone:       t.sess.Value("phone"),
	}
	store, err := o.uc.Stores.Register(ctx, t.upd.UserID, reg)
	if err != nil {
		return "", err
	}
	metrics.IncStoreRegistered()
	if t.user.Role == model.RoleCustomer {
		t.user.Role = model.RoleSeller
	}
	o.notifyAdmins(ctx, store)
	if err := o.sendMainMenu(ctx, t, t.tr.T("store_submitted", store.Name)); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

// notifyAdmins pushes a moderation card for a freshly submitted store to
// every configured admin. Delivery failures are counted, not fatal.
func (o *Orchestrator) notifyAdmins(ctx context.Context, store *model.Store) {
	log := logging.With(ctx, o.logger)
	tr := o.bundle.For(model.LangRU)
	text := tr.T("moderation_request") + "\n" + formatStore(tr, store)
	rows := [][]adapter.InlineButton{{
		{Text: tr.T("btn_approve"), Data: "approve:" + store.ID},
		{Text: tr.T("btn_reject"), Data: "reject:" + store.ID},
	}}
	for id := range o.adminIDs {
		if err := o.bot.SendButtons(ctx, id, text, rows); err != nil {
			metrics.IncSendFailure()
			log.Warn().Err(err).Int64("admin_id", id).Msg("admin notification failed")
		}
	}
}

func (o *Orchestrator) handleMyStore(ctx context.Context, t *turn) error {
	stores, err := o.uc.Stores.ByOwner(ctx, t.user.ID)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("no_store"))
	}
	for _, s := range stores {
		text := formatStore(t.tr, s)
		if s.IsApproved() {
			offers, err := o.uc.Offers.ByStore(ctx, s.ID)
			if err != nil {
				return err
			}
			active := 0
			for _, of := range offers {
				if of.Bookable(time.Now()) {
					active++
				}
			}
			text += "\n" + t.tr.T("store_active_offers", active)
		}
		if err := o.bot.SendMessage(ctx, t.upd.UserID, text); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) handlePendingStores(ctx context.Context, t *turn) error {
	pending, err := o.uc.Stores.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("no_pending_stores"))
	}
	for _, s := range pending {
		rows := [][]adapter.InlineButton{{
			{Text: t.tr.T("btn_approve"), Data: "approve:" + s.ID},
			{Text: t.tr.T("btn_reject"), Data: "reject:" + s.ID},
		}}
		if err := o.bot.SendButtons(ctx, t.upd.UserID, formatStore(t.tr, s), rows); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) handleModerationCallback(ctx context.Context, t *turn, storeID string, approve bool) error {
	if t.user.Role != model.RoleAdmin {
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("not_allowed"))
	}
	var (
		store *model.Store
		err   error
	)
	if approve {
		store, err = o.uc.Stores.Approve(ctx, storeID)
	} else {
		store, err = o.uc.Stores.Reject(ctx, storeID, o.bundle.For(model.LangRU).T("rejection_default_reason"))
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("store_gone"))
		}
		return err
	}
	result := "rejected"
	if approve {
		result = "approved"
	}
	metrics.IncStoreModerated(result)
	o.notifyStoreOwner(ctx, store, approve)
	return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("moderation_"+result))
}

func (o *Orchestrator) notifyStoreOwner(ctx context.Context, store *model.Store, approved bool) {
	log := logging.With(ctx, o.logger)
	owner, err := o.uc.Users.GetByID(ctx, store.OwnerID)
	if err != nil || owner == nil {
		log.Warn().Err(err).Str("store_id", store.ID).Msg("store owner lookup failed")
		return
	}
	tr := o.bundle.For(owner.Language)
	key := "store_rejected_notice"
	if approved {
		key = "store_approved_notice"
	}
	if err := o.bot.SendMessage(ctx, owner.TelegramID, tr.T(key, store.Name)); err != nil {
		metrics.IncSendFailure()
		log.Warn().Err(err).Int64("tg_id", owner.TelegramID).Msg("owner notification failed")
	}
}

func (o *Orchestrator) handleStats(ctx context.Context, t *turn) error {
	users, stores, activeOffers, err := o.uc.Stats.Totals(ctx)
	if err != nil {
		return err
	}
	bookings, err := o.uc.Stats.Bookings(ctx)
	if err != nil {
		return err
	}
	inactive, err := o.uc.Stats.InactiveUsers(ctx, time.Now().AddDate(0, -1, 0))
	if err != nil {
		return err
	}
	return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("stats_report",
		users, inactive,
		stores[model.StorePending], stores[model.StoreActive], stores[model.StoreRejected],
		activeOffers,
		bookings[model.BookingPending], bookings[model.BookingCompleted], bookings[model.BookingCancelled],
	))
}

func (o *Orchestrator) handleBroadcast(ctx context.Context, t *turn) error {
	message := strings.TrimSpace(t.upd.Args)
	if message == "" {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("broadcast_usage"))
	}
	n, err := o.uc.Broadcast.BroadcastMessage(ctx, message)
	if err != nil {
		return err
	}
	return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("broadcast_queued", n))
}
