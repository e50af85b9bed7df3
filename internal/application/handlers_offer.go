package application

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
	"telegram-marketplace-bot/internal/usecase"
)

const browseLimit = 10

// bulkDefaultUnit is used for batch-created offers; the bulk flow trades the
// per-item unit question for speed.
const bulkDefaultUnit = "шт"

// handleStartOfferFlow seeds the create and bulk-create flows with the
// seller's approved stores. A single store answers the first step outright.
func (o *Orchestrator) handleStartOfferFlow(ctx context.Context, t *turn, name flow.Name) error {
	stores, err := o.uc.Stores.ApprovedByOwner(ctx, t.user.ID)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("no_approved_store"))
	}
	ids := make([]string, 0, len(stores))
	for _, s := range stores {
		ids = append(ids, s.ID)
	}
	seed := map[string]string{"store_choices": strings.Join(ids, ",")}
	if len(stores) == 1 {
		seed["store_id"] = stores[0].ID
		seed["store_category"] = stores[0].Category
	}
	return o.startFlow(ctx, t, name, seed)
}

func (o *Orchestrator) commitCreateOffer(ctx context.Context, t *turn) (string, error) {
	draft := draftFromSession(t.sess.Data)
	offer, err := o.uc.Offers.Create(ctx, t.user.ID, draft)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotApproved) || errors.Is(err, domain.ErrNotFound) {
			// The store lost its approval while the seller was typing.
			if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("store_not_approved")); serr != nil {
				return "", serr
			}
			return outcomeFailed, nil
		}
		return "", err
	}
	metrics.AddOffersPublished(1)
	o.announceOffers(ctx, t, draft.StoreID, offer.Title, 1)
	if err := o.sendMainMenu(ctx, t, t.tr.T("offer_published", offer.Title)); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

func (o *Orchestrator) commitBulkCreate(ctx context.Context, t *turn) (string, error) {
	drafts := bulkDraftsFromSession(t.sess.Data)
	offers, err := o.uc.Offers.CreateBatch(ctx, t.user.ID, drafts)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotApproved) || errors.Is(err, domain.ErrNotFound) {
			if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("store_not_approved")); serr != nil {
				return "", serr
			}
			return outcomeFailed, nil
		}
		return "", err
	}
	metrics.AddOffersPublished(len(offers))
	title := ""
	if len(offers) > 0 {
		title = offers[0].Title
	}
	o.announceOffers(ctx, t, t.sess.Value("store_id"), title, len(offers))
	if err := o.sendMainMenu(ctx, t, t.tr.T("bulk_published", len(offers))); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

// announceOffers fans a new-offer notice out to opted-in users of the store's
// city, skipping the seller who just published.
func (o *Orchestrator) announceOffers(ctx context.Context, t *turn, storeID, title string, count int) {
	log := logging.With(ctx, o.logger)
	store, err := o.uc.Stores.Get(ctx, storeID)
	if err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("announce skipped, store lookup failed")
		return
	}
	tr := o.bundle.For(model.LangRU)
	var text string
	if count == 1 {
		text = tr.T("new_offer_notice", store.Name, title)
	} else {
		text = tr.T("new_offers_notice", store.Name, count)
	}
	if _, err := o.uc.Broadcast.NotifyCity(ctx, store.City, text, t.upd.UserID); err != nil {
		log.Warn().Err(err).Str("city", store.City).Msg("city notification failed")
	}
}

func draftFromSession(data map[string]string) usecase.OfferDraft {
	orig, _ := strconv.ParseInt(data["original_price"], 10, 64)
	disc, _ := strconv.ParseInt(data["discount_price"], 10, 64)
	qty, _ := strconv.Atoi(data["quantity"])
	return usecase.OfferDraft{
		StoreID:        data["store_id"],
		Title:          data["title"],
		PhotoID:        data["photo"],
		OriginalPrice:  orig,
		DiscountPrice:  disc,
		Quantity:       qty,
		Unit:           data["unit"],
		Category:       data["category"],
		AvailableUntil: parseUntilRFC3339(data["available_until"]),
	}
}

// bulkDraftsFromSession zips the line-per-item answers into drafts. The line
// counts were validated against the declared count step by step.
func bulkDraftsFromSession(data map[string]string) []usecase.OfferDraft {
	titles := strings.Split(data["titles"], "\n")
	origs := strings.Split(data["original_prices"], "\n")
	discs := strings.Split(data["discount_prices"], "\n")
	quantities := strings.Split(data["quantities"], "\n")
	untils := strings.Split(data["available_untils"], "\n")

	n := len(titles)
	drafts := make([]usecase.OfferDraft, 0, n)
	for i := 0; i < n; i++ {
		if i >= len(origs) || i >= len(discs) || i >= len(quantities) || i >= len(untils) {
			break
		}
		orig, _ := strconv.ParseInt(origs[i], 10, 64)
		disc, _ := strconv.ParseInt(discs[i], 10, 64)
		qty, _ := strconv.Atoi(quantities[i])
		drafts = append(drafts, usecase.OfferDraft{
			StoreID:        data["store_id"],
			Title:          titles[i],
			OriginalPrice:  orig,
			DiscountPrice:  disc,
			Quantity:       qty,
			Unit:           bulkDefaultUnit,
			AvailableUntil: parseUntilRFC3339(untils[i]),
		})
	}
	return drafts
}

// handleEditOfferMenu lists the seller's offers as buttons; the edit flow
// starts from the title tap, the second button pulls the offer from sale.
func (o *Orchestrator) handleEditOfferMenu(ctx context.Context, t *turn) error {
	stores, err := o.uc.Stores.ApprovedByOwner(ctx, t.user.ID)
	if err != nil {
		return err
	}
	var rows [][]adapter.InlineButton
	for _, s := range stores {
		offers, err := o.uc.Offers.ByStore(ctx, s.ID)
		if err != nil {
			return err
		}
		for _, of := range offers {
			if of.Status != model.OfferActive {
				continue
			}
			rows = append(rows, []adapter.InlineButton{
				{Text: of.Title, Data: "edit:" + of.ID},
				{Text: t.tr.T("btn_deactivate"), Data: "deact:" + of.ID},
			})
		}
	}
	if len(rows) == 0 {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("no_offers_to_edit"))
	}
	return o.bot.SendButtons(ctx, t.upd.UserID, t.tr.T("edit_pick_offer"), rows)
}

// handleDeactivateCallback pulls a seller's own offer from sale.
func (o *Orchestrator) handleDeactivateCallback(ctx context.Context, t *turn, offerID string) error {
	offer, err := o.uc.Offers.Get(ctx, offerID)
	if errors.Is(err, domain.ErrNotFound) {
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("offer_gone"))
	}
	if err != nil {
		return err
	}
	if err := o.uc.Offers.Deactivate(ctx, t.user.ID, offerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Someone else's offer ends up here only from a forged payload.
			return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("not_allowed"))
		}
		return err
	}
	_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
	return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("offer_deactivated", offer.Title))
}

func (o *Orchestrator) handleEditCallback(ctx context.Context, t *turn, offerID string) error {
	offer, err := o.uc.Offers.Get(ctx, offerID)
	if errors.Is(err, domain.ErrNotFound) {
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("offer_gone"))
	}
	if err != nil {
		return err
	}
	store, err := o.uc.Stores.Get(ctx, offer.StoreID)
	if errors.Is(err, domain.ErrNotFound) {
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("not_allowed"))
	}
	if err != nil {
		return err
	}
	if store.OwnerID != t.user.ID {
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("not_allowed"))
	}
	_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
	return o.startFlow(ctx, t, flow.EditOffer, map[string]string{"offer_id": offer.ID})
}

func (o *Orchestrator) commitEditOffer(ctx context.Context, t *turn) (string, error) {
	offer, err := o.uc.Offers.EditField(ctx, t.user.ID,
		t.sess.Value("offer_id"), t.sess.Value("field"), t.sess.Value("value"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("offer_gone")); serr != nil {
			return "", serr
		}
		return outcomeFailed, nil
	case errors.Is(err, domain.ErrInvalidArgument):
		if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("invalid_edit_value")); serr != nil {
			return "", serr
		}
		return outcomeRetry, nil
	case err != nil:
		return "", err
	}
	// The updated card is cosmetic, a vanished store must not fail the edit.
	storeName := ""
	if store, err := o.uc.Stores.Get(ctx, offer.StoreID); err == nil {
		storeName = store.Name
	}
	text := t.tr.T("offer_updated") + "\n" + formatOffer(t.tr, offer, storeName)
	if err := o.sendMainMenu(ctx, t, text); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

// handleBrowseOffers shows the active offers of the user's city with a book
// button per card.
func (o *Orchestrator) handleBrowseOffers(ctx context.Context, t *turn) error {
	offers, err := o.uc.Offers.ListActiveByCity(ctx, t.user.City, browseLimit, 0)
	if err != nil {
		return err
	}
	if len(offers) == 0 {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("no_offers_in_city", t.user.City))
	}
	storeNames := map[string]string{}
	for _, of := range offers {
		name, ok := storeNames[of.StoreID]
		if !ok {
			store, err := o.uc.Stores.Get(ctx, of.StoreID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if store != nil {
				name = store.Name
			}
			storeNames[of.StoreID] = name
		}
		rows := [][]adapter.InlineButton{{{Text: t.tr.T("btn_book"), Data: "book:" + of.ID}}}
		if err := o.bot.SendButtons(ctx, t.upd.UserID, formatOffer(t.tr, of, name), rows); err != nil {
			return err
		}
	}
	return nil
}
