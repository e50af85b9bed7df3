package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
)

// handleBookCallback starts the booking flow from an offer card tap.
func (o *Orchestrator) handleBookCallback(ctx context.Context, t *turn, offerID string) error {
	offer, err := o.uc.Offers.Get(ctx, offerID)
	if errors.Is(err, domain.ErrNotFound) {
		// Stale card, the offer is already gone.
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("offer_unavailable"))
	}
	if err != nil {
		return err
	}
	if !offer.Bookable(time.Now()) {
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("offer_unavailable"))
	}
	_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
	if offer.PhotoID != "" {
		if err := o.bot.SendPhoto(ctx, t.upd.UserID, offer.PhotoID, offer.Title); err != nil {
			metrics.IncSendFailure()
		}
	}
	seed := map[string]string{
		"offer_id":     offer.ID,
		"max_quantity": strconv.Itoa(offer.Quantity),
	}
	return o.startFlow(ctx, t, flow.BookOffer, seed)
}

func (o *Orchestrator) commitBookOffer(ctx context.Context, t *turn) (string, error) {
	qty, _ := strconv.Atoi(t.sess.Value("quantity"))
	offerID := t.sess.Value("offer_id")
	booking, err := o.uc.Bookings.Book(ctx, t.user.ID, offerID, qty)
	switch {
	case errors.Is(err, domain.ErrNotEnoughQuantity):
		// Someone else booked in between; refresh the cap and let the user
		// answer the quantity step again.
		remaining := 0
		if offer, gerr := o.uc.Offers.Get(ctx, offerID); gerr == nil {
			remaining = offer.Quantity
		}
		t.sess.Set("max_quantity", strconv.Itoa(remaining))
		if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("quantity_exceeds_available", remaining)); serr != nil {
			return "", serr
		}
		return outcomeRetry, nil
	case errors.Is(err, domain.ErrOfferInactive), errors.Is(err, domain.ErrNotFound):
		if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("offer_unavailable")); serr != nil {
			return "", serr
		}
		return outcomeFailed, nil
	case err != nil:
		return "", err
	}
	metrics.IncBooking(string(model.BookingPending))

	offer, store := o.bookingContext(ctx, booking)
	text := t.tr.T("booking_created", booking.Code)
	if offer != nil {
		text = t.tr.T("booking_created_full", offer.Title, booking.Quantity, offer.Unit, booking.Code)
	}
	if store != nil {
		text += "\n" + t.tr.T("booking_pickup", store.Name, store.Address)
	}
	o.notifySeller(ctx, store, "new_booking_notice", offer, booking)
	if err := o.sendMainMenu(ctx, t, text); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

func (o *Orchestrator) commitConfirmOrder(ctx context.Context, t *turn) (string, error) {
	code := t.sess.Value("code")
	booking, err := o.uc.Bookings.ConfirmByCode(ctx, t.user.ID, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Possibly a typo, the code step stays open.
		if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("booking_not_found")); serr != nil {
			return "", serr
		}
		return outcomeRetry, nil
	case errors.Is(err, domain.ErrBookingFinalized):
		if serr := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("booking_already_final")); serr != nil {
			return "", serr
		}
		return outcomeFailed, nil
	case err != nil:
		return "", err
	}
	metrics.IncBooking(string(model.BookingCompleted))

	offer, _ := o.bookingContext(ctx, booking)
	o.notifyCustomer(ctx, booking, offer)
	title := ""
	if offer != nil {
		title = offer.Title
	}
	if err := o.sendMainMenu(ctx, t, t.tr.T("booking_confirmed", title, booking.Quantity)); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

func (o *Orchestrator) handleMyBookings(ctx context.Context, t *turn) error {
	bookings, err := o.uc.Bookings.ByUser(ctx, t.user.ID)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("no_bookings"))
	}
	if len(bookings) > browseLimit {
		bookings = bookings[:browseLimit]
	}
	for _, bk := range bookings {
		offer, err := o.uc.Offers.Get(ctx, bk.OfferID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		text := formatBooking(t.tr, bk, offer)
		if bk.Status == model.BookingPending {
			rows := [][]adapter.InlineButton{{
				{Text: t.tr.T("btn_cancel_booking"), Data: "cancelbk:" + bk.ID},
			}}
			if err := o.bot.SendButtons(ctx, t.upd.UserID, text, rows); err != nil {
				return err
			}
			continue
		}
		if err := o.bot.SendMessage(ctx, t.upd.UserID, text); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) handleCancelBookingCallback(ctx context.Context, t *turn, bookingID string) error {
	booking, err := o.uc.Bookings.Cancel(ctx, t.user.ID, bookingID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("booking_not_found"))
	case errors.Is(err, domain.ErrBookingFinalized):
		return o.bot.AnswerCallback(ctx, t.upd.CallbackID, t.tr.T("booking_already_final"))
	case err != nil:
		return err
	}
	metrics.IncBooking(string(model.BookingCancelled))
	_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")

	offer, store := o.bookingContext(ctx, booking)
	o.notifySeller(ctx, store, "booking_cancelled_notice", offer, booking)
	return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("booking_cancelled"))
}

// bookingContext resolves the offer and store behind a booking, best effort.
func (o *Orchestrator) bookingContext(ctx context.Context, bk *model.Booking) (*model.Offer, *model.Store) {
	offer, err := o.uc.Offers.Get(ctx, bk.OfferID)
	if err != nil {
		return nil, nil
	}
	store, err := o.uc.Stores.Get(ctx, offer.StoreID)
	if err != nil {
		return offer, nil
	}
	return offer, store
}

func (o *Orchestrator) notifySeller(ctx context.Context, store *model.Store, key string, offer *model.Offer, bk *model.Booking) {
	if store == nil {
		return
	}
	log := logging.With(ctx, o.logger)
	owner, err := o.uc.Users.GetByID(ctx, store.OwnerID)
	if err != nil || owner == nil {
		log.Warn().Err(err).Str("store_id", store.ID).Msg("seller lookup failed")
		return
	}
	title := bk.OfferID
	if offer != nil {
		title = offer.Title
	}
	tr := o.bundle.For(owner.Language)
	if err := o.bot.SendMessage(ctx, owner.TelegramID, tr.T(key, title, bk.Quantity, bk.Code)); err != nil {
		metrics.IncSendFailure()
		log.Warn().Err(err).Int64("tg_id", owner.TelegramID).Msg("seller notification failed")
	}
}

func (o *Orchestrator) notifyCustomer(ctx context.Context, bk *model.Booking, offer *model.Offer) {
	log := logging.With(ctx, o.logger)
	customer, err := o.uc.Users.GetByID(ctx, bk.UserID)
	if err != nil || customer == nil {
		log.Warn().Err(err).Str("booking_id", bk.ID).Msg("customer lookup failed")
		return
	}
	title := bk.OfferID
	if offer != nil {
		title = offer.Title
	}
	tr := o.bundle.For(customer.Language)
	if err := o.bot.SendMessage(ctx, customer.TelegramID, tr.T("booking_picked_up", title)); err != nil {
		metrics.IncSendFailure()
		log.Warn().Err(err).Int64("tg_id", customer.TelegramID).Msg("customer notification failed")
	}
}
