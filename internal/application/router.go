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
	"telegram-marketplace-bot/internal/infra/metrics"
)

// route decides what a turn means: cancel beats the active flow, the active
// flow beats menu interpretation, and only then do free callbacks and menu
// taps get dispatched.
func (o *Orchestrator) route(ctx context.Context, t *turn) error {
	if t.upd.Kind == adapter.UpdateCommand && commandActions[t.upd.Command] == ActionCancel {
		return o.handleCancel(ctx, t)
	}

	// A language tap works everywhere, including mid-flow, where advance
	// would otherwise treat it as the step's answer.
	if t.upd.Kind == adapter.UpdateCallback && strings.HasPrefix(t.upd.Callback, "lang:") {
		return o.handleLanguageCallback(ctx, t)
	}

	if t.sess.Active() {
		def, ok := o.flows.Get(t.sess.FlowName)
		if !ok {
			// A session referencing a flow this build no longer knows.
			o.abandonFlow(t, "error")
			return o.sendMainMenu(ctx, t, t.tr.T("flow_expired"))
		}
		if t.upd.Kind == adapter.UpdateCommand {
			return o.commandDuringFlow(ctx, t, def)
		}
		return o.advance(ctx, t, def)
	}

	switch t.upd.Kind {
	case adapter.UpdateCommand:
		if action, ok := commandActions[t.upd.Command]; ok {
			return o.dispatchAction(ctx, t, action)
		}
		return o.sendUnrecognized(ctx, t)
	case adapter.UpdateText:
		if action, ok := o.menuActionFromText(t); ok {
			return o.dispatchAction(ctx, t, action)
		}
		return o.sendUnrecognized(ctx, t)
	case adapter.UpdateCallback:
		return o.dispatchCallback(ctx, t)
	default:
		return o.sendUnrecognized(ctx, t)
	}
}

// commandDuringFlow lets commands escape an active flow, discarding collected
// data. Registration is the exception: it must finish, the gate already
// consumed its /help and /language escapes.
func (o *Orchestrator) commandDuringFlow(ctx context.Context, t *turn, def *flow.Definition) error {
	if def.Name == flow.Registration {
		if err := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("finish_registration_first")); err != nil {
			return err
		}
		return o.promptStep(ctx, t, def, t.sess.StepIndex)
	}
	action, ok := commandActions[t.upd.Command]
	if !ok {
		return o.sendUnrecognized(ctx, t)
	}
	// The role check happens before the flow is given up. A refused command
	// must not cost the answers collected so far.
	if !allowedFor(action, t.user.Role) {
		if err := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("not_allowed")); err != nil {
			return err
		}
		return o.promptStep(ctx, t, def, t.sess.StepIndex)
	}
	o.abandonFlow(t, "switched")
	return o.dispatchAction(ctx, t, action)
}

func (o *Orchestrator) handleCancel(ctx context.Context, t *turn) error {
	if !t.sess.Active() {
		return o.sendMainMenu(ctx, t, t.tr.T("nothing_to_cancel"))
	}
	if t.sess.FlowName == flow.Registration {
		def, _ := o.flows.Get(flow.Registration)
		if err := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("finish_registration_first")); err != nil {
			return err
		}
		return o.promptStep(ctx, t, def, t.sess.StepIndex)
	}
	o.abandonFlow(t, "cancelled")
	return o.sendMainMenu(ctx, t, t.tr.T("flow_cancelled"))
}

// advance feeds the update into the current step of the active flow.
func (o *Orchestrator) advance(ctx context.Context, t *turn, def *flow.Definition) error {
	step, ok := def.StepAt(t.sess.StepIndex)
	if !ok {
		o.abandonFlow(t, "error")
		return o.sendMainMenu(ctx, t, t.tr.T("flow_expired"))
	}

	if t.upd.Kind == adapter.UpdateCallback {
		_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
	}

	got := inputKindOf(t.upd)
	if !step.Input.Accepts(got) {
		// A wrong-kind text can still be a menu tap when the flow allows it.
		if def.MenuFallback && t.upd.Kind == adapter.UpdateText {
			if action, ok := o.menuActionFromText(t); ok {
				o.abandonFlow(t, "switched")
				return o.dispatchAction(ctx, t, action)
			}
		}
		return o.rejectInput(ctx, t, def, step, flow.Invalid(wrongInputKey(step.Input)))
	}

	value, err := step.Validate(inputPayload(t.upd, got), t.sess.Data)
	if err != nil {
		var ve *flow.ValidationError
		if errors.As(err, &ve) {
			if def.MenuFallback && t.upd.Kind == adapter.UpdateText {
				if action, ok := o.menuActionFromText(t); ok {
					o.abandonFlow(t, "switched")
					return o.dispatchAction(ctx, t, action)
				}
			}
			return o.rejectInput(ctx, t, def, step, err)
		}
		return err
	}

	if ve := crossCheck(def, step, value, t.sess.Data); ve != nil {
		return o.rejectInput(ctx, t, def, step, ve)
	}

	t.sess.Set(step.Field, value)
	t.sess.Retries = 0
	if err := o.afterStep(ctx, t, def, step); err != nil {
		return err
	}

	next, done := def.Resolve(t.sess.StepIndex, t.sess.Data)
	if done {
		return o.commit(ctx, t, def)
	}
	t.sess.StepIndex = next
	t.save = true
	return o.promptStep(ctx, t, def, next)
}

// rejectInput keeps the session where it is, counts the failure and sends
// the correction message. After repeated failures the message carries a
// cancel hint, except in registration which cannot be cancelled.
func (o *Orchestrator) rejectInput(ctx context.Context, t *turn, def *flow.Definition, step *flow.Step, err error) error {
	var ve *flow.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	t.sess.Retries++
	t.save = true
	metrics.IncFlowValidationFailure(string(def.Name), step.Name)
	msg := t.tr.T(ve.Key, ve.Args...)
	if t.sess.Retries >= maxRetries && def.Name != flow.Registration {
		msg += "\n" + t.tr.T("cancel_hint")
	}
	return o.bot.SendMessage(ctx, t.upd.UserID, msg)
}

// afterStep loads reference data that later steps or the commit depend on.
// Validators are pure, so lookups keyed by a validated choice happen here.
func (o *Orchestrator) afterStep(ctx context.Context, t *turn, def *flow.Definition, step *flow.Step) error {
	switch def.Name {
	case flow.CreateOffer, flow.BulkCreate:
		if step.Field == "store_id" {
			store, err := o.uc.Stores.Get(ctx, t.sess.Value("store_id"))
			if err != nil {
				return err
			}
			t.sess.Set("store_category", store.Category)
		}
	}
	return nil
}

// Commit outcomes. retry keeps the session so the user can answer the last
// step again; failed ends the flow after a specific message the commit
// handler already sent.
const (
	outcomeCompleted = "completed"
	outcomeRetry     = "retry"
	outcomeFailed    = "failed"
)

// commit runs the flow's terminal action.
func (o *Orchestrator) commit(ctx context.Context, t *turn, def *flow.Definition) error {
	var (
		outcome string
		err     error
	)
	switch def.Name {
	case flow.Registration:
		outcome, err = o.commitRegistration(ctx, t)
	case flow.RegisterStore:
		outcome, err = o.commitRegisterStore(ctx, t)
	case flow.CreateOffer:
		outcome, err = o.commitCreateOffer(ctx, t)
	case flow.BulkCreate:
		outcome, err = o.commitBulkCreate(ctx, t)
	case flow.ChangeCity:
		outcome, err = o.commitChangeCity(ctx, t)
	case flow.EditOffer:
		outcome, err = o.commitEditOffer(ctx, t)
	case flow.ConfirmOrder:
		outcome, err = o.commitConfirmOrder(ctx, t)
	case flow.BookOffer:
		outcome, err = o.commitBookOffer(ctx, t)
	default:
		err = domain.ErrFlowConfig
	}
	if err != nil {
		o.abandonFlow(t, "error")
		_ = o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("something_wrong"))
		return err
	}
	switch outcome {
	case outcomeRetry:
		t.save = true
		return nil
	case outcomeFailed:
		o.abandonFlow(t, "error")
		return nil
	}
	metrics.IncFlowFinished(string(def.Name), outcomeCompleted)
	t.sess = nil
	t.save = false
	t.clear = true
	return nil
}

// crossCheck covers constraints a single step's validator cannot see, like
// comparing the bulk discount lines against the original prices collected in
// the previous step.
func crossCheck(def *flow.Definition, step *flow.Step, value string, data map[string]string) error {
	if def.Name != flow.BulkCreate || step.Field != "discount_prices" {
		return nil
	}
	origs := strings.Split(data["original_prices"], "\n")
	discs := strings.Split(value, "\n")
	for i := 0; i < len(discs) && i < len(origs); i++ {
		orig, _ := strconv.ParseInt(origs[i], 10, 64)
		disc, _ := strconv.ParseInt(discs[i], 10, 64)
		if orig > 0 && disc >= orig {
			return flow.Invalid("discount_not_lower_line", i+1)
		}
	}
	return nil
}

// dispatchAction runs a menu action for a user with no active flow (or one
// who just escaped it).
func (o *Orchestrator) dispatchAction(ctx context.Context, t *turn, action Action) error {
	if !allowedFor(action, t.user.Role) {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("not_allowed"))
	}
	switch action {
	case ActionStart:
		return o.sendMainMenu(ctx, t, t.tr.T("main_menu", t.user.FirstName))
	case ActionHelp:
		return o.sendHelp(ctx, t)
	case ActionCancel:
		return o.handleCancel(ctx, t)
	case ActionOffers:
		return o.handleBrowseOffers(ctx, t)
	case ActionMyBookings:
		return o.handleMyBookings(ctx, t)
	case ActionChangeCity:
		return o.startFlow(ctx, t, flow.ChangeCity, nil)
	case ActionRegisterStore:
		return o.handleRegisterStore(ctx, t)
	case ActionMyStore:
		return o.handleMyStore(ctx, t)
	case ActionCreateOffer:
		return o.handleStartOfferFlow(ctx, t, flow.CreateOffer)
	case ActionBulkCreate:
		return o.handleStartOfferFlow(ctx, t, flow.BulkCreate)
	case ActionEditOffer:
		return o.handleEditOfferMenu(ctx, t)
	case ActionConfirmOrder:
		return o.startFlow(ctx, t, flow.ConfirmOrder, nil)
	case ActionStats:
		return o.handleStats(ctx, t)
	case ActionPending:
		return o.handlePendingStores(ctx, t)
	case ActionBroadcast:
		return o.handleBroadcast(ctx, t)
	case ActionLanguage:
		return o.sendLanguageChoice(ctx, t)
	case ActionNotifications:
		return o.handleToggleNotifications(ctx, t)
	}
	return o.sendUnrecognized(ctx, t)
}

// dispatchCallback handles inline-button taps outside any flow. Payloads are
// "<verb>:<id>"; bare payloads only mean something inside a flow step.
func (o *Orchestrator) dispatchCallback(ctx context.Context, t *turn) error {
	verb, arg := splitCallback(t.upd.Callback)
	switch verb {
	case "book":
		return o.handleBookCallback(ctx, t, arg)
	case "edit":
		return o.handleEditCallback(ctx, t, arg)
	case "deact":
		return o.handleDeactivateCallback(ctx, t, arg)
	case "approve":
		return o.handleModerationCallback(ctx, t, arg, true)
	case "reject":
		return o.handleModerationCallback(ctx, t, arg, false)
	case "cancelbk":
		return o.handleCancelBookingCallback(ctx, t, arg)
	}
	_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
	return nil
}

func splitCallback(data string) (verb, arg string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

// menuActionFromText matches free text against the user's localized menu
// labels, in both languages so a stale keyboard keeps working after a
// language switch.
func (o *Orchestrator) menuActionFromText(t *turn) (Action, bool) {
	text := strings.TrimSpace(t.upd.Text)
	if text == "" {
		return "", false
	}
	menu := ResolveMenu(t.user.Role)
	for _, lang := range []string{t.user.Language, model.LangRU, model.LangUZ} {
		tr := o.bundle.For(lang)
		for _, row := range menu.Rows {
			for _, item := range row {
				if tr.T(item.LabelKey) == text {
					return item.Action, true
				}
			}
		}
	}
	return "", false
}

func inputKindOf(upd adapter.Update) flow.InputKind {
	switch upd.Kind {
	case adapter.UpdateText:
		return flow.InputText
	case adapter.UpdateContact:
		return flow.InputContact
	case adapter.UpdatePhoto:
		return flow.InputPhoto
	case adapter.UpdateCallback:
		return flow.InputCallback
	}
	return flow.InputKind("")
}

func inputPayload(upd adapter.Update, got flow.InputKind) string {
	switch got {
	case flow.InputContact:
		return upd.Phone
	case flow.InputPhoto:
		return upd.PhotoID
	case flow.InputCallback:
		return upd.Callback
	default:
		return upd.Text
	}
}

func wrongInputKey(expected flow.InputKind) string {
	switch expected {
	case flow.InputContact:
		return "expected_contact"
	case flow.InputPhoto:
		return "expected_photo"
	case flow.InputCallback:
		return "expected_button"
	default:
		return "expected_text"
	}
}
