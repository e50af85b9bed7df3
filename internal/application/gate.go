package application

import (
	"context"
	"strings"

	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

// gate enforces registration before anything else. Unregistered users are
// funneled into the registration flow; the only escapes are /help and the
// language switch, so a user who cannot read the default language can still
// change it. Returns handled=true when the gate fully consumed the update.
func (o *Orchestrator) gate(ctx context.Context, t *turn) (bool, error) {
	if t.user.IsRegistered() {
		return false, nil
	}

	// Escapes come first so they keep working while registration is
	// underway, not just before it starts.
	switch {
	case t.upd.Kind == adapter.UpdateCommand && t.upd.Command == "help":
		return true, o.sendHelp(ctx, t)
	case t.upd.Kind == adapter.UpdateCommand && t.upd.Command == "language":
		return true, o.sendLanguageChoice(ctx, t)
	case t.upd.Kind == adapter.UpdateCallback && strings.HasPrefix(t.upd.Callback, "lang:"):
		return true, o.handleLanguageCallback(ctx, t)
	}

	// Mid-registration updates flow through to the router's advance path.
	if t.sess.Active() && t.sess.FlowName == flow.Registration {
		return false, nil
	}

	// Anything else (re)starts registration. Starting is idempotent: a stale
	// non-registration session is discarded, a fresh one is seeded from what
	// we already know about the user.
	if t.sess.Active() {
		o.abandonFlow(t, "switched")
	}
	if t.upd.Kind == adapter.UpdateCallback {
		_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
	}
	if err := o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("welcome", t.user.FirstName)); err != nil {
		return true, err
	}
	seed := map[string]string{}
	if t.user.Phone != "" {
		seed["phone"] = t.user.Phone
	}
	return true, o.startFlow(ctx, t, flow.Registration, seed)
}
