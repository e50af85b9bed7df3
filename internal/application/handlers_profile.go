package application

import (
	"context"
	"errors"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/infra/metrics"
)

func (o *Orchestrator) commitRegistration(ctx context.Context, t *turn) (string, error) {
	user, err := o.uc.Users.CompleteRegistration(ctx, t.upd.UserID, t.sess.Value("phone"), t.sess.Value("city"))
	if err != nil {
		return "", err
	}
	user.Role = o.effectiveRole(user)
	t.user = user
	metrics.IncUsersRegistered()
	if err := o.sendMainMenu(ctx, t, t.tr.T("registration_done", user.City)); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

func (o *Orchestrator) commitChangeCity(ctx context.Context, t *turn) (string, error) {
	city := t.sess.Value("city")
	if err := o.uc.Users.SetCity(ctx, t.upd.UserID, city); err != nil {
		return "", err
	}
	t.user.City = city
	if err := o.sendMainMenu(ctx, t, t.tr.T("city_changed", city)); err != nil {
		return "", err
	}
	return outcomeCompleted, nil
}

func (o *Orchestrator) handleLanguageCallback(ctx context.Context, t *turn) error {
	_, code := splitCallback(t.upd.Callback)
	if err := o.uc.Users.SetLanguage(ctx, t.upd.UserID, code); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")
			return nil
		}
		return err
	}
	t.user.Language = code
	t.tr = o.bundle.For(code)
	_ = o.bot.AnswerCallback(ctx, t.upd.CallbackID, "")

	// Mid-flow switches re-prompt the current step in the new language.
	if t.sess.Active() {
		if def, ok := o.flows.Get(t.sess.FlowName); ok {
			return o.promptStep(ctx, t, def, t.sess.StepIndex)
		}
		return nil
	}
	if !t.user.IsRegistered() {
		return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T("language_changed"))
	}
	return o.sendMainMenu(ctx, t, t.tr.T("language_changed"))
}

func (o *Orchestrator) handleToggleNotifications(ctx context.Context, t *turn) error {
	enabled, err := o.uc.Users.ToggleNotifications(ctx, t.upd.UserID)
	if err != nil {
		return err
	}
	key := "notifications_off"
	if enabled {
		key = "notifications_on"
	}
	return o.bot.SendMessage(ctx, t.upd.UserID, t.tr.T(key))
}
