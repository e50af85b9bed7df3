// Package application orchestrates one conversational turn: it gates access,
// resolves the user's session, drives the active flow or dispatches the
// update to a menu action, and persists the resulting session exactly once.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/flow"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
	"telegram-marketplace-bot/internal/infra/redis"
	"telegram-marketplace-bot/internal/usecase"
)

const (
	// turnLockTTL bounds how long a wedged turn can block a user.
	turnLockTTL = 10 * time.Second
	// maxRetries is how many rejected inputs we tolerate before suggesting
	// /cancel alongside the correction message.
	maxRetries = 3

	rateLimitWindow = time.Minute
)

// Locker serializes turns per user so two racing updates cannot both commit
// the same flow.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// Limiter throttles inbound updates per user.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// UseCases bundles the domain operations the orchestrator dispatches into.
type UseCases struct {
	Users     usecase.UserUseCase
	Stores    usecase.StoreUseCase
	Offers    usecase.OfferUseCase
	Bookings  usecase.BookingUseCase
	Stats     usecase.StatsUseCase
	Broadcast usecase.BroadcastUseCase
}

type Orchestrator struct {
	flows    *flow.Registry
	sessions repository.SessionRepository
	locker   Locker
	limiter  Limiter
	bot      adapter.TelegramBotAdapter
	bundle   *i18n.Bundle
	uc       UseCases

	adminIDs  map[int64]struct{}
	rateLimit int // updates per user per minute, 0 disables
	logger    *zerolog.Logger
}

func NewOrchestrator(
	flows *flow.Registry,
	sessions repository.SessionRepository,
	locker Locker,
	limiter Limiter,
	bot adapter.TelegramBotAdapter,
	bundle *i18n.Bundle,
	uc UseCases,
	adminIDs []int64,
	rateLimit int,
	logger *zerolog.Logger,
) *Orchestrator {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Orchestrator{
		flows:     flows,
		sessions:  sessions,
		locker:    locker,
		limiter:   limiter,
		bot:       bot,
		bundle:    bundle,
		uc:        uc,
		adminIDs:  admins,
		rateLimit: rateLimit,
		logger:    logger,
	}
}

// turn carries the state of one update through gating, routing and the final
// session write. The session is read once at the start; save/clear record the
// single write performed at the end.
type turn struct {
	upd  adapter.Update
	user *model.User
	sess *repository.Session
	tr   *i18n.Translator

	save  bool
	clear bool
}

// HandleUpdate processes a single inbound update end to end. It is safe to
// call concurrently for different users; updates of one user serialize on the
// turn lock.
func (o *Orchestrator) HandleUpdate(ctx context.Context, upd adapter.Update) error {
	started := time.Now()
	defer func() {
		metrics.ObserveTurnLatency(float64(time.Since(started).Milliseconds()))
	}()

	ctx = logging.WithTgID(ctx, upd.UserID)
	log := logging.With(ctx, o.logger)

	metrics.IncTelegramUpdate(kindLabel(upd.Kind))
	if upd.Kind == adapter.UpdateCommand {
		metrics.IncTelegramCommand(upd.Command)
	}

	if o.rateLimit > 0 && o.limiter != nil {
		allowed, err := o.limiter.Allow(ctx, redis.UserUpdateKey(upd.UserID), o.rateLimit, rateLimitWindow)
		if err != nil {
			// Degrade open: a throttling outage must not take the bot down.
			log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return nil
		}
	}

	user, err := o.uc.Users.RegisterOrFetch(ctx, upd.UserID, upd.Username, upd.FirstName)
	if err != nil {
		return err
	}
	user.Role = o.effectiveRole(user)

	lockKey := redis.TurnKey(upd.UserID)
	token, err := o.locker.TryLock(ctx, lockKey, turnLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrCollaborator) {
			// A previous update of the same user is still being processed.
			log.Debug().Msg("turn dropped, previous turn still running")
			if upd.Kind == adapter.UpdateCallback {
				_ = o.bot.AnswerCallback(ctx, upd.CallbackID, "")
			}
			return nil
		}
		return err
	}
	defer func() {
		if uerr := o.locker.Unlock(ctx, lockKey, token); uerr != nil {
			log.Warn().Err(uerr).Msg("turn unlock failed")
		}
	}()

	sess, err := o.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return err
	}

	t := &turn{upd: upd, user: user, sess: sess, tr: o.bundle.For(user.Language)}
	if sess.Active() {
		ctx = logging.WithFlow(ctx, string(sess.FlowName))
	}

	handled, err := o.gate(ctx, t)
	if err != nil {
		return err
	}
	if !handled {
		if err := o.route(ctx, t); err != nil {
			return err
		}
	}
	return o.finish(ctx, t)
}

// finish performs the turn's single session write.
func (o *Orchestrator) finish(ctx context.Context, t *turn) error {
	switch {
	case t.clear:
		return o.sessions.Clear(ctx, t.upd.UserID)
	case t.save:
		return o.sessions.Put(ctx, t.upd.UserID, t.sess)
	}
	return nil
}

// effectiveRole overlays the configured admin list on the stored role. Admins
// are configuration, not data: removing an id from the config demotes
// immediately.
func (o *Orchestrator) effectiveRole(user *model.User) model.Role {
	if _, ok := o.adminIDs[user.TelegramID]; ok {
		return model.RoleAdmin
	}
	if user.Role == model.RoleAdmin {
		return model.RoleCustomer
	}
	return user.Role
}

// startFlow seeds a fresh session for the named flow and prompts its entry
// step. Seeding data lets definitions skip steps that are already answered.
func (o *Orchestrator) startFlow(ctx context.Context, t *turn, name flow.Name, seed map[string]string) error {
	def, ok := o.flows.Get(name)
	if !ok {
		return domain.ErrFlowConfig
	}
	data := seed
	if data == nil {
		data = map[string]string{}
	}
	entry, ok := def.EntryStep(data)
	if !ok {
		return domain.ErrFlowConfig
	}
	t.sess = &repository.Session{FlowName: name, StepIndex: entry, Data: data}
	t.save = true
	t.clear = false
	metrics.IncFlowStarted(string(name))
	return o.promptStep(ctx, t, def, entry)
}

// abandonFlow ends the active flow without committing, discarding collected
// data.
func (o *Orchestrator) abandonFlow(t *turn, outcome string) {
	if t.sess.Active() {
		metrics.IncFlowFinished(string(t.sess.FlowName), outcome)
	}
	t.sess = nil
	t.save = false
	t.clear = true
}

func kindLabel(k adapter.UpdateKind) string {
	switch k {
	case adapter.UpdateCommand:
		return "command"
	case adapter.UpdateText:
		return "text"
	case adapter.UpdateContact:
		return "contact"
	case adapter.UpdatePhoto:
		return "photo"
	case adapter.UpdateCallback:
		return "callback"
	}
	return "unknown"
}
