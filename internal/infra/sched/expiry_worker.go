// Package sched holds the background tickers: periodic maintenance that is
// not driven by user traffic.
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/infra/metrics"
	"telegram-marketplace-bot/internal/usecase"
)

// ExpiryWorker periodically deactivates offers whose availability window has
// closed, so customers never see stale cards.
type ExpiryWorker struct {
	interval time.Duration
	offers   usecase.OfferUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, offers usecase.OfferUseCase, logger *zerolog.Logger) *ExpiryWorker {
	wlog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		offers:   offers,
		log:      &wlog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.offers.ExpireDue(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				metrics.AddOffersExpired(n)
				w.log.Info().Int("count", n).Msg("expired offers deactivated")
			}
		}
	}
}
