// Package jobs runs the periodic booking maintenance: completing finished
// stays, inviting guests to review them and settling bookings stuck in
// pending after a payment.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// BookingStore is the booking data the jobs need.
type BookingStore interface {
	CompleteFinished(ctx context.Context, cutoff time.Time) ([]model.Booking, error)
	FindUnreviewed(ctx context.Context, from, to time.Time) ([]model.Booking, error)
}

// Inviter sends review invitations and reminders.
type Inviter interface {
	InviteToReview(ctx context.Context, b *model.Booking)
	RemindToReview(ctx context.Context, b *model.Booking)
}

// Reconciler settles pending bookings created before cutoff.
type Reconciler interface {
	ReconcilePending(ctx context.Context, cutoff time.Time) (confirmed, cancelled int, err error)
}

// EventPublisher publishes booking lifecycle events.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev model.BookingEvent) error
}

// Config contains the job intervals.
type Config struct {
	CompletionInterval time.Duration
	ReminderInterval   time.Duration
	ReminderDelay      time.Duration
	ReconcileInterval  time.Duration
	// PendingTimeout is how long a booking may stay pending before the
	// reconciliation pass settles it.
	PendingTimeout time.Duration
}

// DefaultConfig returns the default job configuration.
func DefaultConfig() Config {
	return Config{
		CompletionInterval: time.Hour,
		ReminderInterval:   24 * time.Hour,
		ReminderDelay:      72 * time.Hour,
		ReconcileInterval:  5 * time.Minute,
		PendingTimeout:     3 * time.Minute,
	}
}

// Scheduler runs the booking jobs on tickers until stopped.
type Scheduler struct {
	bookings   BookingStore
	inviter    Inviter
	events     EventPublisher
	reconciler Reconciler
	cfg        Config
	now        func() time.Time
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewScheduler creates a Scheduler. events and reconciler may be nil; without
// a reconciler the pending sweep does not run.
func NewScheduler(bookings BookingStore, inviter Inviter, events EventPublisher, reconciler Reconciler, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.CompletionInterval <= 0 {
		cfg.CompletionInterval = def.CompletionInterval
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = def.ReminderInterval
	}
	if cfg.ReminderDelay <= 0 {
		cfg.ReminderDelay = def.ReminderDelay
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = def.ReconcileInterval
	}
	if cfg.PendingTimeout <= 0 {
		cfg.PendingTimeout = def.PendingTimeout
	}
	return &Scheduler{
		bookings:   bookings,
		inviter:    inviter,
		events:     events,
		reconciler: reconciler,
		cfg:        cfg,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Start launches the jobs. The completion and pending sweeps also run once
// immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.loop(ctx, "completion", s.cfg.CompletionInterval, true, s.runCompletion)
	go s.loop(ctx, "review_reminders", s.cfg.ReminderInterval, false, s.runReminders)
	if s.reconciler != nil {
		s.wg.Add(1)
		go s.loop(ctx, "pending_reconciliation", s.cfg.ReconcileInterval, true, s.runReconciliation)
	}
	log.Info().
		Dur("completion_interval", s.cfg.CompletionInterval).
		Dur("reminder_interval", s.cfg.ReminderInterval).
		Bool("reconciliation", s.reconciler != nil).
		Msg("booking jobs started")
}

// Stop stops the jobs and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	log.Info().Msg("booking jobs stopped")
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, immediate bool, run func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if immediate {
		run(ctx)
	}
	for {
		select {
		case <-ticker.C:
			run(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runCompletion(ctx context.Context) {
	if _, err := s.CompleteFinished(ctx); err != nil {
		log.Error().Err(err).Msg("completion sweep failed")
	}
}

func (s *Scheduler) runReminders(ctx context.Context) {
	if _, err := s.SendReminders(ctx); err != nil {
		log.Error().Err(err).Msg("review reminder pass failed")
	}
}

func (s *Scheduler) runReconciliation(ctx context.Context) {
	if _, _, err := s.ReconcilePending(ctx); err != nil {
		log.Error().Err(err).Msg("pending reconciliation failed")
	}
}

// ReconcilePending settles bookings that have been pending longer than
// PendingTimeout.
func (s *Scheduler) ReconcilePending(ctx context.Context) (confirmed, cancelled int, err error) {
	if s.reconciler == nil {
		return 0, 0, nil
	}
	return s.reconciler.ReconcilePending(ctx, s.now().Add(-s.cfg.PendingTimeout))
}

// CompleteFinished marks confirmed bookings whose stay has ended as
// completed, publishes the change and invites property guests to review.
// It returns the number of bookings completed.
func (s *Scheduler) CompleteFinished(ctx context.Context) (int, error) {
	now := s.now()
	completed, err := s.bookings.CompleteFinished(ctx, now)
	if err != nil {
		return 0, err
	}
	for i := range completed {
		b := &completed[i]
		if s.events != nil {
			if err := s.events.PublishBookingEvent(ctx, model.NewBookingEvent(model.BookingEventCompleted, b, now)); err != nil {
				log.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("failed to publish booking completion")
			}
		}
		if b.IsPropertyBooking() {
			s.inviter.InviteToReview(ctx, b)
		}
	}
	if len(completed) > 0 {
		log.Info().Int("count", len(completed)).Msg("bookings completed")
	}
	return len(completed), nil
}

// SendReminders reminds guests whose stay ended ReminderDelay ago, within
// the last reminder interval, and who have not reviewed it yet.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	to := s.now().Add(-s.cfg.ReminderDelay)
	from := to.Add(-s.cfg.ReminderInterval)
	pending, err := s.bookings.FindUnreviewed(ctx, from, to)
	if err != nil {
		return 0, err
	}
	for i := range pending {
		s.inviter.RemindToReview(ctx, &pending[i])
	}
	if len(pending) > 0 {
		log.Info().Int("count", len(pending)).Msg("review reminders sent")
	}
	return len(pending), nil
}
