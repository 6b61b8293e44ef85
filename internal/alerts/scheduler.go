package alerts

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/rmachado/gestor/internal/storage"
)

// defaultCronHour is the hour of day the daily run fires at when the
// cron_hour setting is absent or unusable.
const defaultCronHour = 8

// Scheduler runs the daily alert job: once per day at the configured
// hour, classify pending payments and email the report.
type Scheduler struct {
	store      storage.Store
	classifier *Classifier
	sender     Sender
	now        func() time.Time
}

// NewScheduler wires a daily scheduler over the store and sender.
func NewScheduler(store storage.Store, sender Sender) *Scheduler {
	return &Scheduler{
		store:      store,
		classifier: NewClassifier(store),
		sender:     sender,
		now:        time.Now,
	}
}

// Run blocks until ctx is cancelled, firing RunOnce at the configured
// cron_hour each day. The hour is re-read before every sleep so setting
// changes take effect without a restart.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFire(ctx)
		slog.Info("alert run scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("alert scheduler stopped")
			return
		case <-timer.C:
		}

		if err := s.RunOnce(ctx); err != nil {
			slog.Error("alert run failed", "error", err)
		}
	}
}

// RunOnce performs one classification-and-notify cycle. A missing
// recipient or an empty report skips the send; a send failure is logged
// by the caller and never retried.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	recipient, err := s.store.GetSetting(ctx, storage.SettingAlertsEmail, "")
	if err != nil {
		return err
	}
	if recipient == "" {
		slog.Debug("alerts skipped, no recipient configured")
		return nil
	}

	report, err := s.classifier.Gather(ctx, s.now())
	if err != nil {
		return err
	}
	if report.Empty() {
		slog.Info("no pending payments, alert email skipped")
		return nil
	}

	body, err := RenderEmail(report)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, recipient, emailSubject, body); err != nil {
		return err
	}

	slog.Info("alert email sent",
		"to", recipient,
		"overdue", len(report.Overdue),
		"today", len(report.Today),
		"next7", len(report.Next7),
	)
	return nil
}

// nextFire returns the next occurrence of the configured hour: today if
// it is still ahead, otherwise tomorrow.
func (s *Scheduler) nextFire(ctx context.Context) time.Time {
	hour := defaultCronHour
	if raw, err := s.store.GetSetting(ctx, storage.SettingCronHour, strconv.Itoa(defaultCronHour)); err == nil {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 23 {
			hour = n
		}
	}

	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
