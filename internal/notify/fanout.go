package notify

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultDeadline bounds how long a run waits for notifications.
const DefaultDeadline = 5 * time.Second

// DispatchReport describes what happened during one Dispatch.
type DispatchReport struct {
	Enabled   int
	Completed int
	Failed    int
	TimedOut  bool
}

// Fanout delivers a message to every enabled notifier concurrently and waits up to a deadline.
type Fanout struct{}

func NewFanout() *Fanout {
	return &Fanout{}
}

// Dispatch never fails. Notifier errors and panics are logged; sends still running at the
// deadline are left to finish on their own.
func (f *Fanout) Dispatch(ctx context.Context, msg models.NotificationMessage, notifiers []ports.Notifier, deadline time.Duration) DispatchReport {
	enabled := make([]ports.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil && n.IsEnabled() {
			enabled = append(enabled, n)
		}
	}

	report := DispatchReport{Enabled: len(enabled)}
	if len(enabled) == 0 {
		logger.Debug(ctx, "no notifier enabled")
		return report
	}

	// Sends outlive the wait, so they must not be cancelled with the caller.
	sendCtx := context.WithoutCancel(ctx)

	var completed, failed atomic.Int32
	var g errgroup.Group
	for _, n := range enabled {
		g.Go(func() error {
			if err := send(sendCtx, n, msg); err != nil {
				failed.Add(1)
				logger.Error(sendCtx, "notification failed", errors.ErrNotificationFailed.WithError(err), "notifier", n.Name())
			} else {
				logger.Info(sendCtx, "notification sent", "notifier", n.Name())
			}
			completed.Add(1)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		report.TimedOut = true
	case <-ctx.Done():
		report.TimedOut = true
	}

	report.Completed = int(completed.Load())
	report.Failed = int(failed.Load())

	if report.TimedOut {
		logger.Warn(ctx, "notification deadline reached",
			"enabled", report.Enabled, "completed", report.Completed, "deadline", deadline)
	} else {
		logger.Info(ctx, "notifications dispatched",
			"enabled", report.Enabled, "completed", report.Completed, "failed", report.Failed)
	}
	return report
}

func send(ctx context.Context, n ports.Notifier, msg models.NotificationMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return n.Send(ctx, msg)
}
