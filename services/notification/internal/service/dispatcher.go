package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/avazquez/FulfillmentGo/pkg/pagination"
)

// Dispatcher periodically drains the due-notification queue.
type Dispatcher struct {
	service  *NotificationService
	interval time.Duration
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher that runs a delivery pass every interval.
func NewDispatcher(service *NotificationService, interval time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks, processing due notifications on every tick until the context is
// canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("notification dispatcher started", slog.Duration("interval", d.interval))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return ctx.Err()
		case <-ticker.C:
			sent, err := d.service.ProcessDue(ctx, pagination.Params{Take: dueBatchSize})
			if err != nil && ctx.Err() == nil {
				d.logger.Error("dispatch pass failed", slog.String("error", err.Error()))
				continue
			}
			if sent > 0 {
				d.logger.Info("dispatch pass complete", slog.Int("sent", sent))
			}
		}
	}
}
