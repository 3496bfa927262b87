package workers

import (
	"context"
	"log/slog"
	"time"

	"event-chat/contract"
	"event-chat/observability"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker logs a monitoring snapshot at a fixed interval so the
// platform leaves a usable trace even when nobody watches /api/stats.
type TelemetryWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, monitor *observability.Monitor,
	interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, monitor: monitor, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := w.monitor.Snapshot()
			w.log.Info("Telemetry",
				"sessions_open", stats.SessionsOpen,
				"joins_total", stats.JoinsTotal,
				"messages_posted", stats.MessagesPosted,
				"messages_rejected", stats.MessagesRejected,
				"events_dropped", stats.EventsDropped,
				"alloc_mem_mb", stats.AllocMemMb,
				"cpu_percent", stats.CPUPercent,
			)
		}
	}
}
