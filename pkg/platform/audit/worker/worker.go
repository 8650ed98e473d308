package worker

import (
	"context"
	"log/slog"
	"time"

	audit "safedesk/pkg/platform/audit"
)

// drainTimeout bounds how long buffered entries are flushed after shutdown.
const drainTimeout = 5 * time.Second

// Worker consumes audit entries from a channel and persists them. Store
// failures are logged and the worker moves on to the next entry.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Entry
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Entry, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled, then flushes whatever is still buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case entry := <-w.inbox:
			w.append(ctx, entry)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case entry := <-w.inbox:
			w.append(ctx, entry)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, entry audit.Entry) {
	if err := w.store.Append(ctx, entry); err != nil {
		w.logger.ErrorContext(ctx, "failed to append audit entry",
			"request_id", entry.RequestID,
			"action", entry.Action,
			"error", err,
		)
	}
}
