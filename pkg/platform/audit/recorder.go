package audit

import (
	"context"
	"log/slog"

	id "safedesk/pkg/domain"
	"safedesk/pkg/requestcontext"
)

const defaultBufferSize = 256

// Recorder accepts entries from request paths and hands them to a worker
// through a bounded buffer.
type Recorder struct {
	store  Store
	queue  chan Entry
	logger *slog.Logger
}

type RecorderOption func(*Recorder)

func WithBufferSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan Entry, n)
		}
	}
}

func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		queue:  make(chan Entry, defaultBufferSize),
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record enqueues entry for asynchronous persistence. It never blocks; when
// the buffer is full the entry is dropped and logged.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	entry = stamp(ctx, entry)
	select {
	case r.queue <- entry:
	default:
		r.logger.WarnContext(ctx, "audit buffer full, dropping entry",
			"request_id", entry.RequestID,
			"action", entry.Action,
		)
	}
}

// AppendSync persists entry immediately using ctx, joining any transaction
// it carries.
func (r *Recorder) AppendSync(ctx context.Context, entry Entry) error {
	return r.store.Append(ctx, stamp(ctx, entry))
}

// Entries is the channel drained by the audit worker.
func (r *Recorder) Entries() <-chan Entry {
	return r.queue
}

func stamp(ctx context.Context, entry Entry) Entry {
	if entry.ID == (id.AuditEntryID{}) {
		entry.ID = id.NewAuditEntryID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	return entry
}
