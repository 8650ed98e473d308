package audit

import (
	"context"
	"log/slog"
)

// FanoutStore writes to a primary store and then mirrors successful appends
// to secondary sinks. Only primary failures are returned; sink failures are
// logged so a broker outage never rolls back the primary write.
type FanoutStore struct {
	primary Store
	sinks   []Store
	logger  *slog.Logger
}

func NewFanoutStore(primary Store, logger *slog.Logger, sinks ...Store) *FanoutStore {
	return &FanoutStore{primary: primary, sinks: sinks, logger: logger}
}

func (f *FanoutStore) Append(ctx context.Context, entry Entry) error {
	if err := f.primary.Append(ctx, entry); err != nil {
		return err
	}
	for _, sink := range f.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			f.logger.WarnContext(ctx, "audit sink append failed",
				"request_id", entry.RequestID,
				"action", entry.Action,
				"error", err,
			)
		}
	}
	return nil
}
