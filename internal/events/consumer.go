package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Handler reacts to one decoded event.
type Handler func(ctx context.Context, event *Event) error

// Consume drains messages until ctx is done or the channel closes, passing each
// decoded event to every handler. Handler errors are logged; every message is
// acked, since the in-process pub/sub redelivers nacked messages forever.
func Consume(ctx context.Context, messages <-chan *message.Message, logger *slog.Logger, handlers ...Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logger.Warn("Dropping undecodable event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}

			for _, h := range handlers {
				if err := h(ctx, &event); err != nil {
					logger.Error("Event handler failed", "event_id", event.ID, "event_type", event.Type, "error", err)
				}
			}
			msg.Ack()
		}
	}
}

// AuditLog writes every event to logger at info level.
func AuditLog(logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		logger.InfoContext(ctx, "Domain event",
			"event_id", event.ID,
			"event_type", event.Type,
			"timestamp", event.Timestamp,
			"data", event.Data)
		return nil
	}
}
