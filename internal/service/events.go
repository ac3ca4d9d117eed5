package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/messaging"
)

// Event types.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	// EventOrderPlaced is emitted for orders submitted by customers.
	EventOrderPlaced = "order_placed"
)

// Event is published after every successful write.
type Event struct {
	Type          string    `json:"type"`
	Collection    string    `json:"collection"`
	ID            string    `json:"id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Client        string    `json:"client,omitempty"`
	Total         string    `json:"total,omitempty"`
	Manufacturing bool      `json:"manufacturing,omitempty"`
}

// Publisher sends events to the message bus. Failures are logged; a write
// that reached the spreadsheet is never rolled back because of them.
type Publisher struct {
	client  messaging.Client
	enabled bool
	logger  *zap.Logger
}

// NewPublisher wires a Publisher.
func NewPublisher(client messaging.Client, cfg config.Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		enabled: cfg.Messaging.Enabled,
		logger:  logger,
	}
}

// Publish emits ev keyed by collection and id.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil || !p.enabled || p.client == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	key := []byte(ev.Collection + "-" + ev.ID)
	if err := p.client.Publish(ctx, key, payload); err != nil {
		p.logger.Error("publish event",
			zap.String("type", ev.Type),
			zap.String("collection", ev.Collection),
			zap.String("id", ev.ID),
			zap.Error(err),
		)
	}
}
