package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
	"reelsync/internal/infrastructure/monitoring"
	"reelsync/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Envelope is the bus wire format. InstanceID lets subscribers drop their
// own events (the originator already fanned out locally); ExcludeConn only
// matters on the originating instance, since that socket lives nowhere else.
type Envelope struct {
	InstanceID  string        `json:"instance_id"`
	RoomID      domain.RoomID `json:"room_id"`
	ExcludeConn domain.ConnID `json:"exclude_conn,omitempty"`
	Event       domain.Event  `json:"event"`
	Timestamp   time.Time     `json:"timestamp"`
}

// EventBus is the two-tier distribution layer: immediate local fan-out,
// then Redis pub/sub so every other instance hosting members of the room
// repeats the fan-out without exclusion.
type EventBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	local      ports.LocalFanout
	collector  *monitoring.PrometheusCollector
	retryCfg   retry.Config
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
}

func NewEventBus(
	client *redis.Client,
	channel string,
	instanceID string,
	local ports.LocalFanout,
	collector *monitoring.PrometheusCollector,
	retryCfg retry.Config,
	logger *zap.SugaredLogger,
) *EventBus {
	return &EventBus{
		client:     client,
		channel:    channel,
		instanceID: instanceID,
		local:      local,
		collector:  collector,
		retryCfg:   retryCfg,
		logger:     logger,
	}
}

// Publish delivers locally first (lower latency for co-located viewers,
// at the cost of a small double-delivery window at the origin), then
// forwards through the bus with bounded backoff.
func (b *EventBus) Publish(ctx context.Context, event domain.Event, exclude domain.ConnID) error {
	b.local.Fanout(event, exclude)
	b.collector.EventPublished(string(event.Type))

	env := Envelope{
		InstanceID:  b.instanceID,
		RoomID:      event.RoomID,
		ExcludeConn: exclude,
		Event:       event,
		Timestamp:   time.Now().UTC(),
	}
	data, err := json.Marshal(&env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = retry.Do(ctx, b.retryCfg, func() error {
		return b.client.Publish(ctx, b.channel, data).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.collector.BusEventForwarded()
	b.logger.Debugw("published event",
		"type", event.Type,
		"room_id", event.RoomID,
		"exclude_conn", exclude,
	)
	return nil
}

// Subscribe consumes bus envelopes until ctx is cancelled, fanning out
// events produced by other instances. No exclusion applies here: the
// originating connection lives only on the originating instance.
func (b *EventBus) Subscribe(ctx context.Context) error {
	if b.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	b.pubsub = b.client.Subscribe(ctx, b.channel)
	defer b.pubsub.Close()

	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warnw("failed to unmarshal envelope",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}
			if env.InstanceID == b.instanceID {
				continue
			}

			b.collector.BusEventReceived()
			b.local.Fanout(env.Event, env.ExcludeConn)
		}
	}
}

// Close stops the subscription.
func (b *EventBus) Close() error {
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
