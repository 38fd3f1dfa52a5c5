package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"idportal/internal/middleware"
	"idportal/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// EventsChannel carries every status change. Admin feeds listen here.
	EventsChannel = "applications:events"

	officerChannelPrefix  = "applications:officer:"
	officerChannelPattern = officerChannelPrefix + "*"
)

// Notifier provides helpers to publish status events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishStatus sends ev to the owning officer's channel and to EventsChannel.
func (n *Notifier) PublishStatus(ctx context.Context, ev StatusEvent) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	pipe := n.rdb.Pipeline()
	if ev.OfficerID != 0 {
		pipe.Publish(ctx, OfficerChannel(ev.OfficerID), payload)
	}
	pipe.Publish(ctx, EventsChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.EventsPublished.WithLabelValues("redis", "error").Inc()
		return fmt.Errorf("publish status event: %w", err)
	}
	observability.EventsPublished.WithLabelValues("redis", "ok").Inc()
	return nil
}

// StartPatternSubscriber subscribes to every officer channel and EventsChannel
// and calls onMessage for each incoming message until ctx is done.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, officerChannelPattern, EventsChannel)
	// Wait for the subscription to be confirmed so no early message is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in status subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// OfficerChannel derives the Redis channel name for an officer's events.
func OfficerChannel(officerID uint) string {
	return officerChannelPrefix + strconv.FormatUint(uint64(officerID), 10)
}

// parseOfficerChannel returns the officer id encoded in channel.
func parseOfficerChannel(channel string) (uint, bool) {
	if len(channel) <= len(officerChannelPrefix) || channel[:len(officerChannelPrefix)] != officerChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(officerChannelPrefix):], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
