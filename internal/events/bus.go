package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// HelperLocation is published whenever a helper's active position changes.
type HelperLocation struct {
	HelperID  uint    `json:"helper_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	IsActive  bool    `json:"is_active"`
	UpdatedAt int64   `json:"updated_at"`
	Origin    string  `json:"origin"`
}

// Sink receives helper location events on this instance (e.g. the live map hub).
type Sink interface {
	UpdateLocation(helperID uint, lat, lng float64, isActive bool)
}

// Bus delivers events to local sinks and, when a Redis client is set, to
// every other instance subscribed to the same channel.
type Bus struct {
	origin  string
	channel string
	rdb     *redis.Client

	mu    sync.RWMutex
	sinks []Sink
}

// NewBus returns a Bus. rdb may be nil for single-instance deployments.
func NewBus(rdb *redis.Client, channel string) *Bus {
	return &Bus{
		origin:  uuid.NewString(),
		channel: channel,
		rdb:     rdb,
	}
}

func (b *Bus) Subscribe(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Publish delivers ev locally, then to Redis. A Redis failure is returned
// but local delivery has already happened.
func (b *Bus) Publish(ctx context.Context, ev HelperLocation) error {
	ev.Origin = b.origin
	if ev.UpdatedAt == 0 {
		ev.UpdatedAt = time.Now().Unix()
	}
	b.deliver(ev)
	if b.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

func (b *Bus) deliver(ev HelperLocation) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()
	for _, s := range sinks {
		s.UpdateLocation(ev.HelperID, ev.Lat, ev.Lng, ev.IsActive)
	}
}

// handleMessage applies an event received from Redis. Events this instance
// published itself were already delivered locally and are skipped.
func (b *Bus) handleMessage(payload string) {
	var ev HelperLocation
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[events] bad payload on %s: %v", b.channel, err)
		return
	}
	if ev.Origin == b.origin {
		return
	}
	b.deliver(ev)
}

// Run relays events from other instances until ctx is done. It returns
// immediately when no Redis client is configured.
func (b *Bus) Run(ctx context.Context) {
	if b.rdb == nil {
		return
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleMessage(msg.Payload)
		}
	}
}
