package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/emberdate/engine/internal/cache"
)

// MatchedChannel is the Pub/Sub channel the messaging layer subscribes to.
const MatchedChannel = "events:matched"

// MatchEvent is emitted exactly once per created match, by the transaction
// that won the insert. Opener carries the superlike message, if any, as the
// conversation's first message.
type MatchEvent struct {
	MatchID   string    `json:"match_id"`
	User1ID   uint64    `json:"user1_id"`
	User2ID   uint64    `json:"user2_id"`
	Opener    string    `json:"opener,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher hands matched events to the messaging/notification layer.
type Publisher interface {
	MatchCreated(ctx context.Context, ev MatchEvent)
}

// RedisPublisher publishes matched events as JSON over Redis Pub/Sub.
// Delivery is at-most-once: a publish failure is logged and dropped, never
// rolled back into the match.
type RedisPublisher struct {
	cache  *cache.RedisCache
	logger *slog.Logger
}

func NewRedisPublisher(c *cache.RedisCache, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{cache: c, logger: logger}
}

func (p *RedisPublisher) MatchCreated(ctx context.Context, ev MatchEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to encode matched event", "match_id", ev.MatchID, "err", err)
		return
	}
	if err := p.cache.Publish(ctx, MatchedChannel, payload); err != nil {
		p.logger.Error("failed to publish matched event", "match_id", ev.MatchID, "err", err)
	}
}

// Recorder collects events in memory. Test double.
type Recorder struct {
	mu     sync.Mutex
	events []MatchEvent
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) MatchCreated(_ context.Context, ev MatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []MatchEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MatchEvent, len(r.events))
	copy(out, r.events)
	return out
}
