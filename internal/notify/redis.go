package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/offer-monitor/internal/engine"
)

// Announcement is published on the report channel after the action items of
// a run have been stored.
type Announcement struct {
	RunID      string `json:"run_id"`
	LatestDate string `json:"latest_date"`
	RuleSet    string `json:"rule_set"`
	Offers     int    `json:"offers"`
	Actions    int    `json:"actions"`
	ActionsKey string `json:"actions_key"`
}

// RedisPublisher stores each run's action items in a Redis list and
// announces the run on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	listKey string
	channel string
	ttl     time.Duration
}

// NewRedisPublisher creates a publisher. A zero ttl keeps lists forever.
func NewRedisPublisher(client *redis.Client, listKey, channel string, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{client: client, listKey: listKey, channel: channel, ttl: ttl}
}

// Name identifies the sink in delivery errors.
func (p *RedisPublisher) Name() string { return "redis" }

// ActionsKey is the list holding a run's action items.
func (p *RedisPublisher) ActionsKey(runID string) string {
	return p.listKey + ":" + runID
}

// LatestKey holds the id of the most recent run.
func (p *RedisPublisher) LatestKey() string {
	return p.listKey + ":latest"
}

// Notify writes the action items and publishes the announcement.
func (p *RedisPublisher) Notify(ctx context.Context, rep *engine.Report) error {
	key := p.ActionsKey(rep.RunID)

	items := make([]interface{}, 0, len(rep.Actions))
	for _, a := range rep.Actions {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		items = append(items, data)
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(items) > 0 {
		pipe.RPush(ctx, key, items...)
		if p.ttl > 0 {
			pipe.Expire(ctx, key, p.ttl)
		}
	}
	pipe.Set(ctx, p.LatestKey(), rep.RunID, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store actions: %w", err)
	}

	msg, err := json.Marshal(Announcement{
		RunID:      rep.RunID,
		LatestDate: rep.LatestLabel(),
		RuleSet:    rep.RuleSet,
		Offers:     len(rep.Offers),
		Actions:    len(rep.Actions),
		ActionsKey: key,
	})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	log.Printf("[notify] published %d action items to %s", len(items), key)
	return nil
}
