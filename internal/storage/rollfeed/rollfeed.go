// Package rollfeed keeps each campaign's most recent rolls in a capped Redis list.
package rollfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
)

const keyPattern = "%scampaign:%s:rolls"

// NewClient creates a Redis client from cfg. The connection is lazy.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Feed is a campaign.RollFeed backed by one Redis list per campaign.
//
// Entries are JSON encoded, newest at the head. The list is trimmed to size
// on every push and expires ttl after the last push.
type Feed struct {
	client redis.Cmdable
	prefix string
	size   int
	ttl    time.Duration
}

var _ campaign.RollFeed = (*Feed)(nil)

// New creates a Feed.
//
// Precondition: client must be non-nil; size must be > 0. A zero ttl disables expiry.
func New(client redis.Cmdable, prefix string, size int, ttl time.Duration) *Feed {
	return &Feed{client: client, prefix: prefix, size: size, ttl: ttl}
}

func (f *Feed) key(campaignID string) string {
	return fmt.Sprintf(keyPattern, f.prefix, campaignID)
}

// Push prepends e to the campaign's feed.
//
// Postcondition: The list holds at most size entries.
func (f *Feed) Push(ctx context.Context, campaignID string, e campaign.FeedEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding feed entry: %w", err)
	}
	key := f.key(campaignID)
	_, err = f.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, int64(f.size-1))
		if f.ttl > 0 {
			p.Expire(ctx, key, f.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pushing to roll feed: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
//
// Postcondition: Returns an empty slice for an unknown campaign.
func (f *Feed) Recent(ctx context.Context, campaignID string, n int) ([]campaign.FeedEntry, error) {
	if n <= 0 {
		return []campaign.FeedEntry{}, nil
	}
	raw, err := f.client.LRange(ctx, f.key(campaignID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading roll feed: %w", err)
	}
	out := make([]campaign.FeedEntry, 0, len(raw))
	for _, s := range raw {
		var e campaign.FeedEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decoding feed entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Ping checks that Redis is reachable.
func (f *Feed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}
