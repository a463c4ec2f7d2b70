package rollfeed_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/storage/rollfeed"
)

func newFeed(t *testing.T, size int, ttl time.Duration) (*rollfeed.Feed, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := rollfeed.NewClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return rollfeed.New(client, "test:", size, ttl), mr
}

func entry(purpose string, final int) campaign.FeedEntry {
	ok := final >= 8
	return campaign.FeedEntry{
		At:          time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC),
		Username:    "jamison",
		Purpose:     purpose,
		Notation:    "2d6",
		Individual:  []int{final / 2, final - final/2},
		FinalResult: final,
		Difficulty:  8,
		Success:     &ok,
		Effect:      final - 8,
	}
}

func TestFeed_PushAndRecent(t *testing.T) {
	f, _ := newFeed(t, 10, 0)
	ctx := context.Background()

	require.NoError(t, f.Push(ctx, "c1", entry("first", 7)))
	require.NoError(t, f.Push(ctx, "c1", entry("second", 9)))

	got, err := f.Recent(ctx, "c1", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Purpose)
	assert.Equal(t, entry("second", 9), got[0])
	assert.Equal(t, "first", got[1].Purpose)
	assert.False(t, *got[1].Success)
}

func TestFeed_CampaignsAreIsolated(t *testing.T) {
	f, _ := newFeed(t, 10, 0)
	ctx := context.Background()
	require.NoError(t, f.Push(ctx, "c1", entry("a", 7)))

	got, err := f.Recent(ctx, "c2", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFeed_KeyPrefixAndTTL(t *testing.T) {
	f, mr := newFeed(t, 10, time.Hour)
	require.NoError(t, f.Push(context.Background(), "c1", entry("a", 7)))

	assert.True(t, mr.Exists("test:campaign:c1:rolls"))
	assert.Equal(t, time.Hour, mr.TTL("test:campaign:c1:rolls"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("test:campaign:c1:rolls"))
}

func TestFeed_RecentZero(t *testing.T) {
	f, _ := newFeed(t, 10, 0)
	got, err := f.Recent(context.Background(), "c1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFeed_CorruptEntry(t *testing.T) {
	f, mr := newFeed(t, 10, 0)
	_, err := mr.Lpush("test:campaign:c1:rolls", "not json")
	require.NoError(t, err)
	_, err = f.Recent(context.Background(), "c1", 5)
	assert.Error(t, err)
}

func TestFeed_Ping(t *testing.T) {
	f, mr := newFeed(t, 10, 0)
	assert.NoError(t, f.Ping(context.Background()))
	mr.Close()
	assert.Error(t, f.Ping(context.Background()))
}

// Property: after any number of pushes the feed holds min(pushes, size)
// entries and the head is the last push.
func TestPropertyFeedIsCapped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rapid.Check(t, func(rt *rapid.T) {
		mr.FlushAll()
		size := rapid.IntRange(1, 8).Draw(rt, "size")
		pushes := rapid.IntRange(0, 20).Draw(rt, "pushes")
		f := rollfeed.New(client, "", size, 0)
		ctx := context.Background()

		for i := 0; i < pushes; i++ {
			if err := f.Push(ctx, "c", entry(fmt.Sprint(i), 2+i%11)); err != nil {
				rt.Fatalf("push: %v", err)
			}
		}
		got, err := f.Recent(ctx, "c", size+5)
		if err != nil {
			rt.Fatalf("recent: %v", err)
		}
		want := pushes
		if want > size {
			want = size
		}
		if len(got) != want {
			rt.Fatalf("len = %d, want %d", len(got), want)
		}
		if pushes > 0 && got[0].Purpose != fmt.Sprint(pushes-1) {
			rt.Fatalf("head = %q, want %q", got[0].Purpose, fmt.Sprint(pushes-1))
		}
	})
}
