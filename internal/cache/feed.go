package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedCacheCap bounds each per-user feed to the newest entries.
	// Requests that page past the cap go to the database instead.
	FeedCacheCap = 500

	feedTTL = 7 * 24 * time.Hour
)

// MemeScore is one feed entry: a meme id ranked by its creation time.
type MemeScore struct {
	MemeID    int64
	CreatedAt time.Time
}

// FeedCache maintains a per-user sorted set of meme ids ordered by
// creation time, newest first.
type FeedCache interface {
	AddMeme(ctx context.Context, userID int64, entry MemeScore) error
	AddMemes(ctx context.Context, userID int64, entries []MemeScore) error
	RemoveMeme(ctx context.Context, userID int64, memeID int64) error
	GetPage(ctx context.Context, userID int64, limit, offset int) ([]int64, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	Invalidate(ctx context.Context, userID int64) error
}

type RedisFeedCache struct {
	client *redis.Client
}

func NewRedisFeedCache(client *redis.Client) *RedisFeedCache {
	return &RedisFeedCache{client: client}
}

func feedKey(userID int64) string {
	return fmt.Sprintf("feed:%d", userID)
}

// score ranks entries by creation time in milliseconds. Entries in the
// same millisecond share a score; redis then orders them by member
// string, and feedMember zero-pads ids to a fixed width so that
// reverse lexicographic order equals id DESC, matching the database
// ordering of created_at DESC, id DESC.
func score(e MemeScore) float64 {
	return float64(e.CreatedAt.UnixMilli())
}

// feedMember encodes a meme id as a fixed-width zero-padded member.
// int64 needs at most 19 digits.
func feedMember(memeID int64) string {
	return fmt.Sprintf("%019d", memeID)
}

func (c *RedisFeedCache) AddMeme(ctx context.Context, userID int64, entry MemeScore) error {
	return c.AddMemes(ctx, userID, []MemeScore{entry})
}

func (c *RedisFeedCache) AddMemes(ctx context.Context, userID int64, entries []MemeScore) error {
	if len(entries) == 0 {
		return nil
	}

	key := feedKey(userID)
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{
			Score:  score(e),
			Member: feedMember(e.MemeID),
		})
	}

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, key, feedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add feed entries for user %d: %w", userID, err)
	}
	return nil
}

func (c *RedisFeedCache) RemoveMeme(ctx context.Context, userID int64, memeID int64) error {
	if err := c.client.ZRem(ctx, feedKey(userID), feedMember(memeID)).Err(); err != nil {
		return fmt.Errorf("failed to remove meme %d from feed of user %d: %w", memeID, userID, err)
	}
	return nil
}

// GetPage returns meme ids for one page, newest first.
func (c *RedisFeedCache) GetPage(ctx context.Context, userID int64, limit, offset int) ([]int64, error) {
	raw, err := c.client.ZRevRange(ctx, feedKey(userID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed page for user %d: %w", userID, err)
	}

	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt feed entry %q for user %d: %w", s, userID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *RedisFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check feed for user %d: %w", userID, err)
	}
	return n > 0, nil
}

func (c *RedisFeedCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, feedKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate feed for user %d: %w", userID, err)
	}
	return nil
}
