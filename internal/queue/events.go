package queue

import (
	"fmt"
	"strconv"
	"time"
)

// Feed event types carried on the stream.
const (
	EventMemePosted     = "meme_posted"
	EventMemeDeleted    = "meme_deleted"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
)

const (
	StreamName    = "feed_events"
	ConsumerGroup = "feed_workers"
)

// FeedEvent is one unit of fan-out work. Depending on Type only a
// subset of the fields is meaningful.
type FeedEvent struct {
	Type string

	// Meme events.
	MemeID    int64
	AuthorID  int64
	CreatedAt time.Time

	// Follow events. FollowerID's feed is the one that changes.
	FollowerID int64
	FolloweeID int64
}

func (e FeedEvent) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":        e.Type,
		"meme_id":     e.MemeID,
		"author_id":   e.AuthorID,
		"created_at":  e.CreatedAt.UnixMilli(),
		"follower_id": e.FollowerID,
		"followee_id": e.FolloweeID,
	}
}

// ParseFeedEvent rebuilds an event from raw stream values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	typ, ok := values["type"].(string)
	if !ok || typ == "" {
		return FeedEvent{}, fmt.Errorf("event missing type field")
	}

	e := FeedEvent{Type: typ}

	var err error
	if e.MemeID, err = parseInt(values, "meme_id"); err != nil {
		return FeedEvent{}, err
	}
	if e.AuthorID, err = parseInt(values, "author_id"); err != nil {
		return FeedEvent{}, err
	}
	if e.FollowerID, err = parseInt(values, "follower_id"); err != nil {
		return FeedEvent{}, err
	}
	if e.FolloweeID, err = parseInt(values, "followee_id"); err != nil {
		return FeedEvent{}, err
	}

	createdAt, err := parseInt(values, "created_at")
	if err != nil {
		return FeedEvent{}, err
	}
	e.CreatedAt = time.UnixMilli(createdAt)

	return e, nil
}

func parseInt(values map[string]interface{}, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("event missing %s field", key)
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("event field %s has unexpected type %T", key, raw)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("event field %s is not a number: %w", key, err)
	}
	return n, nil
}
