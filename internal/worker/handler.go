package worker

import (
	"context"
	"fmt"
	"log"

	"memehub/internal/cache"
	"memehub/internal/queue"
	"memehub/internal/repository"
)

// Handler applies one feed event to the cached feeds it affects.
// Handlers only touch feeds that are already cached; cold feeds get
// warmed from the database on first read instead.
type Handler struct {
	followRepo repository.FollowRepository
	memeRepo   repository.MemeRepository
	feedCache  cache.FeedCache
}

func NewHandler(followRepo repository.FollowRepository, memeRepo repository.MemeRepository, feedCache cache.FeedCache) *Handler {
	return &Handler{
		followRepo: followRepo,
		memeRepo:   memeRepo,
		feedCache:  feedCache,
	}
}

func (h *Handler) Handle(ctx context.Context, event queue.FeedEvent) error {
	switch event.Type {
	case queue.EventMemePosted:
		return h.handleMemePosted(ctx, event)
	case queue.EventMemeDeleted:
		return h.handleMemeDeleted(ctx, event)
	case queue.EventUserFollowed:
		return h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		return h.handleUserUnfollowed(ctx, event)
	default:
		log.Printf("[Worker] Skipping unknown event type %q", event.Type)
		return nil
	}
}

// handleMemePosted fans the new meme out to every follower's cached
// feed. Authors see their own memes, so their feed gets it too.
func (h *Handler) handleMemePosted(ctx context.Context, event queue.FeedEvent) error {
	followerIDs, err := h.followRepo.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("fan out meme %d: %w", event.MemeID, err)
	}
	targets := append(followerIDs, event.AuthorID)

	entry := cache.MemeScore{MemeID: event.MemeID, CreatedAt: event.CreatedAt}
	for _, userID := range targets {
		cached, err := h.feedCache.Exists(ctx, userID)
		if err != nil {
			return fmt.Errorf("fan out meme %d to user %d: %w", event.MemeID, userID, err)
		}
		if !cached {
			continue
		}
		if err := h.feedCache.AddMeme(ctx, userID, entry); err != nil {
			return fmt.Errorf("fan out meme %d to user %d: %w", event.MemeID, userID, err)
		}
	}
	return nil
}

func (h *Handler) handleMemeDeleted(ctx context.Context, event queue.FeedEvent) error {
	followerIDs, err := h.followRepo.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("retract meme %d: %w", event.MemeID, err)
	}
	targets := append(followerIDs, event.AuthorID)

	for _, userID := range targets {
		if err := h.feedCache.RemoveMeme(ctx, userID, event.MemeID); err != nil {
			return fmt.Errorf("retract meme %d from user %d: %w", event.MemeID, userID, err)
		}
	}
	return nil
}

// handleUserFollowed backfills the follower's cached feed with the
// followee's recent memes.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.FeedEvent) error {
	cached, err := h.feedCache.Exists(ctx, event.FollowerID)
	if err != nil {
		return fmt.Errorf("backfill feed of user %d: %w", event.FollowerID, err)
	}
	if !cached {
		return nil
	}

	memes, err := h.memeRepo.GetRecentByUser(ctx, event.FolloweeID, cache.FeedCacheCap)
	if err != nil {
		return fmt.Errorf("backfill feed of user %d: %w", event.FollowerID, err)
	}

	entries := make([]cache.MemeScore, 0, len(memes))
	for _, m := range memes {
		entries = append(entries, cache.MemeScore{MemeID: m.ID, CreatedAt: m.CreatedAt})
	}
	if err := h.feedCache.AddMemes(ctx, event.FollowerID, entries); err != nil {
		return fmt.Errorf("backfill feed of user %d: %w", event.FollowerID, err)
	}
	return nil
}

// handleUserUnfollowed drops the follower's cached feed outright. The
// next read warms it from the database without the ex-followee, which
// is simpler and more precise than picking their memes out of the set.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	if err := h.feedCache.Invalidate(ctx, event.FollowerID); err != nil {
		return fmt.Errorf("invalidate feed of user %d: %w", event.FollowerID, err)
	}
	return nil
}
