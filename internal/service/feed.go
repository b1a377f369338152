package service

import (
	"context"
	"log"

	"memehub/internal/cache"
	"memehub/internal/model"
	"memehub/internal/repository"
)

// RecentCommentsPerMeme is how many comments ride along on each feed entry.
const RecentCommentsPerMeme = 3

// FeedService assembles the reverse-chronological home feed: memes by
// the users the viewer follows plus the viewer's own, newest first.
type FeedService struct {
	memeRepo    repository.MemeRepository
	followRepo  repository.FollowRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	feedCache   cache.FeedCache
}

func NewFeedService(memeRepo repository.MemeRepository, followRepo repository.FollowRepository, userRepo repository.UserRepository, commentRepo repository.CommentRepository, feedCache cache.FeedCache) *FeedService {
	return &FeedService{
		memeRepo:    memeRepo,
		followRepo:  followRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		feedCache:   feedCache,
	}
}

// GetFeed returns one feed page. The cached feed is a bounded
// accelerator; pages past its cap, and any cache failure, fall back to
// the authoritative database query. Both paths order by created_at
// descending with id descending as tiebreak.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, limit, offset int) ([]*model.Meme, error) {
	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Viewers always see their own memes alongside their followees'.
	authorIDs := append(followeeIDs, userID)

	if offset+limit <= cache.FeedCacheCap && s.feedCache != nil {
		memes, ok := s.feedFromCache(ctx, userID, authorIDs, limit, offset)
		if ok {
			s.enrich(ctx, userID, memes)
			return memes, nil
		}
	}

	memes, err := s.memeRepo.GetByAuthors(ctx, authorIDs, limit, offset)
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, userID, memes)
	return memes, nil
}

// feedFromCache serves the page from the cached feed, warming it from
// the database on a cold miss. Returns ok=false to signal fallback.
func (s *FeedService) feedFromCache(ctx context.Context, userID int64, authorIDs []int64, limit, offset int) ([]*model.Meme, bool) {
	cached, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] Cache check failed for user %d: %v", userID, err)
		return nil, false
	}

	if !cached {
		if err := s.warmCache(ctx, userID, authorIDs); err != nil {
			log.Printf("[FeedService] Cache warm failed for user %d: %v", userID, err)
			return nil, false
		}
	}

	ids, err := s.feedCache.GetPage(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("[FeedService] Cache read failed for user %d: %v", userID, err)
		return nil, false
	}

	memes, err := s.memeRepo.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[FeedService] Hydration failed for user %d: %v", userID, err)
		return nil, false
	}
	return memes, true
}

func (s *FeedService) warmCache(ctx context.Context, userID int64, authorIDs []int64) error {
	memes, err := s.memeRepo.GetByAuthors(ctx, authorIDs, cache.FeedCacheCap, 0)
	if err != nil {
		return err
	}

	entries := make([]cache.MemeScore, 0, len(memes))
	for _, m := range memes {
		entries = append(entries, cache.MemeScore{MemeID: m.ID, CreatedAt: m.CreatedAt})
	}
	return s.feedCache.AddMemes(ctx, userID, entries)
}

// enrich attaches authors, viewer like state, and a few recent
// comments to the page with three batch queries. Any enrichment
// failure degrades that facet instead of failing the feed.
func (s *FeedService) enrich(ctx context.Context, viewerID int64, memes []*model.Meme) {
	if len(memes) == 0 {
		return
	}

	authorIDs := make([]int64, 0, len(memes))
	memeIDs := make([]int64, 0, len(memes))
	for _, m := range memes {
		authorIDs = append(authorIDs, m.UserID)
		memeIDs = append(memeIDs, m.ID)
	}

	summaries, err := s.userRepo.GetSummaries(ctx, authorIDs)
	if err != nil {
		log.Printf("[FeedService] Author enrichment failed: %v", err)
	} else {
		// Every author here is either a followee or the viewer.
		for id, summary := range summaries {
			summary.IsFollowing = id != viewerID
		}
		for _, m := range memes {
			m.Author = summaries[m.UserID]
		}
	}

	likeMap, err := s.memeRepo.CheckLikes(ctx, viewerID, memeIDs)
	if err != nil {
		log.Printf("[FeedService] Like enrichment failed for viewer %d: %v", viewerID, err)
	} else {
		for _, m := range memes {
			m.IsLiked = likeMap[m.ID]
		}
	}

	commentMap, err := s.commentRepo.GetRecentByMemeIDs(ctx, memeIDs, RecentCommentsPerMeme)
	if err != nil {
		log.Printf("[FeedService] Comment enrichment failed: %v", err)
	} else {
		for _, m := range memes {
			m.RecentComments = commentMap[m.ID]
		}
	}
}
