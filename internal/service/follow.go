package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"memehub/internal/model"
	"memehub/internal/queue"
	"memehub/internal/repository"
)

// FollowService handles the social graph.
type FollowService struct {
	db         *sqlx.DB
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	publisher  queue.Publisher
}

func NewFollowService(db *sqlx.DB, followRepo repository.FollowRepository, userRepo repository.UserRepository, publisher queue.Publisher) *FollowService {
	return &FollowService{
		db:         db,
		followRepo: followRepo,
		userRepo:   userRepo,
		publisher:  publisher,
	}
}

// Follow creates the edge and adjusts both users' counters in one
// transaction, then queues a feed backfill for the new follower.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	exists, err := s.userRepo.Exists(ctx, followeeID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return err
	}
	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit follow: %w", err)
	}

	s.publish(ctx, queue.FeedEvent{
		Type:       queue.EventUserFollowed,
		FollowerID: followerID,
		FolloweeID: followeeID,
	})
	return nil
}

// Unfollow removes the edge and adjusts counters, then queues a feed
// prune for the follower.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	exists, err := s.userRepo.Exists(ctx, followeeID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.followRepo.Delete(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotFollowing
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1); err != nil {
		return err
	}
	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unfollow: %w", err)
	}

	s.publish(ctx, queue.FeedEvent{
		Type:       queue.EventUserUnfollowed,
		FollowerID: followerID,
		FolloweeID: followeeID,
	})
	return nil
}

// GetFollowers lists users following the given user, with follow
// status from the viewer's perspective.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64, limit, offset int, viewerID *int64) ([]*model.UserSummary, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	users, err := s.followRepo.GetFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	s.enrichFollowStatus(ctx, viewerID, users)
	return users, nil
}

// GetFollowing lists users the given user follows.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64, limit, offset int, viewerID *int64) ([]*model.UserSummary, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	users, err := s.followRepo.GetFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	s.enrichFollowStatus(ctx, viewerID, users)
	return users, nil
}

func (s *FollowService) enrichFollowStatus(ctx context.Context, viewerID *int64, users []*model.UserSummary) {
	if viewerID == nil || len(users) == 0 {
		return
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, *viewerID, ids)
	if err != nil {
		log.Printf("[FollowService] Follow enrichment failed for viewer %d: %v", *viewerID, err)
		return
	}
	for _, u := range users {
		u.IsFollowing = followMap[u.ID]
	}
}

// publish is best effort. The write already committed; a lost event
// only delays cache convergence until the next cold read.
func (s *FollowService) publish(ctx context.Context, event queue.FeedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[FollowService] Failed to publish %s event: %v", event.Type, err)
	}
}
