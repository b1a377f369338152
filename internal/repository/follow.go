package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"memehub/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts the follow edge. Returns false when the edge already
// existed, so callers can keep counters exact.
func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	result, err := r.ext(tx).ExecContext(ctx, `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow %d -> %d: %w", followerID, followeeID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create follow %d -> %d: %w", followerID, followeeID, err)
	}
	return rows > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	result, err := r.ext(tx).ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow %d -> %d: %w", followerID, followeeID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete follow %d -> %d: %w", followerID, followeeID, err)
	}
	return rows > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
		followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow %d -> %d: %w", followerID, followeeID, err)
	}
	return exists, nil
}

func (r *followRepository) GetFollowers(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error) {
	users := []*model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT u.id, u.username, u.profile_pic_url
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers of user %d: %w", userID, err)
	}
	return users, nil
}

func (r *followRepository) GetFollowing(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error) {
	users := []*model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT u.id, u.username, u.profile_pic_url
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get following of user %d: %w", userID, err)
	}
	return users, nil
}

func (r *followRepository) GetFolloweeIDs(ctx context.Context, followerID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT followee_id FROM follows WHERE follower_id = $1`, followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followees of user %d: %w", followerID, err)
	}
	return ids, nil
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, followeeID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT follower_id FROM follows WHERE followee_id = $1`, followeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers of user %d: %w", followeeID, err)
	}
	return ids, nil
}

// CheckFollows reports which of the given users the follower follows,
// in one round trip.
func (r *followRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(followeeIDs))
	if len(followeeIDs) == 0 {
		return result, nil
	}

	followed := []int64{}
	err := r.db.SelectContext(ctx, &followed, `
		SELECT followee_id FROM follows
		WHERE follower_id = $1 AND followee_id = ANY($2)`,
		followerID, pq.Array(followeeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check follows for user %d: %w", followerID, err)
	}

	for _, id := range followeeIDs {
		result[id] = false
	}
	for _, id := range followed {
		result[id] = true
	}
	return result, nil
}
