package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"memehub/internal/model"
)

type memeRepository struct {
	db *sqlx.DB
}

func NewMemeRepository(db *sqlx.DB) MemeRepository {
	return &memeRepository{db: db}
}

func (r *memeRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *memeRepository) Create(ctx context.Context, tx *sqlx.Tx, meme *model.Meme) error {
	query := `
		INSERT INTO memes (user_id, image_url, storage_key, caption, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, like_count, comment_count, created_at, updated_at`

	err := r.ext(tx).QueryRowxContext(ctx, query,
		meme.UserID, meme.ImageURL, meme.StorageKey, meme.Caption, meme.Tags).
		Scan(&meme.ID, &meme.LikeCount, &meme.CommentCount, &meme.CreatedAt, &meme.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meme: %w", err)
	}
	return nil
}

func (r *memeRepository) GetByID(ctx context.Context, id int64) (*model.Meme, error) {
	var meme model.Meme
	err := r.db.GetContext(ctx, &meme, `SELECT * FROM memes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrMemeNotFound
		}
		return nil, fmt.Errorf("failed to get meme %d: %w", id, err)
	}
	return &meme, nil
}

// GetByIDs loads a batch of memes. Missing ids are silently dropped;
// the result preserves the order of the input ids.
func (r *memeRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Meme, error) {
	if len(ids) == 0 {
		return []*model.Meme{}, nil
	}

	memes := []*model.Meme{}
	err := r.db.SelectContext(ctx, &memes,
		`SELECT * FROM memes WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get memes: %w", err)
	}

	byID := make(map[int64]*model.Meme, len(memes))
	for _, m := range memes {
		byID[m.ID] = m
	}

	ordered := make([]*model.Meme, 0, len(memes))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

func (r *memeRepository) Update(ctx context.Context, id int64, caption *string, tags []string) (*model.Meme, error) {
	query := `
		UPDATE memes
		SET caption = COALESCE($2, caption),
		    tags = COALESCE($3, tags),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING *`

	var tagsArg interface{}
	if tags != nil {
		tagsArg = pq.StringArray(tags)
	}

	var meme model.Meme
	err := r.db.GetContext(ctx, &meme, query, id, caption, tagsArg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrMemeNotFound
		}
		return nil, fmt.Errorf("failed to update meme %d: %w", id, err)
	}
	return &meme, nil
}

// Delete removes the meme row and returns its storage key so the
// caller can delete the blob after commit.
func (r *memeRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) (string, error) {
	var storageKey string
	err := r.ext(tx).QueryRowxContext(ctx,
		`DELETE FROM memes WHERE id = $1 RETURNING storage_key`, id).
		Scan(&storageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrMemeNotFound
		}
		return "", fmt.Errorf("failed to delete meme %d: %w", id, err)
	}
	return storageKey, nil
}

// GetByAuthors pages over the combined timelines of the given authors,
// newest first. This is the authoritative feed query.
func (r *memeRepository) GetByAuthors(ctx context.Context, authorIDs []int64, limit, offset int) ([]*model.Meme, error) {
	if len(authorIDs) == 0 {
		return []*model.Meme{}, nil
	}

	memes := []*model.Meme{}
	err := r.db.SelectContext(ctx, &memes, `
		SELECT * FROM memes
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		pq.Array(authorIDs), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get memes by authors: %w", err)
	}
	return memes, nil
}

func (r *memeRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Meme, error) {
	memes := []*model.Meme{}
	err := r.db.SelectContext(ctx, &memes, `
		SELECT * FROM memes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get memes of user %d: %w", userID, err)
	}
	return memes, nil
}

// GetRecentByUser returns the author's newest memes, used when
// backfilling a follower's feed cache.
func (r *memeRepository) GetRecentByUser(ctx context.Context, userID int64, limit int) ([]*model.Meme, error) {
	memes := []*model.Meme{}
	err := r.db.SelectContext(ctx, &memes, `
		SELECT * FROM memes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent memes of user %d: %w", userID, err)
	}
	return memes, nil
}

func (r *memeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM memes WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check meme %d: %w", id, err)
	}
	return exists, nil
}

func (r *memeRepository) GetAuthorID(ctx context.Context, id int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT user_id FROM memes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrMemeNotFound
		}
		return 0, fmt.Errorf("failed to get author of meme %d: %w", id, err)
	}
	return authorID, nil
}

// Like records the like. Returns false when the user already liked the
// meme, so counters are only bumped on real transitions.
func (r *memeRepository) Like(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error) {
	result, err := r.ext(tx).ExecContext(ctx, `
		INSERT INTO meme_likes (meme_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		memeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like meme %d: %w", memeID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to like meme %d: %w", memeID, err)
	}
	return rows > 0, nil
}

func (r *memeRepository) Unlike(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error) {
	result, err := r.ext(tx).ExecContext(ctx,
		`DELETE FROM meme_likes WHERE meme_id = $1 AND user_id = $2`,
		memeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike meme %d: %w", memeID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to unlike meme %d: %w", memeID, err)
	}
	return rows > 0, nil
}

// CheckLikes reports which of the given memes the user has liked.
func (r *memeRepository) CheckLikes(ctx context.Context, userID int64, memeIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(memeIDs))
	if len(memeIDs) == 0 {
		return result, nil
	}

	liked := []int64{}
	err := r.db.SelectContext(ctx, &liked, `
		SELECT meme_id FROM meme_likes
		WHERE user_id = $1 AND meme_id = ANY($2)`,
		userID, pq.Array(memeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check likes for user %d: %w", userID, err)
	}

	for _, id := range memeIDs {
		result[id] = false
	}
	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}

func (r *memeRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	_, err := r.ext(tx).ExecContext(ctx,
		`UPDATE memes SET like_count = like_count + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust like count for meme %d: %w", id, err)
	}
	return nil
}

func (r *memeRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	_, err := r.ext(tx).ExecContext(ctx,
		`UPDATE memes SET comment_count = comment_count + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust comment count for meme %d: %w", id, err)
	}
	return nil
}
