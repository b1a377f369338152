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

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error {
	query := `
		INSERT INTO meme_comments (meme_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.ext(tx).QueryRowxContext(ctx, query,
		comment.MemeID, comment.UserID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment,
		`SELECT id, meme_id, user_id, text, created_at FROM meme_comments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", id, err)
	}
	return &comment, nil
}

// Delete removes the comment and returns the meme it belonged to so
// the caller can decrement that meme's counter in the same transaction.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	var memeID int64
	err := r.ext(tx).QueryRowxContext(ctx,
		`DELETE FROM meme_comments WHERE id = $1 RETURNING meme_id`, id).
		Scan(&memeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrCommentNotFound
		}
		return 0, fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return memeID, nil
}

func (r *commentRepository) GetByMemeID(ctx context.Context, memeID int64, limit, offset int) ([]*model.Comment, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT c.id, c.meme_id, c.user_id, c.text, c.created_at,
		       u.id AS author_id, u.username, u.profile_pic_url
		FROM meme_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.meme_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`,
		memeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments for meme %d: %w", memeID, err)
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c, err := scanCommentWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment for meme %d: %w", memeID, err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get comments for meme %d: %w", memeID, err)
	}
	return comments, nil
}

// GetRecentByMemeIDs fetches the newest comments per meme for a batch
// of memes in one query, for feed enrichment.
func (r *commentRepository) GetRecentByMemeIDs(ctx context.Context, memeIDs []int64, perMeme int) (map[int64][]*model.Comment, error) {
	result := make(map[int64][]*model.Comment, len(memeIDs))
	if len(memeIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, meme_id, user_id, text, created_at, author_id, username, profile_pic_url
		FROM (
			SELECT c.id, c.meme_id, c.user_id, c.text, c.created_at,
			       u.id AS author_id, u.username, u.profile_pic_url,
			       ROW_NUMBER() OVER (
			           PARTITION BY c.meme_id
			           ORDER BY c.created_at DESC, c.id DESC
			       ) AS rn
			FROM meme_comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.meme_id = ANY($1)
		) ranked
		WHERE rn <= $2
		ORDER BY meme_id, created_at DESC, id DESC`,
		pq.Array(memeIDs), perMeme)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCommentWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent comment: %w", err)
		}
		result[c.MemeID] = append(result[c.MemeID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get recent comments: %w", err)
	}
	return result, nil
}

func scanCommentWithAuthor(rows *sqlx.Rows) (*model.Comment, error) {
	var (
		c      model.Comment
		author model.UserSummary
	)
	err := rows.Scan(&c.ID, &c.MemeID, &c.UserID, &c.Text, &c.CreatedAt,
		&author.ID, &author.Username, &author.ProfilePicURL)
	if err != nil {
		return nil, err
	}
	c.Author = &author
	return &c, nil
}
