package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"memehub/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// ext picks the transaction when one is in play, the pool otherwise.
func (r *userRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed)
		VALUES ($1, $2, $3)
		RETURNING id, bio, follower_count, following_count, meme_count, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.PasswordHashed).
		Scan(&user.ID, &user.Bio, &user.FollowerCount, &user.FollowingCount, &user.MemeCount,
			&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "email") {
				return model.ErrEmailExists
			}
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetSummaries loads display info for a batch of users in one query.
func (r *userRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error) {
	if len(ids) == 0 {
		return map[int64]*model.UserSummary{}, nil
	}

	var summaries []*model.UserSummary
	query := `SELECT id, username, profile_pic_url FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &summaries, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}

	result := make(map[int64]*model.UserSummary, len(summaries))
	for _, s := range summaries {
		result[s.ID] = s
	}
	return result, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, username, bio *string) (*model.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    bio = COALESCE($3, bio),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING *`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, id, username, bio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, model.ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) UpdateProfilePic(ctx context.Context, id int64, url, key string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET profile_pic_url = $2, profile_pic_key = $3, updated_at = NOW() WHERE id = $1`,
		id, url, key)
	if err != nil {
		return fmt.Errorf("failed to update profile picture for user %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update profile picture for user %d: %w", id, err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes pattern metacharacters so user input matches
// literally inside a LIKE prefix.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]*model.UserSummary, error) {
	users := []*model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT id, username, profile_pic_url
		FROM users
		WHERE username ILIKE $1 || '%' OR email ILIKE $1 || '%'
		ORDER BY username ASC
		LIMIT $2 OFFSET $3`,
		escapeLike(query), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", id, err)
	}
	return exists, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	_, err := r.ext(tx).ExecContext(ctx,
		`UPDATE users SET follower_count = follower_count + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust follower count for user %d: %w", id, err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	_, err := r.ext(tx).ExecContext(ctx,
		`UPDATE users SET following_count = following_count + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust following count for user %d: %w", id, err)
	}
	return nil
}

func (r *userRepository) IncrementMemeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	_, err := r.ext(tx).ExecContext(ctx,
		`UPDATE users SET meme_count = meme_count + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust meme count for user %d: %w", id, err)
	}
	return nil
}
