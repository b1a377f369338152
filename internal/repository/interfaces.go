package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"memehub/internal/model"
)

// Repositories take an optional *sqlx.Tx so services can compose
// several writes into one transaction. A nil tx runs against the pool.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetSummaries(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int64, username, bio *string) (*model.User, error)
	UpdateProfilePic(ctx context.Context, id int64, url, key string) error
	Search(ctx context.Context, query string, limit, offset int) ([]*model.UserSummary, error)
	Exists(ctx context.Context, id int64) (bool, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error
	IncrementMemeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFolloweeIDs(ctx context.Context, followerID int64) ([]int64, error)
	GetFollowerIDs(ctx context.Context, followeeID int64) ([]int64, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
}

type MemeRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, meme *model.Meme) error
	GetByID(ctx context.Context, id int64) (*model.Meme, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Meme, error)
	Update(ctx context.Context, id int64, caption *string, tags []string) (*model.Meme, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) (string, error)
	GetByAuthors(ctx context.Context, authorIDs []int64, limit, offset int) ([]*model.Meme, error)
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Meme, error)
	GetRecentByUser(ctx context.Context, userID int64, limit int) ([]*model.Meme, error)
	Exists(ctx context.Context, id int64) (bool, error)
	GetAuthorID(ctx context.Context, id int64) (int64, error)
	Like(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error)
	Unlike(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error)
	CheckLikes(ctx context.Context, userID int64, memeIDs []int64) (map[int64]bool, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error)
	GetByMemeID(ctx context.Context, memeID int64, limit, offset int) ([]*model.Comment, error)
	GetRecentByMemeIDs(ctx context.Context, memeIDs []int64, perMeme int) (map[int64][]*model.Comment, error)
}
