package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"memehub/internal/cache"
	"memehub/internal/model"
	"memehub/internal/queue"
)

// The services are tested against mocks of the repository interfaces.
// Each mock exposes function fields so a test can script exactly the
// behavior it needs; unset fields fall back to benign defaults.
// Transactions are satisfied by sqlmock: repositories are mocked, so
// only Begin/Commit/Rollback ever reach the fake connection.

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// ----------------------------------------------------------------------------
// UserRepository mock
// ----------------------------------------------------------------------------

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	getSummariesFn     func(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error)
	updateProfileFn    func(ctx context.Context, id int64, username, bio *string) (*model.User, error)
	updateProfilePicFn func(ctx context.Context, id int64, url, key string) error
	searchFn           func(ctx context.Context, query string, limit, offset int) ([]*model.UserSummary, error)
	existsFn           func(ctx context.Context, id int64) (bool, error)

	createCalls    int
	followerDelta  int
	followingDelta int
	memeDelta      int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error) {
	if m.getSummariesFn != nil {
		return m.getSummariesFn(ctx, ids)
	}
	return map[int64]*model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, username, bio *string) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, username, bio)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfilePic(ctx context.Context, id int64, url, key string) error {
	if m.updateProfilePicFn != nil {
		return m.updateProfilePicFn(ctx, id, url, key)
	}
	return nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit, offset int) ([]*model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit, offset)
	}
	return []*model.UserSummary{}, nil
}

func (m *mockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	m.followerDelta += delta
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	m.followingDelta += delta
	return nil
}

func (m *mockUserRepository) IncrementMemeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	m.memeDelta += delta
	return nil
}

// ----------------------------------------------------------------------------
// FollowRepository mock
// ----------------------------------------------------------------------------

type mockFollowRepository struct {
	createFn         func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	deleteFn         func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	existsFn         func(ctx context.Context, followerID, followeeID int64) (bool, error)
	getFollowersFn   func(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error)
	getFollowingFn   func(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error)
	getFolloweeIDsFn func(ctx context.Context, followerID int64) ([]int64, error)
	getFollowerIDsFn func(ctx context.Context, followeeID int64) ([]int64, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, limit, offset)
	}
	return []*model.UserSummary{}, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, limit, offset int) ([]*model.UserSummary, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, limit, offset)
	}
	return []*model.UserSummary{}, nil
}

func (m *mockFollowRepository) GetFolloweeIDs(ctx context.Context, followerID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, followerID)
	}
	return []int64{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, followeeID int64) ([]int64, error) {
	if m.getFollowerIDsFn != nil {
		return m.getFollowerIDsFn(ctx, followeeID)
	}
	return []int64{}, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	return map[int64]bool{}, nil
}

// ----------------------------------------------------------------------------
// MemeRepository mock
// ----------------------------------------------------------------------------

type mockMemeRepository struct {
	createFn          func(ctx context.Context, tx *sqlx.Tx, meme *model.Meme) error
	getByIDFn         func(ctx context.Context, id int64) (*model.Meme, error)
	getByIDsFn        func(ctx context.Context, ids []int64) ([]*model.Meme, error)
	updateFn          func(ctx context.Context, id int64, caption *string, tags []string) (*model.Meme, error)
	deleteFn          func(ctx context.Context, tx *sqlx.Tx, id int64) (string, error)
	getByAuthorsFn    func(ctx context.Context, authorIDs []int64, limit, offset int) ([]*model.Meme, error)
	getByUserFn       func(ctx context.Context, userID int64, limit, offset int) ([]*model.Meme, error)
	getRecentByUserFn func(ctx context.Context, userID int64, limit int) ([]*model.Meme, error)
	existsFn          func(ctx context.Context, id int64) (bool, error)
	getAuthorIDFn     func(ctx context.Context, id int64) (int64, error)
	likeFn            func(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error)
	unlikeFn          func(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error)
	checkLikesFn      func(ctx context.Context, userID int64, memeIDs []int64) (map[int64]bool, error)

	likeDelta    int
	commentDelta int
}

func (m *mockMemeRepository) Create(ctx context.Context, tx *sqlx.Tx, meme *model.Meme) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, meme)
	}
	meme.ID = 1
	return nil
}

func (m *mockMemeRepository) GetByID(ctx context.Context, id int64) (*model.Meme, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrMemeNotFound
}

func (m *mockMemeRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Meme, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return []*model.Meme{}, nil
}

func (m *mockMemeRepository) Update(ctx context.Context, id int64, caption *string, tags []string) (*model.Meme, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, caption, tags)
	}
	return nil, model.ErrMemeNotFound
}

func (m *mockMemeRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) (string, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return "", model.ErrMemeNotFound
}

func (m *mockMemeRepository) GetByAuthors(ctx context.Context, authorIDs []int64, limit, offset int) ([]*model.Meme, error) {
	if m.getByAuthorsFn != nil {
		return m.getByAuthorsFn(ctx, authorIDs, limit, offset)
	}
	return []*model.Meme{}, nil
}

func (m *mockMemeRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Meme, error) {
	if m.getByUserFn != nil {
		return m.getByUserFn(ctx, userID, limit, offset)
	}
	return []*model.Meme{}, nil
}

func (m *mockMemeRepository) GetRecentByUser(ctx context.Context, userID int64, limit int) ([]*model.Meme, error) {
	if m.getRecentByUserFn != nil {
		return m.getRecentByUserFn(ctx, userID, limit)
	}
	return []*model.Meme{}, nil
}

func (m *mockMemeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

func (m *mockMemeRepository) GetAuthorID(ctx context.Context, id int64) (int64, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, id)
	}
	return 0, model.ErrMemeNotFound
}

func (m *mockMemeRepository) Like(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, tx, memeID, userID)
	}
	return true, nil
}

func (m *mockMemeRepository) Unlike(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error) {
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, tx, memeID, userID)
	}
	return true, nil
}

func (m *mockMemeRepository) CheckLikes(ctx context.Context, userID int64, memeIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, memeIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockMemeRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	m.likeDelta += delta
	return nil
}

func (m *mockMemeRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) error {
	m.commentDelta += delta
	return nil
}

// ----------------------------------------------------------------------------
// CommentRepository mock
// ----------------------------------------------------------------------------

type mockCommentRepository struct {
	createFn             func(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error
	getByIDFn            func(ctx context.Context, id int64) (*model.Comment, error)
	deleteFn             func(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error)
	getByMemeIDFn        func(ctx context.Context, memeID int64, limit, offset int) ([]*model.Comment, error)
	getRecentByMemeIDsFn func(ctx context.Context, memeIDs []int64, perMeme int) (map[int64][]*model.Comment, error)
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, comment)
	}
	comment.ID = 1
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return 0, model.ErrCommentNotFound
}

func (m *mockCommentRepository) GetByMemeID(ctx context.Context, memeID int64, limit, offset int) ([]*model.Comment, error) {
	if m.getByMemeIDFn != nil {
		return m.getByMemeIDFn(ctx, memeID, limit, offset)
	}
	return []*model.Comment{}, nil
}

func (m *mockCommentRepository) GetRecentByMemeIDs(ctx context.Context, memeIDs []int64, perMeme int) (map[int64][]*model.Comment, error) {
	if m.getRecentByMemeIDsFn != nil {
		return m.getRecentByMemeIDsFn(ctx, memeIDs, perMeme)
	}
	return map[int64][]*model.Comment{}, nil
}

// ----------------------------------------------------------------------------
// FeedCache mock
// ----------------------------------------------------------------------------

type mockFeedCache struct {
	addMemeFn           func(ctx context.Context, userID int64, entry cache.MemeScore) error
	addMemesFn          func(ctx context.Context, userID int64, entries []cache.MemeScore) error
	removeMemeFn        func(ctx context.Context, userID int64, memeID int64) error
	getPageFn           func(ctx context.Context, userID int64, limit, offset int) ([]int64, error)
	existsFn            func(ctx context.Context, userID int64) (bool, error)
	invalidateFn        func(ctx context.Context, userID int64) error
}

func (m *mockFeedCache) AddMeme(ctx context.Context, userID int64, entry cache.MemeScore) error {
	if m.addMemeFn != nil {
		return m.addMemeFn(ctx, userID, entry)
	}
	return nil
}

func (m *mockFeedCache) AddMemes(ctx context.Context, userID int64, entries []cache.MemeScore) error {
	if m.addMemesFn != nil {
		return m.addMemesFn(ctx, userID, entries)
	}
	return nil
}

func (m *mockFeedCache) RemoveMeme(ctx context.Context, userID int64, memeID int64) error {
	if m.removeMemeFn != nil {
		return m.removeMemeFn(ctx, userID, memeID)
	}
	return nil
}

func (m *mockFeedCache) GetPage(ctx context.Context, userID int64, limit, offset int) ([]int64, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, userID, limit, offset)
	}
	return []int64{}, nil
}

func (m *mockFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID)
	}
	return false, nil
}

func (m *mockFeedCache) Invalidate(ctx context.Context, userID int64) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, userID)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Publisher mock
// ----------------------------------------------------------------------------

type mockPublisher struct {
	publishFn func(ctx context.Context, event queue.FeedEvent) error
	events    []queue.FeedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event queue.FeedEvent) error {
	m.events = append(m.events, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}
