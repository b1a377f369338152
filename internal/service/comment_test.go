package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"memehub/internal/model"
)

func TestCommentService_Add_Success(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	memeRepo := &mockMemeRepository{}
	userRepo := &mockUserRepository{
		getSummariesFn: func(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error) {
			return map[int64]*model.UserSummary{1: {ID: 1, Username: "commenter"}}, nil
		},
	}
	svc := NewCommentService(db, &mockCommentRepository{}, memeRepo, userRepo)

	comment, err := svc.Add(context.Background(), 10, 1, "  nice meme  ")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if comment.Text != "nice meme" {
		t.Errorf("text = %q, want trimmed %q", comment.Text, "nice meme")
	}
	if comment.Author == nil || comment.Author.Username != "commenter" {
		t.Errorf("author = %+v, want username %q", comment.Author, "commenter")
	}
	if memeRepo.commentDelta != 1 {
		t.Errorf("comment count delta = %d, want 1", memeRepo.commentDelta)
	}
}

func TestCommentService_Add_WhitespaceOnly(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{}
	svc := NewCommentService(db, &mockCommentRepository{}, memeRepo, &mockUserRepository{})

	_, err := svc.Add(context.Background(), 10, 1, "   \n\t  ")
	if !errors.Is(err, model.ErrCommentTextRequired) {
		t.Fatalf("expected ErrCommentTextRequired, got: %v", err)
	}
	if memeRepo.commentDelta != 0 {
		t.Error("counter moved on rejected comment")
	}
}

func TestCommentService_Add_TooLong(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewCommentService(db, &mockCommentRepository{}, &mockMemeRepository{}, &mockUserRepository{})

	text := "x" + string(make([]byte, model.MaxCommentLength))
	if _, err := svc.Add(context.Background(), 10, 1, text); !errors.Is(err, model.ErrCommentTooLong) {
		t.Fatalf("expected ErrCommentTooLong, got: %v", err)
	}
}

func TestCommentService_Add_MemeNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		existsFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	svc := NewCommentService(db, &mockCommentRepository{}, memeRepo, &mockUserRepository{})

	if _, err := svc.Add(context.Background(), 404, 1, "hello"); !errors.Is(err, model.ErrMemeNotFound) {
		t.Fatalf("expected ErrMemeNotFound, got: %v", err)
	}
}

func TestCommentService_Add_AuthorLookupFailureDegrades(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	userRepo := &mockUserRepository{
		getSummariesFn: func(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error) {
			return nil, errors.New("users table on fire")
		},
	}
	svc := NewCommentService(db, &mockCommentRepository{}, &mockMemeRepository{}, userRepo)

	// The comment was committed; a failed author lookup must not undo that.
	comment, err := svc.Add(context.Background(), 10, 1, "still works")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if comment.Author != nil {
		t.Errorf("author = %+v, want nil on lookup failure", comment.Author)
	}
}

func TestCommentService_Delete_Success(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Comment, error) {
			return &model.Comment{ID: id, MemeID: 10, UserID: 1}, nil
		},
		deleteFn: func(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
			return 10, nil
		},
	}
	memeRepo := &mockMemeRepository{}
	svc := NewCommentService(db, commentRepo, memeRepo, &mockUserRepository{})

	if err := svc.Delete(context.Background(), 55, 1); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if memeRepo.commentDelta != -1 {
		t.Errorf("comment count delta = %d, want -1", memeRepo.commentDelta)
	}
}

func TestCommentService_Delete_NotOwner(t *testing.T) {
	db, _ := newMockDB(t)
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Comment, error) {
			return &model.Comment{ID: id, MemeID: 10, UserID: 1}, nil
		},
	}
	svc := NewCommentService(db, commentRepo, &mockMemeRepository{}, &mockUserRepository{})

	// Someone else's comment is forbidden, not missing.
	if err := svc.Delete(context.Background(), 55, 2); !errors.Is(err, model.ErrNotCommentOwner) {
		t.Fatalf("expected ErrNotCommentOwner, got: %v", err)
	}
}

func TestCommentService_Delete_NotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewCommentService(db, &mockCommentRepository{}, &mockMemeRepository{}, &mockUserRepository{})

	if err := svc.Delete(context.Background(), 404, 1); !errors.Is(err, model.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got: %v", err)
	}
}

func TestCommentService_List_MemeNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		existsFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	svc := NewCommentService(db, &mockCommentRepository{}, memeRepo, &mockUserRepository{})

	if _, err := svc.List(context.Background(), 404, 10, 0); !errors.Is(err, model.ErrMemeNotFound) {
		t.Fatalf("expected ErrMemeNotFound, got: %v", err)
	}
}
