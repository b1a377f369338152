package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"

	"memehub/internal/model"
	"memehub/internal/queue"
)

func TestMemeService_Like_NewLike(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	memeRepo := &mockMemeRepository{}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	changed, err := svc.Like(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !changed {
		t.Error("expected changed=true for a new like")
	}
	if memeRepo.likeDelta != 1 {
		t.Errorf("like delta = %d, want 1", memeRepo.likeDelta)
	}
}

func TestMemeService_Like_AlreadyLiked(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	memeRepo := &mockMemeRepository{
		likeFn: func(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	// Liking twice succeeds but reports no change and leaves the counter alone.
	changed, err := svc.Like(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if changed {
		t.Error("expected changed=false for a duplicate like")
	}
	if memeRepo.likeDelta != 0 {
		t.Errorf("like delta = %d, want 0", memeRepo.likeDelta)
	}
}

func TestMemeService_Like_MemeNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		existsFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	if _, err := svc.Like(context.Background(), 404, 1); !errors.Is(err, model.ErrMemeNotFound) {
		t.Fatalf("expected ErrMemeNotFound, got: %v", err)
	}
}

func TestMemeService_Unlike_NotLiked(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	memeRepo := &mockMemeRepository{
		unlikeFn: func(ctx context.Context, tx *sqlx.Tx, memeID, userID int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	changed, err := svc.Unlike(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if changed {
		t.Error("expected changed=false when the like did not exist")
	}
	if memeRepo.likeDelta != 0 {
		t.Errorf("like delta = %d, want 0", memeRepo.likeDelta)
	}
}

func TestMemeService_Update_NotOwner(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		getAuthorIDFn: func(ctx context.Context, id int64) (int64, error) { return 1, nil },
	}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	caption := "new caption"
	_, err := svc.Update(context.Background(), 10, 2, &model.UpdateMemeRequest{Caption: &caption})
	if !errors.Is(err, model.ErrNotMemeOwner) {
		t.Fatalf("expected ErrNotMemeOwner, got: %v", err)
	}
}

func TestMemeService_Update_CaptionTooLong(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		getAuthorIDFn: func(ctx context.Context, id int64) (int64, error) { return 1, nil },
	}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	caption := string(make([]byte, model.MaxCaptionLength+1))
	_, err := svc.Update(context.Background(), 10, 1, &model.UpdateMemeRequest{Caption: &caption})
	if !errors.Is(err, model.ErrCaptionTooLong) {
		t.Fatalf("expected ErrCaptionTooLong, got: %v", err)
	}
}

func TestMemeService_Delete_NotOwner(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		getAuthorIDFn: func(ctx context.Context, id int64) (int64, error) { return 1, nil },
	}
	svc := NewMemeService(db, memeRepo, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	if err := svc.Delete(context.Background(), 10, 2); !errors.Is(err, model.ErrNotMemeOwner) {
		t.Fatalf("expected ErrNotMemeOwner, got: %v", err)
	}
}

func TestMemeService_Delete_NotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewMemeService(db, &mockMemeRepository{}, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	if err := svc.Delete(context.Background(), 404, 1); !errors.Is(err, model.ErrMemeNotFound) {
		t.Fatalf("expected ErrMemeNotFound, got: %v", err)
	}
}

func TestMemeService_GetByID_EnrichesViewerState(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Meme, error) {
			return &model.Meme{ID: id, UserID: 3, LikeCount: 5}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, memeIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{10: true}, nil
		},
	}
	userRepo := &mockUserRepository{
		getSummariesFn: func(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error) {
			return map[int64]*model.UserSummary{3: {ID: 3, Username: "author"}}, nil
		},
	}
	followRepo := &mockFollowRepository{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			return followerID == 1 && followeeID == 3, nil
		},
	}
	svc := NewMemeService(db, memeRepo, userRepo, &mockCommentRepository{}, followRepo, nil, nil)

	viewerID := int64(1)
	meme, err := svc.GetByID(context.Background(), 10, &viewerID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !meme.IsLiked {
		t.Error("expected is_liked to be true")
	}
	if meme.Author == nil || meme.Author.Username != "author" {
		t.Errorf("author = %+v, want username %q", meme.Author, "author")
	}
	// The single-meme view reports the same follow state the feed does.
	if !meme.Author.IsFollowing {
		t.Error("expected is_following to be true for a followed author")
	}
}

func TestMemeService_GetByID_OwnMemeNotFollowing(t *testing.T) {
	db, _ := newMockDB(t)
	memeRepo := &mockMemeRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Meme, error) {
			return &model.Meme{ID: id, UserID: 1}, nil
		},
	}
	userRepo := &mockUserRepository{
		getSummariesFn: func(ctx context.Context, ids []int64) (map[int64]*model.UserSummary, error) {
			return map[int64]*model.UserSummary{1: {ID: 1, Username: "self"}}, nil
		},
	}
	followRepo := &mockFollowRepository{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			t.Error("follow check should be skipped for the viewer's own meme")
			return false, nil
		},
	}
	svc := NewMemeService(db, memeRepo, userRepo, &mockCommentRepository{}, followRepo, nil, nil)

	viewerID := int64(1)
	meme, err := svc.GetByID(context.Background(), 10, &viewerID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if meme.Author == nil || meme.Author.IsFollowing {
		t.Errorf("author = %+v, want is_following=false on own meme", meme.Author)
	}
}

func TestMemeService_GetUserMemes_UnknownUser(t *testing.T) {
	db, _ := newMockDB(t)
	userRepo := &mockUserRepository{
		existsFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	svc := NewMemeService(db, &mockMemeRepository{}, userRepo, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	if _, err := svc.GetUserMemes(context.Background(), 404, 10, 0, nil); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr error
	}{
		{
			name: "trims lowercases dedupes",
			in:   []string{" Funny ", "cats", "FUNNY", "", "  "},
			want: []string{"funny", "cats"},
		},
		{
			name: "nil input",
			in:   nil,
			want: []string{},
		},
		{
			name:    "tag too long",
			in:      []string{string(make([]byte, model.MaxTagLength+1))},
			wantErr: model.ErrTagTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeTags(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeTags_TooMany(t *testing.T) {
	tags := make([]string, model.MaxTagCount+1)
	for i := range tags {
		tags[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	if _, err := normalizeTags(tags); !errors.Is(err, model.ErrTooManyTags) {
		t.Fatalf("expected ErrTooManyTags, got: %v", err)
	}
}

func TestMemeService_Create_Validation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewMemeService(db, &mockMemeRepository{}, &mockUserRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, nil, nil)

	longCaption := string(make([]byte, model.MaxCaptionLength+1))
	if _, err := svc.Create(context.Background(), 1, longCaption, nil, nil, nil); !errors.Is(err, model.ErrCaptionTooLong) {
		t.Errorf("expected ErrCaptionTooLong, got: %v", err)
	}

	if _, err := svc.Create(context.Background(), 1, "fine", nil, nil, nil); !errors.Is(err, model.ErrNoImage) {
		t.Errorf("expected ErrNoImage, got: %v", err)
	}
}

func TestMemeService_Delete_PublishesRetraction(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	memeRepo := &mockMemeRepository{
		getAuthorIDFn: func(ctx context.Context, id int64) (int64, error) { return 1, nil },
		deleteFn: func(ctx context.Context, tx *sqlx.Tx, id int64) (string, error) {
			return "", nil
		},
	}
	userRepo := &mockUserRepository{}
	pub := &mockPublisher{}
	svc := NewMemeService(db, memeRepo, userRepo, &mockCommentRepository{}, &mockFollowRepository{}, nil, pub)

	if err := svc.Delete(context.Background(), 10, 1); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if userRepo.memeDelta != -1 {
		t.Errorf("meme count delta = %d, want -1", userRepo.memeDelta)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].Type != queue.EventMemeDeleted || pub.events[0].MemeID != 10 {
		t.Errorf("unexpected event: %+v", pub.events[0])
	}
}
