package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"memehub/internal/model"
	"memehub/internal/queue"
	"memehub/internal/repository"
)

// MemeService handles the meme lifecycle: upload, read, edit, delete,
// and like state.
type MemeService struct {
	db          *sqlx.DB
	memeRepo    repository.MemeRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	media       *MediaService
	publisher   queue.Publisher
}

func NewMemeService(db *sqlx.DB, memeRepo repository.MemeRepository, userRepo repository.UserRepository, commentRepo repository.CommentRepository, followRepo repository.FollowRepository, media *MediaService, publisher queue.Publisher) *MemeService {
	return &MemeService{
		db:          db,
		memeRepo:    memeRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		media:       media,
		publisher:   publisher,
	}
}

// Create validates the upload, stores the image, and records the meme.
// The image goes to object storage before the transaction opens; if
// the insert fails the orphaned blob is deleted.
func (s *MemeService) Create(ctx context.Context, userID int64, caption string, tags []string, file multipart.File, header *multipart.FileHeader) (*model.Meme, error) {
	caption = strings.TrimSpace(caption)
	if len(caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	normalizedTags, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}

	if file == nil || header == nil {
		return nil, model.ErrNoImage
	}

	upload, err := s.media.UploadMemeImage(ctx, file, header)
	if err != nil {
		return nil, err
	}

	meme := &model.Meme{
		UserID:     userID,
		ImageURL:   upload.URL,
		StorageKey: upload.Key,
		Caption:    caption,
		Tags:       pq.StringArray(normalizedTags),
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.memeRepo.Create(ctx, tx, meme); err != nil {
			return err
		}
		return s.userRepo.IncrementMemeCount(ctx, tx, userID, 1)
	})
	if err != nil {
		if delErr := s.media.DeleteObject(ctx, upload.Key); delErr != nil {
			log.Printf("[MemeService] Failed to clean up orphaned image %s: %v", upload.Key, delErr)
		}
		return nil, err
	}

	s.publish(ctx, queue.FeedEvent{
		Type:      queue.EventMemePosted,
		MemeID:    meme.ID,
		AuthorID:  userID,
		CreatedAt: meme.CreatedAt,
	})

	s.enrichAuthor(ctx, meme, nil)
	return meme, nil
}

// GetByID returns one meme enriched with its author and, when a viewer
// is present, the viewer's like and follow state.
func (s *MemeService) GetByID(ctx context.Context, id int64, viewerID *int64) (*model.Meme, error) {
	meme, err := s.memeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.enrichAuthor(ctx, meme, viewerID)

	if viewerID != nil {
		likeMap, err := s.memeRepo.CheckLikes(ctx, *viewerID, []int64{id})
		if err != nil {
			log.Printf("[MemeService] Like check failed for meme %d: %v", id, err)
		} else {
			meme.IsLiked = likeMap[id]
		}
	}

	commentMap, err := s.commentRepo.GetRecentByMemeIDs(ctx, []int64{id}, RecentCommentsPerMeme)
	if err != nil {
		log.Printf("[MemeService] Comment enrichment failed for meme %d: %v", id, err)
	} else {
		meme.RecentComments = commentMap[id]
	}
	return meme, nil
}

// Update edits caption and/or tags. Only the author may edit.
func (s *MemeService) Update(ctx context.Context, id, userID int64, req *model.UpdateMemeRequest) (*model.Meme, error) {
	authorID, err := s.memeRepo.GetAuthorID(ctx, id)
	if err != nil {
		return nil, err
	}
	if authorID != userID {
		return nil, model.ErrNotMemeOwner
	}

	if req.Caption != nil {
		trimmed := strings.TrimSpace(*req.Caption)
		if len(trimmed) > model.MaxCaptionLength {
			return nil, model.ErrCaptionTooLong
		}
		req.Caption = &trimmed
	}

	var tags []string
	if req.Tags != nil {
		tags, err = normalizeTags(req.Tags)
		if err != nil {
			return nil, err
		}
	}

	meme, err := s.memeRepo.Update(ctx, id, req.Caption, tags)
	if err != nil {
		return nil, err
	}

	s.enrichAuthor(ctx, meme, nil)
	return meme, nil
}

// Delete removes the meme, its likes and comments via cascade, then
// deletes the stored image and queues feed retraction.
func (s *MemeService) Delete(ctx context.Context, id, userID int64) error {
	authorID, err := s.memeRepo.GetAuthorID(ctx, id)
	if err != nil {
		return err
	}
	if authorID != userID {
		return model.ErrNotMemeOwner
	}

	var storageKey string
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		storageKey, err = s.memeRepo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.userRepo.IncrementMemeCount(ctx, tx, userID, -1)
	})
	if err != nil {
		return err
	}

	// The row is gone; blob deletion is best effort.
	if err := s.media.DeleteObject(ctx, storageKey); err != nil {
		log.Printf("[MemeService] Failed to delete image %s for meme %d: %v", storageKey, id, err)
	}

	s.publish(ctx, queue.FeedEvent{
		Type:     queue.EventMemeDeleted,
		MemeID:   id,
		AuthorID: userID,
	})
	return nil
}

// GetUserMemes pages over one author's memes, newest first.
func (s *MemeService) GetUserMemes(ctx context.Context, userID int64, limit, offset int, viewerID *int64) ([]*model.Meme, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	memes, err := s.memeRepo.GetByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	s.enrichMemes(ctx, memes, viewerID)
	return memes, nil
}

// Like records the like. Returns true when the like was new, false
// when the user had already liked the meme. The counter only moves on
// a real transition.
func (s *MemeService) Like(ctx context.Context, memeID, userID int64) (bool, error) {
	exists, err := s.memeRepo.Exists(ctx, memeID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, model.ErrMemeNotFound
	}

	var changed bool
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		changed, err = s.memeRepo.Like(ctx, tx, memeID, userID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.memeRepo.IncrementLikeCount(ctx, tx, memeID, 1)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// Unlike removes the like. Returns false when there was nothing to remove.
func (s *MemeService) Unlike(ctx context.Context, memeID, userID int64) (bool, error) {
	exists, err := s.memeRepo.Exists(ctx, memeID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, model.ErrMemeNotFound
	}

	var changed bool
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		changed, err = s.memeRepo.Unlike(ctx, tx, memeID, userID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.memeRepo.IncrementLikeCount(ctx, tx, memeID, -1)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (s *MemeService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// enrichAuthor attaches the author summary with follow state relative
// to the viewer, when one is present and is not the author.
func (s *MemeService) enrichAuthor(ctx context.Context, meme *model.Meme, viewerID *int64) {
	summaries, err := s.userRepo.GetSummaries(ctx, []int64{meme.UserID})
	if err != nil {
		log.Printf("[MemeService] Author enrichment failed for meme %d: %v", meme.ID, err)
		return
	}
	meme.Author = summaries[meme.UserID]

	if meme.Author == nil || viewerID == nil || *viewerID == meme.UserID {
		return
	}
	following, err := s.followRepo.Exists(ctx, *viewerID, meme.UserID)
	if err != nil {
		log.Printf("[MemeService] Follow enrichment failed for meme %d: %v", meme.ID, err)
		return
	}
	meme.Author.IsFollowing = following
}

// enrichMemes attaches authors plus viewer like and follow state to a
// page of memes with batch queries. Enrichment failures degrade rather
// than fail the page.
func (s *MemeService) enrichMemes(ctx context.Context, memes []*model.Meme, viewerID *int64) {
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
		log.Printf("[MemeService] Author enrichment failed: %v", err)
	} else {
		for _, m := range memes {
			m.Author = summaries[m.UserID]
		}
	}

	if viewerID != nil {
		likeMap, err := s.memeRepo.CheckLikes(ctx, *viewerID, memeIDs)
		if err != nil {
			log.Printf("[MemeService] Like enrichment failed for viewer %d: %v", *viewerID, err)
		} else {
			for _, m := range memes {
				m.IsLiked = likeMap[m.ID]
			}
		}

		followMap, err := s.followRepo.CheckFollows(ctx, *viewerID, authorIDs)
		if err != nil {
			log.Printf("[MemeService] Follow enrichment failed for viewer %d: %v", *viewerID, err)
		} else {
			for _, m := range memes {
				if m.Author != nil {
					m.Author.IsFollowing = followMap[m.UserID]
				}
			}
		}
	}
}

func (s *MemeService) publish(ctx context.Context, event queue.FeedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[MemeService] Failed to publish %s event: %v", event.Type, err)
	}
}

// normalizeTags trims, lowercases, and dedupes while preserving order.
func normalizeTags(tags []string) ([]string, error) {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > model.MaxTagLength {
			return nil, model.ErrTagTooLong
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	if len(normalized) > model.MaxTagCount {
		return nil, model.ErrTooManyTags
	}
	return normalized, nil
}
