package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"memehub/internal/model"
	"memehub/internal/repository"
)

// CommentService handles comments on memes.
type CommentService struct {
	db          *sqlx.DB
	commentRepo repository.CommentRepository
	memeRepo    repository.MemeRepository
	userRepo    repository.UserRepository
}

func NewCommentService(db *sqlx.DB, commentRepo repository.CommentRepository, memeRepo repository.MemeRepository, userRepo repository.UserRepository) *CommentService {
	return &CommentService{
		db:          db,
		commentRepo: commentRepo,
		memeRepo:    memeRepo,
		userRepo:    userRepo,
	}
}

// Add creates a comment and bumps the meme's counter in one
// transaction. Whitespace-only text is rejected.
func (s *CommentService) Add(ctx context.Context, memeID, userID int64, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrCommentTextRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	exists, err := s.memeRepo.Exists(ctx, memeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrMemeNotFound
	}

	comment := &model.Comment{
		MemeID: memeID,
		UserID: userID,
		Text:   text,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.commentRepo.Create(ctx, tx, comment); err != nil {
		return nil, err
	}
	if err := s.memeRepo.IncrementCommentCount(ctx, tx, memeID, 1); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit comment: %w", err)
	}

	// Attach the author so the response is renderable immediately.
	summaries, err := s.userRepo.GetSummaries(ctx, []int64{userID})
	if err != nil {
		log.Printf("[CommentService] Author enrichment failed for comment %d: %v", comment.ID, err)
	} else {
		comment.Author = summaries[userID]
	}

	return comment, nil
}

// List pages over a meme's comments, newest first, authors attached.
func (s *CommentService) List(ctx context.Context, memeID int64, limit, offset int) ([]*model.Comment, error) {
	exists, err := s.memeRepo.Exists(ctx, memeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrMemeNotFound
	}

	return s.commentRepo.GetByMemeID(ctx, memeID, limit, offset)
}

// Delete removes a comment. Only the comment's author may delete it;
// a missing comment and someone else's comment are distinct failures.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return model.ErrNotCommentOwner
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	memeID, err := s.commentRepo.Delete(ctx, tx, commentID)
	if err != nil {
		return err
	}
	if err := s.memeRepo.IncrementCommentCount(ctx, tx, memeID, -1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comment deletion: %w", err)
	}
	return nil
}
