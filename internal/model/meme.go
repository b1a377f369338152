package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Meme represents a shared image post with its denormalized engagement
// counters. Likes and comments live in their own tables; like_count and
// comment_count are maintained transactionally with each mutation.
type Meme struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	ImageURL     string         `db:"image_url" json:"image_url"`
	StorageKey   string         `db:"storage_key" json:"-"` // blob reference, kept for delete
	Caption      string         `db:"caption" json:"caption"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	LikeCount    int            `db:"like_count" json:"like_count"`
	CommentCount int            `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`

	// Joined fields (not in the memes table)
	Author         *UserSummary `json:"author,omitempty"`
	IsLiked        bool         `json:"is_liked"`
	RecentComments []*Comment   `json:"recent_comments,omitempty"`
}

// UpdateMemeRequest is the request body for editing a meme. Only caption
// and tags are mutable; nil means "leave unchanged".
type UpdateMemeRequest struct {
	Caption *string  `json:"caption,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// FeedResponse is a limit/offset page of enriched memes.
type FeedResponse struct {
	Memes  []*Meme `json:"memes"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// MemeListResponse is a limit/offset page of a single user's memes.
type MemeListResponse struct {
	Memes  []*Meme `json:"memes"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Meme constraints
const (
	MaxCaptionLength = 2200 // Instagram's caption limit
	MaxTagCount      = 30
	MaxTagLength     = 64
)

// Meme errors
var (
	ErrMemeNotFound   = errors.New("meme not found")
	ErrNotMemeOwner   = errors.New("not the owner of this meme")
	ErrNoImage        = errors.New("an image is required")
	ErrCaptionTooLong = errors.New("caption too long")
	ErrTooManyTags    = errors.New("too many tags")
	ErrTagTooLong     = errors.New("tag too long")
)
