package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a meme.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	MemeID    int64        `db:"meme_id" json:"meme_id"`
	UserID    int64        `db:"user_id" json:"-"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// CommentListResponse is a limit/offset page of comments, newest first.
type CommentListResponse struct {
	Comments []*Comment `json:"comments"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrNotCommentOwner     = errors.New("not the owner of this comment")
	ErrCommentTextRequired = errors.New("comment text is required")
	ErrCommentTooLong      = errors.New("comment text too long")
)
