package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"memehub/internal/httputil"
	"memehub/internal/model"
	"memehub/internal/service"
	"memehub/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// Add handles POST /memes/{id}/comments
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	memeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid meme ID")
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Add(r.Context(), memeID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentTextRequired):
			httputil.WriteBadRequest(w, "Comment text is required")
		case errors.Is(err, model.ErrCommentTooLong):
			httputil.WriteBadRequest(w, "Comment too long (max 2200 characters)")
		case errors.Is(err, model.ErrMemeNotFound):
			httputil.WriteNotFound(w, "Meme not found")
		default:
			log.Printf("[ERROR] Add comment handler: user=%d meme=%d err=%v", userID, memeID, err)
			httputil.WriteInternalError(w, "Failed to add comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /memes/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	memeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid meme ID")
		return
	}

	limit, offset := parsePagination(r)

	comments, err := h.commentService.List(r.Context(), memeID, limit, offset)
	if err != nil {
		if errors.Is(err, model.ErrMemeNotFound) {
			httputil.WriteNotFound(w, "Meme not found")
			return
		}
		log.Printf("[ERROR] List comments handler: meme=%d err=%v", memeID, err)
		httputil.WriteInternalError(w, "Failed to list comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.CommentListResponse{
		Comments: comments,
		Limit:    limit,
		Offset:   offset,
	})
}

// Delete handles DELETE /memes/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	err = h.commentService.Delete(r.Context(), commentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrNotCommentOwner):
			httputil.WriteForbidden(w, "You can only delete your own comments")
		default:
			log.Printf("[ERROR] Delete comment handler: user=%d comment=%d err=%v", userID, commentID, err)
			httputil.WriteInternalError(w, "Failed to delete comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}
