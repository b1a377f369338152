package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"memehub/internal/httputil"
	"memehub/internal/model"
	"memehub/internal/service"
	"memehub/internal/transport/http/middleware"
)

type MemeHandler struct {
	memeService *service.MemeService
}

func NewMemeHandler(memeService *service.MemeService) *MemeHandler {
	return &MemeHandler{memeService: memeService}
}

// Create handles POST /memes (multipart form: image, caption, tags)
// Tags arrive as a comma-separated field.
func (h *MemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(model.MaxMemeSizeBytes); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "Image file is required")
		return
	}
	defer file.Close()

	caption := r.FormValue("caption")
	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	meme, err := h.memeService.Create(r.Context(), userID, caption, tags, file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoImage):
			httputil.WriteBadRequest(w, "Image file is required")
		case errors.Is(err, model.ErrCaptionTooLong):
			httputil.WriteBadRequest(w, "Caption too long (max 2200 characters)")
		case errors.Is(err, model.ErrTooManyTags):
			httputil.WriteBadRequest(w, "Too many tags (max 30)")
		case errors.Is(err, model.ErrTagTooLong):
			httputil.WriteBadRequest(w, "Tag too long (max 64 characters)")
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds the size limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type")
		default:
			log.Printf("[ERROR] Create meme handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create meme")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, meme)
}

// GetByID handles GET /memes/{id}
func (h *MemeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	memeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid meme ID")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	meme, err := h.memeService.GetByID(r.Context(), memeID, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrMemeNotFound) {
			httputil.WriteNotFound(w, "Meme not found")
			return
		}
		log.Printf("[ERROR] Get meme handler: meme=%d err=%v", memeID, err)
		httputil.WriteInternalError(w, "Failed to get meme")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, meme)
}

// Update handles PUT /memes/{id}
func (h *MemeHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req model.UpdateMemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	meme, err := h.memeService.Update(r.Context(), memeID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMemeNotFound):
			httputil.WriteNotFound(w, "Meme not found")
		case errors.Is(err, model.ErrNotMemeOwner):
			httputil.WriteForbidden(w, "You can only edit your own memes")
		case errors.Is(err, model.ErrCaptionTooLong):
			httputil.WriteBadRequest(w, "Caption too long (max 2200 characters)")
		case errors.Is(err, model.ErrTooManyTags):
			httputil.WriteBadRequest(w, "Too many tags (max 30)")
		case errors.Is(err, model.ErrTagTooLong):
			httputil.WriteBadRequest(w, "Tag too long (max 64 characters)")
		default:
			log.Printf("[ERROR] Update meme handler: user=%d meme=%d err=%v", userID, memeID, err)
			httputil.WriteInternalError(w, "Failed to update meme")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, meme)
}

// Delete handles DELETE /memes/{id}
func (h *MemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	err = h.memeService.Delete(r.Context(), memeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMemeNotFound):
			httputil.WriteNotFound(w, "Meme not found")
		case errors.Is(err, model.ErrNotMemeOwner):
			httputil.WriteForbidden(w, "You can only delete your own memes")
		default:
			log.Printf("[ERROR] Delete meme handler: user=%d meme=%d err=%v", userID, memeID, err)
			httputil.WriteInternalError(w, "Failed to delete meme")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// GetUserMemes handles GET /users/{id}/memes
func (h *MemeHandler) GetUserMemes(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	limit, offset := parsePagination(r)

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	memes, err := h.memeService.GetUserMemes(r.Context(), userID, limit, offset, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Get user memes handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get memes")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.MemeListResponse{
		Memes:  memes,
		Limit:  limit,
		Offset: offset,
	})
}

// Like handles POST /memes/{id}/like
// Liking an already-liked meme succeeds without moving the counter.
func (h *MemeHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.memeService.Like, "like")
}

// Unlike handles POST /memes/{id}/unlike
func (h *MemeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.memeService.Unlike, "unlike")
}

func (h *MemeHandler) toggleLike(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, memeID, userID int64) (bool, error), what string) {
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

	changed, err := op(r.Context(), memeID, userID)
	if err != nil {
		if errors.Is(err, model.ErrMemeNotFound) {
			httputil.WriteNotFound(w, "Meme not found")
			return
		}
		log.Printf("[ERROR] %s handler: user=%d meme=%d err=%v", what, userID, memeID, err)
		httputil.WriteInternalError(w, "Failed to "+what+" meme")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}
