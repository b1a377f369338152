package handler

import (
	"context"
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

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Follow handles POST /users/{id}/follow
// Following a user twice succeeds without creating a second edge.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	followeeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = h.followService.Follow(r.Context(), followerID, followeeID)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": true})
	case errors.Is(err, model.ErrAlreadyFollowing):
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": false})
	case errors.Is(err, model.ErrCannotFollowSelf):
		httputil.WriteBadRequest(w, "You cannot follow yourself")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	default:
		log.Printf("[ERROR] Follow handler: follower=%d followee=%d err=%v", followerID, followeeID, err)
		httputil.WriteInternalError(w, "Failed to follow user")
	}
}

// Unfollow handles POST /users/{id}/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	followeeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = h.followService.Unfollow(r.Context(), followerID, followeeID)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": true})
	case errors.Is(err, model.ErrNotFollowing):
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"changed": false})
	case errors.Is(err, model.ErrCannotFollowSelf):
		httputil.WriteBadRequest(w, "You cannot unfollow yourself")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	default:
		log.Printf("[ERROR] Unfollow handler: follower=%d followee=%d err=%v", followerID, followeeID, err)
		httputil.WriteInternalError(w, "Failed to unfollow user")
	}
}

// GetFollowers handles GET /users/{id}/followers
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.listFollows(w, r, h.followService.GetFollowers, "followers")
}

// GetFollowing handles GET /users/{id}/following
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.listFollows(w, r, h.followService.GetFollowing, "following")
}

func (h *FollowHandler) listFollows(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID int64, limit, offset int, viewerID *int64) ([]*model.UserSummary, error), what string) {
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

	users, err := list(r.Context(), userID, limit, offset, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] List %s handler: user=%d err=%v", what, userID, err)
		httputil.WriteInternalError(w, "Failed to list "+what)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.UserListResponse{
		Users:  users,
		Limit:  limit,
		Offset: offset,
	})
}
