package handler

import (
	"log"
	"net/http"

	"memehub/internal/httputil"
	"memehub/internal/model"
	"memehub/internal/service"
	"memehub/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// GetFeed handles GET /memes/feed
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit, offset := parsePagination(r)

	memes, err := h.feedService.GetFeed(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("[ERROR] Feed handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.FeedResponse{
		Memes:  memes,
		Limit:  limit,
		Offset: offset,
	})
}
