package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"memehub/internal/handler"
	"memehub/internal/httputil"
	authmw "memehub/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	FollowHandler  *handler.FollowHandler
	MemeHandler    *handler.MemeHandler
	CommentHandler *handler.CommentHandler
	FeedHandler    *handler.FeedHandler
	JWTSecret      string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes, no authentication required
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)

			// Current user endpoints
			r.Group(func(r chi.Router) {
				r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
				r.Get("/me", cfg.AuthHandler.Me)
				r.Put("/me", cfg.AuthHandler.UpdateMe)
				r.Put("/me/avatar", cfg.AuthHandler.UpdateAvatar)
			})
		})

		// Public user endpoints with optional authentication
		r.Route("/users", func(r chi.Router) {
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/search", cfg.UserHandler.Search)
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}", cfg.UserHandler.GetProfile)
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/following", cfg.FollowHandler.GetFollowing)
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/memes", cfg.MemeHandler.GetUserMemes)

			r.Group(func(r chi.Router) {
				r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
				r.Post("/{id}/follow", cfg.FollowHandler.Follow)
				r.Post("/{id}/unfollow", cfg.FollowHandler.Unfollow)
			})
		})

		r.Route("/memes", func(r chi.Router) {
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}", cfg.MemeHandler.GetByID)
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{id}/comments", cfg.CommentHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
				r.Post("/", cfg.MemeHandler.Create)
				r.Get("/feed", cfg.FeedHandler.GetFeed)
				r.Put("/{id}", cfg.MemeHandler.Update)
				r.Delete("/{id}", cfg.MemeHandler.Delete)
				r.Post("/{id}/like", cfg.MemeHandler.Like)
				r.Post("/{id}/unlike", cfg.MemeHandler.Unlike)
				r.Post("/{id}/comments", cfg.CommentHandler.Add)
				r.Delete("/comments/{commentId}", cfg.CommentHandler.Delete)
			})
		})
	})

	return r
}
