package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"memehub/internal/httputil"
	"memehub/internal/model"
	"memehub/internal/service"
	"memehub/internal/transport/http/middleware"
)

type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteConflict(w, "Username already taken")
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "Email already registered")
		case strings.Contains(err.Error(), "required"):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] Register handler: err=%v", err)
			httputil.WriteInternalError(w, "Failed to register")
		}
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("[ERROR] Register handler: token for user=%d err=%v", user.ID, err)
		httputil.WriteInternalError(w, "Failed to issue token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.LoginResponse{User: user, Token: token})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		log.Printf("[ERROR] Login handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("[ERROR] Login handler: token for user=%d err=%v", user.ID, err)
		httputil.WriteInternalError(w, "Failed to issue token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{User: user, Token: token})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Me handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT /auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteConflict(w, "Username already taken")
		case strings.Contains(err.Error(), "blank"):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] UpdateMe handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateAvatar handles PUT /auth/me/avatar (multipart form, field "avatar")
func (h *AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(model.MaxAvatarSizeBytes); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is required")
		return
	}
	defer file.Close()

	user, err := h.userService.UpdateAvatar(r.Context(), userID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds the size limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type")
		default:
			log.Printf("[ERROR] UpdateAvatar handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to update avatar")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
