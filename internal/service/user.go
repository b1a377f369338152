package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"memehub/internal/model"
	"memehub/internal/repository"
)

// UserService handles business logic for user accounts and profiles.
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
	media      *MediaService
}

func NewUserService(repo repository.UserRepository, followRepo repository.FollowRepository, media *MediaService) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
		media:      media,
	}
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if req.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		PasswordHashed: string(hashedPassword),
	}

	// The unique constraints are authoritative; the repository maps
	// violations to ErrUsernameExists / ErrEmailExists.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the account exists.
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile retrieves a user's profile with follow status from the
// viewer's perspective. A failed follow check degrades to false rather
// than failing the profile.
func (s *UserService) GetProfile(ctx context.Context, userID int64, viewerID *int64) (*model.Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{User: *user}

	if viewerID != nil && *viewerID != userID {
		isFollowing, err := s.followRepo.Exists(ctx, *viewerID, userID)
		if err != nil {
			log.Printf("[UserService] Follow check failed for viewer %d on user %d: %v", *viewerID, userID, err)
		} else {
			profile.IsFollowing = isFollowing
		}
	}

	return profile, nil
}

// UpdateProfile changes username and/or bio for the authenticated user.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		if trimmed == "" {
			return nil, fmt.Errorf("username cannot be blank")
		}
		req.Username = &trimmed
	}
	return s.repo.UpdateProfile(ctx, userID, req.Username, req.Bio)
}

// UpdateAvatar uploads the new picture, points the profile at it, and
// then removes the previous object.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.media.UploadAvatar(ctx, file, header)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfilePic(ctx, userID, result.URL, result.Key); err != nil {
		// Roll back the orphaned upload.
		if delErr := s.media.DeleteObject(ctx, result.Key); delErr != nil {
			log.Printf("[UserService] Failed to clean up avatar %s: %v", result.Key, delErr)
		}
		return nil, err
	}

	if user.ProfilePicKey != nil {
		if err := s.media.DeleteObject(ctx, *user.ProfilePicKey); err != nil {
			log.Printf("[UserService] Failed to delete old avatar %s: %v", *user.ProfilePicKey, err)
		}
	}

	return s.repo.GetByID(ctx, userID)
}

// Search finds users by username or email prefix, with follow status from
// the viewer's perspective when authenticated.
func (s *UserService) Search(ctx context.Context, query string, limit, offset int, viewerID *int64) ([]*model.UserSummary, error) {
	users, err := s.repo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}

	if viewerID != nil && len(users) > 0 {
		if err := s.enrichWithFollowStatus(ctx, *viewerID, users); err != nil {
			log.Printf("[UserService] Follow enrichment failed for viewer %d: %v", *viewerID, err)
		}
	}

	return users, nil
}

func (s *UserService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []*model.UserSummary) error {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, ids)
	if err != nil {
		return err
	}

	for _, u := range users {
		u.IsFollowing = followMap[u.ID]
	}
	return nil
}
