package model

import (
	"errors"
	"time"
)

// User represents a registered account.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Bio            string    `db:"bio" json:"bio"`
	ProfilePicURL  *string   `db:"profile_pic_url" json:"profile_pic_url"`
	ProfilePicKey  *string   `db:"profile_pic_key" json:"-"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	MemeCount      int       `db:"meme_count" json:"meme_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the denormalized author view attached to memes, comments
// and follow lists. It is joined at read time, never stored.
type UserSummary struct {
	ID            int64   `db:"id" json:"id"`
	Username      string  `db:"username" json:"username"`
	ProfilePicURL *string `db:"profile_pic_url" json:"profile_pic_url"`
	IsFollowing   bool    `json:"is_following"`
}

// Profile is a user enriched with viewer-relative state.
type Profile struct {
	User
	IsFollowing bool `json:"is_following"`
}

// RegisterRequest represents the data needed to register a new user.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful registration or login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpdateProfileRequest carries the mutable profile fields. Email and
// password are not editable through this path.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// UserListResponse is a limit/offset page of user summaries.
type UserListResponse struct {
	Users  []*UserSummary `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Error codes for auth responses
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
