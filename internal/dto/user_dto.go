package dto

import (
	"time"

	"github.com/noah-isme/forum-api/internal/models"
)

// UserSummary is the compact author block embedded in content responses.
type UserSummary struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Reputation int    `json:"reputation"`
	Role       string `json:"role"`
}

// NewUserSummary converts a user model into a summary.
func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:         user.ID,
		Username:   user.Username,
		AvatarURL:  user.AvatarURL,
		Reputation: user.Reputation,
		Role:       user.Role,
	}
}

// UserResponse is the full account representation.
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	Reputation  int        `json:"reputation"`
	Bio         string     `json:"bio"`
	AvatarURL   string     `json:"avatarUrl"`
	IsBanned    bool       `json:"isBanned"`
	BanReason   string     `json:"banReason,omitempty"`
	BannedAt    *time.Time `json:"bannedAt,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewUserResponse converts a user model. Email is only included when private is true.
func NewUserResponse(user models.User, private bool) UserResponse {
	response := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Reputation:  user.Reputation,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		IsBanned:    user.IsBanned,
		BanReason:   user.BanReason,
		BannedAt:    user.BannedAt,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	if private {
		response.Email = user.Email
	}
	return response
}

// UserStats summarises a user's contributions.
type UserStats struct {
	Questions       int64 `json:"questions"`
	Answers         int64 `json:"answers"`
	AcceptedAnswers int64 `json:"acceptedAnswers"`
}

// UserProfileResponse is returned by the profile endpoint.
type UserProfileResponse struct {
	User  UserResponse `json:"user"`
	Stats UserStats    `json:"stats"`
}

// UserListQuery filters the user directory.
type UserListQuery struct {
	Page   int
	Limit  int
	Search string
	Role   string `validate:"omitempty,oneof=guest member admin"`
}

// UserPagination adds the user total to page metadata.
type UserPagination struct {
	Pagination
	TotalUsers int64 `json:"totalUsers"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination UserPagination `json:"pagination"`
}

// UserUpdateRequest updates profile fields.
type UserUpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

// BanRequest bans an account. The reason is mandatory.
type BanRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RoleRequest changes an account role.
type RoleRequest struct {
	Role string `json:"role" validate:"required,max=16"`
}

// AvatarResponse describes the stored avatar.
type AvatarResponse struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
	Checksum  string `json:"checksum"`
	FileName  string `json:"fileName"`
}
