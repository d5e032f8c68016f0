package models

import "time"

// Role values stored on user accounts.
const (
	RoleGuest  = "guest"
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User represents a registered forum participant. Accounts are never hard-deleted.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:16;not null;default:member;index" json:"role"`
	Reputation   int        `gorm:"not null;default:0" json:"reputation"`
	Bio          string     `gorm:"size:500" json:"bio"`
	AvatarURL    string     `gorm:"size:512" json:"avatar_url"`
	IsBanned     bool       `gorm:"not null;default:false;index" json:"is_banned"`
	BanReason    string     `gorm:"size:500" json:"ban_reason"`
	BannedAt     *time.Time `json:"banned_at"`
	BannedBy     *uint      `json:"banned_by"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the account holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleGuest, RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}
