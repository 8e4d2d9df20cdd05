package models

import (
	"time"
)

// User is the identity row owned by the auth layer; only what feeds need is kept.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// UserStanding holds karma and moderation state, one row per user, created on first access.
type UserStanding struct {
	UserID           string     `gorm:"primaryKey;size:36" json:"user_id"`
	User             User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Karma            float64    `gorm:"not null;default:0;index" json:"karma"`
	KarmaLastUpdated *time.Time `json:"karma_last_updated"`
	Role             string     `gorm:"size:20;default:'user';not null" json:"role"` // user, moderator
	Verified         bool       `gorm:"not null;default:false" json:"verified"`
	BannedUntil      *time.Time `json:"banned_until"`
	BanReason        *string    `gorm:"size:200" json:"ban_reason"`
	MutedUntil       *time.Time `json:"muted_until"`
	MuteReason       *string    `gorm:"size:200" json:"mute_reason"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *UserStanding) IsModerator() bool {
	return s.Role == RoleModerator
}

func (s *UserStanding) IsBanned(now time.Time) bool {
	return s.BannedUntil != nil && now.Before(*s.BannedUntil)
}

func (s *UserStanding) IsMuted(now time.Time) bool {
	return s.MutedUntil != nil && now.Before(*s.MutedUntil)
}
