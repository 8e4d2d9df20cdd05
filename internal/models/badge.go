package models

import (
	"time"
)

// 徽章 ID，展示信息见 BadgeCatalog
const (
	BadgeVerified       = "email_verified"
	BadgeEarlyAdopter   = "early_adopter"
	BadgeTopContributor = "top_contributor"
	BadgeModerator      = "moderator"
)

type BadgeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BadgeCatalog is the set of badges that can be awarded.
var BadgeCatalog = map[string]BadgeInfo{
	BadgeVerified: {
		Name:        "بريد موثق",
		Description: "هذا المستخدم قام بتوثيق بريده الإلكتروني",
	},
	BadgeEarlyAdopter: {
		Name:        "مستخدم مبكر",
		Description: "هذا المستخدم من أوائل المنضمين للمنصة",
	},
	BadgeTopContributor: {
		Name:        "مساهم نشط",
		Description: "هذا المستخدم مساهم نشط في المجتمع",
	},
	BadgeModerator: {
		Name:        "مشرف",
		Description: "هذا المستخدم أحد مشرفي المنصة",
	},
}

// UserBadge records that a user holds a badge. A user holds each badge at most once.
type UserBadge struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	UserID   string    `gorm:"size:36;not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	User     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BadgeID  string    `gorm:"size:50;not null;index;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	IssuedAt time.Time `gorm:"not null" json:"issued_at"`
	Info     BadgeInfo `gorm:"-" json:"info"`
}
