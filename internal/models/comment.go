package models

import (
	"time"
)

type Comment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	PostID      string    `gorm:"size:36;not null;index" json:"post_id"`
	Post        Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID      string    `gorm:"size:36;not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID    *string   `gorm:"size:36;index" json:"parent_id"` // Nullable for top-level comments
	Text        string    `gorm:"type:text;not null" json:"text"`
	Votes       int       `gorm:"not null;default:0" json:"votes"`
	ReportCount int       `gorm:"not null;default:0" json:"report_count"`
	Hidden      bool      `gorm:"not null;default:false;index" json:"hidden"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Username   string  `gorm:"->;-:migration" json:"username"`
	PostTitle  string  `gorm:"->;-:migration" json:"post_title,omitempty"`
	ParentText *string `gorm:"->;-:migration" json:"parent_text,omitempty"`
	DidVote    bool    `gorm:"-" json:"did_vote"`
	DidReport  bool    `gorm:"-" json:"did_report"`
}

func (c *Comment) Target() Target {
	return CommentTarget(c.ID)
}
