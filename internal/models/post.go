package models

import (
	"time"
)

type Post struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;not null;index" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title        string    `gorm:"not null;index" json:"title"`
	URL          *string   `json:"url,omitempty"` // Optional
	Text         *string   `gorm:"type:text" json:"text,omitempty"`
	Votes        int       `gorm:"not null;default:0" json:"votes"`
	CommentCount int       `gorm:"not null;default:0" json:"comment_count"`
	ReportCount  int       `gorm:"not null;default:0" json:"report_count"`
	Hidden       bool      `gorm:"not null;default:false;index" json:"hidden"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 非数据库字段，查询时按当前用户填充
	Username  string `gorm:"->;-:migration" json:"username"`
	DidVote   bool   `gorm:"-" json:"did_vote"`
	DidReport bool   `gorm:"-" json:"did_report"`
}

// Target returns the vote/report target for this post.
func (p *Post) Target() Target {
	return PostTarget(p.ID)
}
