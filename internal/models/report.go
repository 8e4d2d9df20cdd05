package models

import (
	"time"

	"gorm.io/gorm"
)

type Report struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_reports_user_post;uniqueIndex:idx_reports_user_comment" json:"user_id"` // Reporter
	PostID    *string   `gorm:"size:36;index;uniqueIndex:idx_reports_user_post" json:"post_id"`
	CommentID *string   `gorm:"size:36;index;uniqueIndex:idx_reports_user_comment" json:"comment_id"`
	Reason    string    `gorm:"size:200;not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func NewReport(id, userID string, target Target, reason string) Report {
	postID, commentID := target.refs()
	return Report{ID: id, UserID: userID, PostID: postID, CommentID: commentID, Reason: reason}
}

func (r *Report) Target() Target {
	return targetFromRefs(r.PostID, r.CommentID)
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if (r.PostID == nil) == (r.CommentID == nil) {
		return ErrInvalidTarget
	}
	return nil
}
