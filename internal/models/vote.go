package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidTarget = errors.New("exactly one of post_id and comment_id must be set")

// Vote rows are unique per (user, post) and per (user, comment). NULLs are
// distinct in both postgres and sqlite, so a comment vote never collides on
// the post index and vice versa.
type Vote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_votes_user_post;uniqueIndex:idx_votes_user_comment" json:"user_id"`
	PostID    *string   `gorm:"size:36;index;uniqueIndex:idx_votes_user_post" json:"post_id"`
	CommentID *string   `gorm:"size:36;index;uniqueIndex:idx_votes_user_comment" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewVote(id, userID string, target Target) Vote {
	postID, commentID := target.refs()
	return Vote{ID: id, UserID: userID, PostID: postID, CommentID: commentID}
}

func (v *Vote) Target() Target {
	return targetFromRefs(v.PostID, v.CommentID)
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if (v.PostID == nil) == (v.CommentID == nil) {
		return ErrInvalidTarget
	}
	return nil
}
