package repository

import (
	"context"
	"errors"
	"time"

	"babel/internal/errs"
	"babel/internal/models"
	"babel/internal/utils"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Get(ctx context.Context, id string) (*models.Comment, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// Hide reports whether the comment was visible-by-flag before the call.
	Hide(ctx context.Context, id string) (bool, error)
	IncrementCounter(ctx context.Context, id string, field CounterField, delta int) error

	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	FetchVisibleNewest(ctx context.Context, since time.Time, limit int, cursor *utils.Cursor) ([]models.Comment, error)
	FetchVisibleByAuthor(ctx context.Context, username string, limit int, cursor *utils.Cursor) ([]models.Comment, error)
}

type commentRepository struct {
	db        *gorm.DB
	threshold int
}

func NewCommentRepository(db *gorm.DB, threshold int) CommentRepository {
	return &commentRepository{db: db, threshold: threshold}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("User", "Post").Create(comment).Error
}

func (r *commentRepository) Get(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Select("comments.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.id = ?", id).
		First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound(errs.CodeCommentNotFound, "comment not found")
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(errs.CodeCommentNotFound, "comment not found")
	}
	return nil
}

func (r *commentRepository) Hide(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND hidden = ?", id, false).
		Updates(map[string]interface{}{"hidden": true})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// already hidden, or missing
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *commentRepository) IncrementCounter(ctx context.Context, id string, field CounterField, delta int) error {
	return IncrementCounter(ctx, r.db, models.CommentTarget(id), field, delta)
}

// ListByPost returns every comment of a post, hidden ones included, oldest
// first. Thread assembly decides what to show.
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Select("comments.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC").Order("comments.id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) activity(ctx context.Context, limit int, cursor *utils.Cursor) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("comments.*, users.username AS username, posts.title AS post_title, parents.text AS parent_text").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Joins("LEFT JOIN posts ON posts.id = comments.post_id").
		Joins("LEFT JOIN comments parents ON parents.id = comments.parent_id").
		Scopes(visible("comments", r.threshold), olderThan("comments", cursor), newestFirst("comments")).
		Limit(limit)
}

func (r *commentRepository) FetchVisibleNewest(ctx context.Context, since time.Time, limit int, cursor *utils.Cursor) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.activity(ctx, limit, cursor).
		Where("comments.created_at > ?", since.UTC()).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) FetchVisibleByAuthor(ctx context.Context, username string, limit int, cursor *utils.Cursor) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.activity(ctx, limit, cursor).
		Where("users.username = ?", username).
		Find(&comments).Error
	return comments, err
}
