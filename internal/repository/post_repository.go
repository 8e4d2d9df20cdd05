package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"babel/internal/errs"
	"babel/internal/models"
	"babel/internal/utils"

	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, id string) (*models.Post, error)
	GetVisible(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Hide(ctx context.Context, id string) error
	IncrementCounter(ctx context.Context, id string, field CounterField, delta int) error
	ReserveCommentSlot(ctx context.Context, id string, limit int) (bool, error)

	FetchVisibleInWindow(ctx context.Context, since time.Time, limit int, cursor *utils.Cursor) ([]models.Post, error)
	FetchVisibleByPrefix(ctx context.Context, prefixes []string, since time.Time, limit int, cursor *utils.Cursor) ([]models.Post, error)
	FetchVisibleByAuthor(ctx context.Context, username string, limit int, cursor *utils.Cursor) ([]models.Post, error)
	FetchVisibleByMonth(ctx context.Context, start, end time.Time, limit int, cursor *utils.Cursor) ([]models.Post, error)
	VisibleCreationTimes(ctx context.Context) ([]time.Time, error)
}

type postRepository struct {
	db        *gorm.DB
	threshold int
}

func NewPostRepository(db *gorm.DB, threshold int) PostRepository {
	return &postRepository{db: db, threshold: threshold}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("User").Create(post).Error
}

func (r *postRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.withAuthor(ctx).Where("posts.id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound(errs.CodePostNotFound, "post not found")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetVisible(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !utils.IsVisible(post.Hidden, post.ReportCount, r.threshold) {
		return nil, errs.NotFound(errs.CodePostNotFound, "post not found")
	}
	return post, nil
}

func (r *postRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(errs.CodePostNotFound, "post not found")
	}
	return nil
}

// Hide soft-deletes a post. Rows are never removed.
func (r *postRepository) Hide(ctx context.Context, id string) error {
	return r.Update(ctx, id, map[string]interface{}{"hidden": true})
}

func (r *postRepository) IncrementCounter(ctx context.Context, id string, field CounterField, delta int) error {
	return IncrementCounter(ctx, r.db, models.PostTarget(id), field, delta)
}

// ReserveCommentSlot bumps comment_count only while it is below limit, so
// the cap holds under concurrent submissions.
func (r *postRepository) ReserveCommentSlot(ctx context.Context, id string, limit int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND comment_count < ?", id, limit).
		UpdateColumn(string(FieldCommentCount), deltaExpr(FieldCommentCount, 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = posts.user_id")
}

func (r *postRepository) feed(ctx context.Context, limit int, cursor *utils.Cursor) *gorm.DB {
	return r.withAuthor(ctx).
		Scopes(visible("posts", r.threshold), olderThan("posts", cursor), newestFirst("posts")).
		Limit(limit)
}

// FetchVisibleInWindow returns visible posts created after since, newest first.
func (r *postRepository) FetchVisibleInWindow(ctx context.Context, since time.Time, limit int, cursor *utils.Cursor) ([]models.Post, error) {
	var posts []models.Post
	err := r.feed(ctx, limit, cursor).
		Where("posts.created_at > ?", since.UTC()).
		Find(&posts).Error
	return posts, err
}

// FetchVisibleByPrefix matches titles starting with any of prefixes.
func (r *postRepository) FetchVisibleByPrefix(ctx context.Context, prefixes []string, since time.Time, limit int, cursor *utils.Cursor) ([]models.Post, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(prefixes))
	args := make([]interface{}, 0, len(prefixes))
	for _, p := range prefixes {
		conds = append(conds, `posts.title LIKE ? ESCAPE '\'`)
		args = append(args, utils.EscapeLike(p)+"%")
	}

	var posts []models.Post
	err := r.feed(ctx, limit, cursor).
		Where("posts.created_at > ?", since.UTC()).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) FetchVisibleByAuthor(ctx context.Context, username string, limit int, cursor *utils.Cursor) ([]models.Post, error) {
	var posts []models.Post
	err := r.feed(ctx, limit, cursor).
		Where("users.username = ?", username).
		Find(&posts).Error
	return posts, err
}

// FetchVisibleByMonth returns visible posts with start <= created_at < end.
func (r *postRepository) FetchVisibleByMonth(ctx context.Context, start, end time.Time, limit int, cursor *utils.Cursor) ([]models.Post, error) {
	var posts []models.Post
	err := r.feed(ctx, limit, cursor).
		Where("posts.created_at >= ? AND posts.created_at < ?", start.UTC(), end.UTC()).
		Find(&posts).Error
	return posts, err
}

// VisibleCreationTimes feeds the month index; grouping happens in Go so the
// query stays portable between postgres and sqlite.
func (r *postRepository) VisibleCreationTimes(ctx context.Context) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(visible("posts", r.threshold)).
		Order("posts.created_at DESC").
		Pluck("posts.created_at", &times).Error
	return times, err
}
