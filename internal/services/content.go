package services

import (
	"context"
	"strings"
	"time"

	"babel/internal/config"
	"babel/internal/errs"
	"babel/internal/logger"
	"babel/internal/models"
	"babel/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultCommentCap is the number of comments after which a post is closed.
	DefaultCommentCap   = 500
	DefaultEditCooldown = 60 * time.Minute
)

type NewPost struct {
	Title string  `json:"title"`
	URL   *string `json:"url"`
	Text  *string `json:"text"`
}

// PostEdit carries the fields to change; nil fields are left alone.
type PostEdit struct {
	Title *string `json:"title"`
	URL   *string `json:"url"`
	Text  *string `json:"text"`
}

type NewComment struct {
	PostID   string  `json:"post_id"`
	ParentID *string `json:"parent_id"`
	Text     string  `json:"text"`
}

type Thread struct {
	Post     *models.Post   `json:"post"`
	Comments []*CommentNode `json:"comments"`
}

// ContentService runs the post and comment submission flows.
type ContentService struct {
	store    *repository.Store
	standing *StandingService
	cfg      config.ModerationConfig
	now      Clock
}

func NewContentService(store *repository.Store, standing *StandingService, cfg config.ModerationConfig, clock Clock) *ContentService {
	if clock == nil {
		clock = utcNow
	}
	if cfg.CommentCap <= 0 {
		cfg.CommentCap = DefaultCommentCap
	}
	if cfg.EditCooldown <= 0 {
		cfg.EditCooldown = DefaultEditCooldown
	}
	return &ContentService{store: store, standing: standing, cfg: cfg, now: clock}
}

func (s *ContentService) CreatePost(ctx context.Context, userID string, in NewPost) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errs.Invalid(errs.CodeInvalidInput, "title is required")
	}
	if _, err := s.standing.CheckCanPost(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		URL:       trimmedOrNil(in.URL),
		Text:      trimmedOrNil(in.Text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	logger.Info("post created", zap.String("post_id", post.ID), zap.String("user_id", userID))
	return s.store.Posts.Get(ctx, post.ID)
}

// EditPost changes a post within the edit window. Moderators may edit any
// post at any time.
func (s *ContentService) EditPost(ctx context.Context, userID, postID string, edit PostEdit) (*models.Post, error) {
	actor, err := s.standing.CheckCanPost(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.Posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(actor, post.UserID, post.CreatedAt); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if edit.Title != nil {
		title := strings.TrimSpace(*edit.Title)
		if title == "" {
			return nil, errs.Invalid(errs.CodeInvalidInput, "title is required")
		}
		fields["title"] = title
	}
	if edit.URL != nil {
		fields["url"] = trimmedOrNil(edit.URL)
	}
	if edit.Text != nil {
		fields["text"] = trimmedOrNil(edit.Text)
	}
	if len(fields) > 0 {
		fields["updated_at"] = s.now()
		if err := s.store.Posts.Update(ctx, postID, fields); err != nil {
			return nil, err
		}
	}
	return s.store.Posts.Get(ctx, postID)
}

// HidePost soft-deletes a post. Only its author or a moderator may do it.
func (s *ContentService) HidePost(ctx context.Context, userID, postID string) error {
	post, err := s.store.Posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.checkOwnerOrModerator(ctx, userID, post.UserID); err != nil {
		return err
	}
	if err := s.store.Posts.Hide(ctx, postID); err != nil {
		return err
	}
	logger.Info("post hidden", zap.String("post_id", postID), zap.String("by", userID))
	return nil
}

// CreateComment adds a comment to a visible post. The post's comment count
// is bumped in the same transaction and is capped at the configured limit.
func (s *ContentService) CreateComment(ctx context.Context, userID string, in NewComment) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errs.Invalid(errs.CodeInvalidInput, "comment text is required")
	}
	if _, err := s.standing.CheckCanPost(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    in.PostID,
		UserID:    userID,
		ParentID:  in.ParentID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Posts.GetVisible(ctx, in.PostID); err != nil {
			return err
		}
		if in.ParentID != nil {
			parent, err := tx.Comments.Get(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent.PostID != in.PostID {
				return errs.Invalid(errs.CodeInvalidInput, "parent comment belongs to another post")
			}
		}
		ok, err := tx.Posts.ReserveCommentSlot(ctx, in.PostID, s.cfg.CommentCap)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Conflict(errs.CodeCommentsClosed, "comments are closed for this post")
		}
		return tx.Comments.Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Comments.Get(ctx, comment.ID)
}

func (s *ContentService) EditComment(ctx context.Context, userID, commentID, text string) (*models.Comment, error) {
	actor, err := s.standing.CheckCanPost(ctx, userID)
	if err != nil {
		return nil, err
	}
	comment, err := s.store.Comments.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(actor, comment.UserID, comment.CreatedAt); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.Invalid(errs.CodeInvalidInput, "comment text is required")
	}
	if err := s.store.Comments.Update(ctx, commentID, map[string]interface{}{
		"text":       text,
		"updated_at": s.now(),
	}); err != nil {
		return nil, err
	}
	return s.store.Comments.Get(ctx, commentID)
}

// HideComment soft-deletes a comment and releases its slot in the post's
// comment count. Hiding an already hidden comment changes nothing.
func (s *ContentService) HideComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.store.Comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.checkOwnerOrModerator(ctx, userID, comment.UserID); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		changed, err := tx.Comments.Hide(ctx, commentID)
		if err != nil || !changed {
			return err
		}
		return tx.Posts.IncrementCounter(ctx, comment.PostID, repository.FieldCommentCount, -1)
	})
}

// GetThread returns a visible post with its comment forest, decorated for userID.
func (s *ContentService) GetThread(ctx context.Context, userID, postID string) (*Thread, error) {
	post, err := s.store.Posts.GetVisible(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	roots := buildThread(comments, s.store.ReportThreshold())
	if roots == nil {
		roots = []*CommentNode{}
	}

	if err := decoratePosts(ctx, s.store, userID, []*models.Post{post}); err != nil {
		return nil, err
	}
	var shown []*models.Comment
	walkThread(roots, func(n *CommentNode) {
		if !n.Deleted {
			shown = append(shown, &n.Comment)
		}
	})
	if err := decorateComments(ctx, s.store, userID, shown); err != nil {
		return nil, err
	}
	return &Thread{Post: post, Comments: roots}, nil
}

// checkEditable applies the cooldown and ownership rules in that order.
func (s *ContentService) checkEditable(actor *models.UserStanding, ownerID string, createdAt time.Time) error {
	if actor.IsModerator() {
		return nil
	}
	if s.now().Sub(createdAt) > s.cfg.EditCooldown {
		return errs.Conflict(errs.CodeEditCooldown, "edit window has passed")
	}
	if actor.UserID != ownerID {
		return errs.Forbidden(errs.CodeUnauthorized, "not the author")
	}
	return nil
}

func (s *ContentService) checkOwnerOrModerator(ctx context.Context, userID, ownerID string) error {
	if userID == ownerID {
		return nil
	}
	mod, err := s.standing.IsModerator(ctx, userID)
	if err != nil {
		return err
	}
	if !mod {
		return errs.Forbidden(errs.CodeUnauthorized, "not the author")
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
