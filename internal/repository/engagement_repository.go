package repository

import (
	"context"
	"fmt"

	"babel/internal/errs"
	"babel/internal/models"

	"gorm.io/gorm"
)

type EngagementRepository interface {
	CreateVote(ctx context.Context, vote *models.Vote) error
	DeleteVote(ctx context.Context, userID string, target models.Target) error
	CreateReport(ctx context.Context, report *models.Report) error
	DeleteReport(ctx context.Context, userID string, target models.Target) error

	// VoteState and ReportState answer "has userID acted on each target" in
	// one query per target kind. Keys are target IDs.
	VoteState(ctx context.Context, userID string, targets []models.Target) (map[string]bool, error)
	ReportState(ctx context.Context, userID string, targets []models.Target) (map[string]bool, error)

	CountVotes(ctx context.Context, target models.Target) (int64, error)
	RecountCounters(ctx context.Context) error
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) CreateVote(ctx context.Context, vote *models.Vote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if isDuplicate(err) {
		return errs.Conflict(errs.CodeDuplicateVote, "already voted").Wrap(err)
	}
	return err
}

func (r *engagementRepository) DeleteVote(ctx context.Context, userID string, target models.Target) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(byTarget(target)).
		Delete(&models.Vote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(errs.CodeVoteNotFound, "vote not found")
	}
	return nil
}

func (r *engagementRepository) CreateReport(ctx context.Context, report *models.Report) error {
	err := r.db.WithContext(ctx).Create(report).Error
	if isDuplicate(err) {
		return errs.Conflict(errs.CodeDuplicateReport, "already reported").Wrap(err)
	}
	return err
}

func (r *engagementRepository) DeleteReport(ctx context.Context, userID string, target models.Target) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(byTarget(target)).
		Delete(&models.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(errs.CodeReportNotFound, "report not found")
	}
	return nil
}

func (r *engagementRepository) VoteState(ctx context.Context, userID string, targets []models.Target) (map[string]bool, error) {
	return r.state(ctx, &models.Vote{}, userID, targets)
}

func (r *engagementRepository) ReportState(ctx context.Context, userID string, targets []models.Target) (map[string]bool, error) {
	return r.state(ctx, &models.Report{}, userID, targets)
}

func (r *engagementRepository) state(ctx context.Context, model interface{}, userID string, targets []models.Target) (map[string]bool, error) {
	out := make(map[string]bool, len(targets))
	if userID == "" || len(targets) == 0 {
		return out, nil
	}

	var postIDs, commentIDs []string
	for _, t := range targets {
		switch t.Kind() {
		case models.TargetPost:
			postIDs = append(postIDs, t.ID())
		case models.TargetComment:
			commentIDs = append(commentIDs, t.ID())
		}
	}

	lookup := func(column string, ids []string) error {
		if len(ids) == 0 {
			return nil
		}
		var hits []string
		err := r.db.WithContext(ctx).Model(model).
			Where("user_id = ? AND "+column+" IN ?", userID, ids).
			Pluck(column, &hits).Error
		if err != nil {
			return err
		}
		for _, id := range hits {
			out[id] = true
		}
		return nil
	}

	if err := lookup("post_id", postIDs); err != nil {
		return nil, err
	}
	if err := lookup("comment_id", commentIDs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *engagementRepository) CountVotes(ctx context.Context, target models.Target) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).Scopes(byTarget(target)).Count(&n).Error
	return n, err
}

// RecountCounters rebuilds every denormalized counter from its child rows.
// It is the repair path for counter drift and runs in one transaction.
func (r *engagementRepository) RecountCounters(ctx context.Context) error {
	stmts := []string{
		`UPDATE posts SET
			votes = (SELECT COUNT(*) FROM votes v WHERE v.post_id = posts.id),
			report_count = (SELECT COUNT(*) FROM reports rp WHERE rp.post_id = posts.id),
			comment_count = (SELECT COUNT(*) FROM comments c WHERE c.post_id = posts.id AND c.hidden = ?)`,
		`UPDATE comments SET
			votes = (SELECT COUNT(*) FROM votes v WHERE v.comment_id = comments.id),
			report_count = (SELECT COUNT(*) FROM reports rp WHERE rp.comment_id = comments.id)`,
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(stmts[0], false).Error; err != nil {
			return fmt.Errorf("recount posts: %w", err)
		}
		if err := tx.Exec(stmts[1]).Error; err != nil {
			return fmt.Errorf("recount comments: %w", err)
		}
		return nil
	})
}

func byTarget(target models.Target) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if target.IsComment() {
			return db.Where("comment_id = ?", target.ID())
		}
		return db.Where("post_id = ?", target.ID())
	}
}
