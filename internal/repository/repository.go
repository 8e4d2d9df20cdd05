package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"babel/internal/errs"
	"babel/internal/models"
	"babel/internal/utils"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db        *gorm.DB
	threshold int

	Posts      PostRepository
	Comments   CommentRepository
	Engagement EngagementRepository
	Standings  StandingRepository
	Users      UserRepository
	Badges     BadgeRepository
}

// NewStore wires every repository to db. threshold is the report count
// above which content stops being visible.
func NewStore(db *gorm.DB, threshold int) *Store {
	return &Store{
		db:         db,
		threshold:  threshold,
		Posts:      NewPostRepository(db, threshold),
		Comments:   NewCommentRepository(db, threshold),
		Engagement: NewEngagementRepository(db),
		Standings:  NewStandingRepository(db),
		Users:      NewUserRepository(db),
		Badges:     NewBadgeRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) ReportThreshold() int { return s.threshold }

// Transaction runs fn against a Store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.threshold))
	})
}

// CounterField names a denormalized counter column.
type CounterField string

const (
	FieldVotes        CounterField = "votes"
	FieldCommentCount CounterField = "comment_count"
	FieldReportCount  CounterField = "report_count"
)

func counterModel(kind models.TargetKind, field CounterField) (interface{}, error) {
	switch kind {
	case models.TargetPost:
		switch field {
		case FieldVotes, FieldCommentCount, FieldReportCount:
			return &models.Post{}, nil
		}
	case models.TargetComment:
		switch field {
		case FieldVotes, FieldReportCount:
			return &models.Comment{}, nil
		}
	}
	return nil, fmt.Errorf("no counter %q on %s", field, kind)
}

// deltaExpr adds delta relative to the stored value. Decrements clamp at zero.
func deltaExpr(field CounterField, delta int) interface{} {
	col := string(field)
	if delta >= 0 {
		return gorm.Expr(col+" + ?", delta)
	}
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}

// IncrementCounter applies delta to one counter as a single UPDATE, so
// concurrent callers never lose an increment.
func IncrementCounter(ctx context.Context, db *gorm.DB, target models.Target, field CounterField, delta int) error {
	model, err := counterModel(target.Kind(), field)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Model(model).
		Where("id = ?", target.ID()).
		UpdateColumn(string(field), deltaExpr(field, delta))
	if res.Error != nil {
		return fmt.Errorf("increment %s %s: %w", target, field, res.Error)
	}
	if res.RowsAffected == 0 {
		return targetNotFound(target)
	}
	return nil
}

func targetNotFound(target models.Target) error {
	if target.IsComment() {
		return errs.NotFound(errs.CodeCommentNotFound, "comment not found")
	}
	return errs.NotFound(errs.CodePostNotFound, "post not found")
}

// isDuplicate recognises unique violations whether or not the dialect
// translated them to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

// visible applies the visibility predicate to table.
func visible(table string, threshold int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".hidden = ? AND "+table+".report_count <= ?", false, threshold)
	}
}

// olderThan keeps rows strictly after the cursor in (created_at DESC, id DESC) order.
func olderThan(table string, c *utils.Cursor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if c == nil {
			return db
		}
		if c.ID == "" {
			return db.Where(table+".created_at < ?", c.CreatedAt)
		}
		return db.Where("("+table+".created_at < ? OR ("+table+".created_at = ? AND "+table+".id < ?))",
			c.CreatedAt, c.CreatedAt, c.ID)
	}
}

func newestFirst(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at DESC").Order(table + ".id DESC")
	}
}
