package repository

import (
	"context"
	"time"

	"babel/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository interface {
	Award(ctx context.Context, userID, badgeID string, at time.Time) error
	Revoke(ctx context.Context, userID, badgeID string) error
	List(ctx context.Context, userID string) ([]models.UserBadge, error)
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

// Award is idempotent: awarding a held badge keeps the original issue time.
func (r *badgeRepository) Award(ctx context.Context, userID, badgeID string, at time.Time) error {
	row := models.UserBadge{
		ID:       uuid.NewString(),
		UserID:   userID,
		BadgeID:  badgeID,
		IssuedAt: at.UTC(),
	}
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// Revoke removes the badge if held; revoking a missing badge is not an error.
func (r *badgeRepository) Revoke(ctx context.Context, userID, badgeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Delete(&models.UserBadge{}).Error
}

func (r *badgeRepository) List(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var rows []models.UserBadge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}
