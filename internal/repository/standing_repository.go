package repository

import (
	"context"
	"errors"
	"time"

	"babel/internal/errs"
	"babel/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StandingRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.UserStanding, error)
	Update(ctx context.Context, userID string, fields map[string]interface{}) error
	AddKarma(ctx context.Context, userID string, amount float64, action string) error
	TopKarma(ctx context.Context, limit int) ([]models.UserStanding, error)
	KarmaLogs(ctx context.Context, userID string, limit int) ([]models.KarmaLog, error)
}

type standingRepository struct {
	db *gorm.DB
}

func NewStandingRepository(db *gorm.DB) StandingRepository {
	return &standingRepository{db: db}
}

// ensure inserts a default row when none exists. Concurrent first access is safe.
func (r *standingRepository) ensure(ctx context.Context, userID string) error {
	row := models.UserStanding{UserID: userID, Role: models.RoleUser}
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *standingRepository) GetOrCreate(ctx context.Context, userID string) (*models.UserStanding, error) {
	if err := r.ensure(ctx, userID); err != nil {
		return nil, err
	}
	var s models.UserStanding
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *standingRepository) Update(ctx context.Context, userID string, fields map[string]interface{}) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.UserStanding{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

// AddKarma writes the ledger row and applies the delta to the balance.
// Callers wanting atomicity with other writes run it inside Store.Transaction.
func (r *standingRepository) AddKarma(ctx context.Context, userID string, amount float64, action string) error {
	if err := r.ensure(ctx, userID); err != nil {
		return err
	}

	// 1. 创建明细记录
	entry := models.KarmaLog{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		Action: action,
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(&entry).Error; err != nil {
		return err
	}

	// 2. 更新余额
	return r.db.WithContext(ctx).Model(&models.UserStanding{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"karma":              gorm.Expr("karma + ?", amount),
			"karma_last_updated": time.Now().UTC(),
		}).Error
}

func (r *standingRepository) TopKarma(ctx context.Context, limit int) ([]models.UserStanding, error) {
	var rows []models.UserStanding
	err := r.db.WithContext(ctx).Order("karma DESC").Order("user_id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *standingRepository) KarmaLogs(ctx context.Context, userID string, limit int) ([]models.KarmaLog, error) {
	var rows []models.KarmaLog
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&rows).Error
	return rows, err
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound(errs.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
