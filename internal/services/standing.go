package services

import (
	"context"
	"strings"
	"time"

	"babel/internal/errs"
	"babel/internal/logger"
	"babel/internal/models"
	"babel/internal/repository"

	"go.uber.org/zap"
)

// ModerationStatus is what the UI shows about a user's restrictions.
type ModerationStatus struct {
	Banned      bool       `json:"banned"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	BanReason   *string    `json:"ban_reason,omitempty"`
	Muted       bool       `json:"muted"`
	MutedUntil  *time.Time `json:"muted_until,omitempty"`
	MuteReason  *string    `json:"mute_reason,omitempty"`
	Role        string     `json:"role"`
	Verified    bool       `json:"verified"`
}

type StandingService struct {
	store *repository.Store
	now   Clock
}

func NewStandingService(store *repository.Store, clock Clock) *StandingService {
	if clock == nil {
		clock = utcNow
	}
	return &StandingService{store: store, now: clock}
}

// Get returns the user's standing, creating the default row on first access.
func (s *StandingService) Get(ctx context.Context, userID string) (*models.UserStanding, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Standings.GetOrCreate(ctx, userID)
}

func (s *StandingService) ModerationStatus(ctx context.Context, userID string) (*ModerationStatus, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	status := &ModerationStatus{Role: st.Role, Verified: st.Verified}
	if st.IsBanned(now) {
		status.Banned = true
		status.BannedUntil = st.BannedUntil
		status.BanReason = st.BanReason
	}
	if st.IsMuted(now) {
		status.Muted = true
		status.MutedUntil = st.MutedUntil
		status.MuteReason = st.MuteReason
	}
	return status, nil
}

// CheckCanPost rejects banned and muted users. Ban wins when both apply.
func (s *StandingService) CheckCanPost(ctx context.Context, userID string) (*models.UserStanding, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if st.IsBanned(now) {
		return nil, errs.Forbidden(errs.CodeUserBanned, "user is banned")
	}
	if st.IsMuted(now) {
		return nil, errs.Forbidden(errs.CodeUserMuted, "user is muted")
	}
	return st, nil
}

// IsModerator reports whether userID holds the moderator role.
func (s *StandingService) IsModerator(ctx context.Context, userID string) (bool, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.IsModerator(), nil
}

func (s *StandingService) Ban(ctx context.Context, userID string, d time.Duration, reason string) error {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if st.IsModerator() {
		return errs.Forbidden(errs.CodeModeratorProtected, "moderators cannot be banned")
	}
	until := s.now().Add(d)
	logger.Info("banning user", zap.String("user_id", userID), zap.Time("until", until))
	return s.store.Standings.Update(ctx, userID, map[string]interface{}{
		"banned_until": until,
		"ban_reason":   optionalReason(reason),
	})
}

func (s *StandingService) Unban(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.store.Standings.Update(ctx, userID, map[string]interface{}{
		"banned_until": nil,
		"ban_reason":   nil,
	})
}

func (s *StandingService) Mute(ctx context.Context, userID string, d time.Duration, reason string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	until := s.now().Add(d)
	logger.Info("muting user", zap.String("user_id", userID), zap.Time("until", until))
	return s.store.Standings.Update(ctx, userID, map[string]interface{}{
		"muted_until": until,
		"mute_reason": optionalReason(reason),
	})
}

func (s *StandingService) Unmute(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.store.Standings.Update(ctx, userID, map[string]interface{}{
		"muted_until": nil,
		"mute_reason": nil,
	})
}

// Verify sets the verified flag and awards or revokes the matching badge.
func (s *StandingService) Verify(ctx context.Context, userID string, verified bool) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Standings.Update(ctx, userID, map[string]interface{}{"verified": verified}); err != nil {
			return err
		}
		return s.syncBadge(ctx, tx, userID, models.BadgeVerified, verified)
	})
}

// SetRole changes the role; the moderator badge follows the moderator role.
func (s *StandingService) SetRole(ctx context.Context, userID, role string) error {
	if role != models.RoleUser && role != models.RoleModerator {
		return errs.Invalid(errs.CodeInvalidInput, "role must be user or moderator")
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Standings.Update(ctx, userID, map[string]interface{}{"role": role}); err != nil {
			return err
		}
		return s.syncBadge(ctx, tx, userID, models.BadgeModerator, role == models.RoleModerator)
	})
}

func (s *StandingService) syncBadge(ctx context.Context, tx *repository.Store, userID, badgeID string, held bool) error {
	if held {
		return tx.Badges.Award(ctx, userID, badgeID, s.now())
	}
	return tx.Badges.Revoke(ctx, userID, badgeID)
}

// Badges lists the user's badges, oldest first, with display text filled in.
func (s *StandingService) Badges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	badges, err := s.store.Badges.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range badges {
		badges[i].Info = models.BadgeCatalog[badges[i].BadgeID]
	}
	if badges == nil {
		badges = []models.UserBadge{}
	}
	return badges, nil
}

// AwardBadge grants a badge; awarding one already held is a no-op.
func (s *StandingService) AwardBadge(ctx context.Context, userID, badgeID string) error {
	if err := checkBadge(badgeID); err != nil {
		return err
	}
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return err
	}
	logger.Info("awarding badge", zap.String("user_id", userID), zap.String("badge", badgeID))
	return s.store.Badges.Award(ctx, userID, badgeID, s.now())
}

func (s *StandingService) RevokeBadge(ctx context.Context, userID, badgeID string) error {
	if err := checkBadge(badgeID); err != nil {
		return err
	}
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return err
	}
	return s.store.Badges.Revoke(ctx, userID, badgeID)
}

func checkBadge(badgeID string) error {
	if _, ok := models.BadgeCatalog[badgeID]; !ok {
		return errs.Invalid(errs.CodeInvalidInput, "unknown badge")
	}
	return nil
}

// AdjustKarma applies a manual karma change with its ledger row.
func (s *StandingService) AdjustKarma(ctx context.Context, userID string, amount float64, action string) (*models.UserStanding, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(action) == "" {
		action = ActionModeratorAdjusted
	}
	var st *models.UserStanding
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Standings.AddKarma(ctx, userID, amount, action); err != nil {
			return err
		}
		var err error
		st, err = tx.Standings.GetOrCreate(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *StandingService) TopKarma(ctx context.Context, limit int) ([]models.UserStanding, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Standings.TopKarma(ctx, limit)
}

func (s *StandingService) KarmaHistory(ctx context.Context, userID string, limit int) ([]models.KarmaLog, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.Standings.KarmaLogs(ctx, userID, limit)
}

func optionalReason(reason string) interface{} {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil
	}
	return reason
}
