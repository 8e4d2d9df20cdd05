package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"babel/internal/errs"
	"babel/internal/logger"
	"babel/internal/models"
	"babel/internal/repository"
	"babel/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultReportReason = "unspecified"
	maxReportReason     = 200
)

type VoteResult struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Votes      int    `json:"votes"`
	Voted      bool   `json:"voted"`
}

type ReportResult struct {
	TargetType  string `json:"target_type"`
	TargetID    string `json:"target_id"`
	ReportCount int    `json:"report_count"`
	Reported    bool   `json:"reported"`
	Visible     bool   `json:"visible"`
}

// EngagementService records votes and reports. Each call changes the
// engagement row and its denormalized counter in one transaction.
type EngagementService struct {
	store        *repository.Store
	karmaPerVote float64
	now          Clock
}

func NewEngagementService(store *repository.Store, karmaPerVote float64, clock Clock) *EngagementService {
	if clock == nil {
		clock = utcNow
	}
	return &EngagementService{store: store, karmaPerVote: karmaPerVote, now: clock}
}

// targetRow is the part of a post or comment the recorder needs.
type targetRow struct {
	authorID    string
	votes       int
	reportCount int
	hidden      bool
}

func loadTarget(ctx context.Context, store *repository.Store, target models.Target) (*targetRow, error) {
	if target.IsComment() {
		c, err := store.Comments.Get(ctx, target.ID())
		if err != nil {
			return nil, err
		}
		return &targetRow{authorID: c.UserID, votes: c.Votes, reportCount: c.ReportCount, hidden: c.Hidden}, nil
	}
	p, err := store.Posts.Get(ctx, target.ID())
	if err != nil {
		return nil, err
	}
	return &targetRow{authorID: p.UserID, votes: p.Votes, reportCount: p.ReportCount, hidden: p.Hidden}, nil
}

func checkTarget(target models.Target) error {
	if !target.Valid() {
		return errs.Invalid(errs.CodeInvalidTarget, "vote target must be one post or one comment")
	}
	return nil
}

func (s *EngagementService) ApplyVote(ctx context.Context, userID string, target models.Target) (*VoteResult, error) {
	return s.vote(ctx, userID, target, true)
}

func (s *EngagementService) RetractVote(ctx context.Context, userID string, target models.Target) (*VoteResult, error) {
	return s.vote(ctx, userID, target, false)
}

func (s *EngagementService) vote(ctx context.Context, userID string, target models.Target, apply bool) (*VoteResult, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	result := &VoteResult{TargetType: target.Kind().String(), TargetID: target.ID(), Voted: apply}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		row, err := loadTarget(ctx, tx, target)
		if err != nil {
			return err
		}

		delta := 1
		if apply {
			vote := models.NewVote(uuid.NewString(), userID, target)
			vote.CreatedAt = s.now()
			if err := tx.Engagement.CreateVote(ctx, &vote); err != nil {
				return err
			}
		} else {
			delta = -1
			if err := tx.Engagement.DeleteVote(ctx, userID, target); err != nil {
				return err
			}
		}

		if err := repository.IncrementCounter(ctx, tx.DB(), target, repository.FieldVotes, delta); err != nil {
			return err
		}

		if row.authorID != userID && s.karmaPerVote != 0 {
			amount := s.karmaPerVote * float64(delta)
			if err := tx.Standings.AddKarma(ctx, row.authorID, amount, voteAction(target.IsPost(), apply)); err != nil {
				return err
			}
		}

		after, err := loadTarget(ctx, tx, target)
		if err != nil {
			return err
		}
		result.Votes = after.votes
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("vote recorded",
		zap.String("user_id", userID),
		zap.Stringer("target", target),
		zap.Bool("applied", apply),
		zap.Int("votes", result.Votes))
	return result, nil
}

// ApplyReport records a report with reason. An empty reason is stored as
// "unspecified"; long reasons are cut to the column size.
func (s *EngagementService) ApplyReport(ctx context.Context, userID string, target models.Target, reason string) (*ReportResult, error) {
	return s.report(ctx, userID, target, normalizeReason(reason), true)
}

func (s *EngagementService) RetractReport(ctx context.Context, userID string, target models.Target) (*ReportResult, error) {
	return s.report(ctx, userID, target, "", false)
}

func (s *EngagementService) report(ctx context.Context, userID string, target models.Target, reason string, apply bool) (*ReportResult, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	result := &ReportResult{TargetType: target.Kind().String(), TargetID: target.ID(), Reported: apply}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := loadTarget(ctx, tx, target); err != nil {
			return err
		}

		delta := 1
		if apply {
			report := models.NewReport(uuid.NewString(), userID, target, reason)
			report.CreatedAt = s.now()
			if err := tx.Engagement.CreateReport(ctx, &report); err != nil {
				return err
			}
		} else {
			delta = -1
			if err := tx.Engagement.DeleteReport(ctx, userID, target); err != nil {
				return err
			}
		}

		if err := repository.IncrementCounter(ctx, tx.DB(), target, repository.FieldReportCount, delta); err != nil {
			return err
		}

		after, err := loadTarget(ctx, tx, target)
		if err != nil {
			return err
		}
		result.ReportCount = after.reportCount
		result.Visible = utils.IsVisible(after.hidden, after.reportCount, tx.ReportThreshold())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if apply && !result.Visible {
		logger.Info("target hidden by reports",
			zap.Stringer("target", target),
			zap.Int("report_count", result.ReportCount))
	}
	return result, nil
}

func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return defaultReportReason
	}
	if utf8.RuneCountInString(reason) > maxReportReason {
		reason = string([]rune(reason)[:maxReportReason])
	}
	return reason
}

// RecountCounters rebuilds every denormalized counter from the rows it
// summarizes. It is the repair path for counter drift.
func (s *EngagementService) RecountCounters(ctx context.Context) error {
	start := s.now()
	if err := s.store.Engagement.RecountCounters(ctx); err != nil {
		return err
	}
	logger.Info("counters recounted", zap.Duration("took", s.now().Sub(start)))
	return nil
}
