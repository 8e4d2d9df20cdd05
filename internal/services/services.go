package services

import (
	"time"

	"babel/internal/config"
	"babel/internal/repository"
	"babel/internal/utils"
)

// Clock supplies the current time. Tests pin it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// Services is the set every handler needs, built once at startup.
type Services struct {
	Feed       *FeedService
	Engagement *EngagementService
	Content    *ContentService
	Standing   *StandingService
}

func New(store *repository.Store, cache utils.Cache, cfg *config.Config, clock Clock) *Services {
	if clock == nil {
		clock = utcNow
	}
	standing := NewStandingService(store, clock)
	return &Services{
		Feed:       NewFeedService(store, cache, cfg.Feed, cfg.Cache.TTL, clock),
		Engagement: NewEngagementService(store, cfg.Karma.PerVote, clock),
		Content:    NewContentService(store, standing, cfg.Moderation, clock),
		Standing:   standing,
	}
}
