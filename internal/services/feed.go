package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"babel/internal/config"
	"babel/internal/errs"
	"babel/internal/logger"
	"babel/internal/models"
	"babel/internal/repository"
	"babel/internal/utils"

	"go.uber.org/zap"
)

// Title prefixes of the category feeds.
const (
	AskPrefix   = "اسال بابل: "
	SharePrefix = "شارك بابل: "
)

// FeedQuery selects one page of the ranked feed. Zero values fall back to
// configured defaults.
type FeedQuery struct {
	UserID     string
	PageSize   int
	WindowDays int
	Page       int
}

type RankedFeed struct {
	Posts      []utils.RankedPost `json:"posts"`
	HasMore    bool               `json:"has_more"`
	TotalPosts int                `json:"total_posts"`
}

// CursorQuery selects one page of a time-ordered feed. Cursor is the raw
// token from the client; a malformed token starts from the newest item.
type CursorQuery struct {
	UserID     string
	PageSize   int
	WindowDays int
	Cursor     string
}

type PostPage struct {
	Posts      []models.Post `json:"posts"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type CommentPage struct {
	Comments   []models.Comment `json:"comments"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

type FeedService struct {
	store *repository.Store
	cache utils.Cache
	cfg   config.FeedConfig
	ttl   time.Duration
	now   Clock
}

// NewFeedService builds the feed service. cache may be nil, in which case
// every ranked request recomputes the window.
func NewFeedService(store *repository.Store, cache utils.Cache, cfg config.FeedConfig, ttl time.Duration, clock Clock) *FeedService {
	if clock == nil {
		clock = utcNow
	}
	return &FeedService{store: store, cache: cache, cfg: cfg, ttl: ttl, now: clock}
}

func (s *FeedService) pageSize(n int) int {
	if n <= 0 {
		return s.cfg.PageSize
	}
	return n
}

func windowOr(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	return days
}

func rankedCacheKey(days int) string {
	return fmt.Sprintf("feed:ranked:%dd", days)
}

// GetRankedFeed ranks the whole window once and slices the requested page
// from it, so ranks are stable across pages of the same computation.
func (s *FeedService) GetRankedFeed(ctx context.Context, q FeedQuery) (*RankedFeed, error) {
	size := s.pageSize(q.PageSize)
	days := windowOr(q.WindowDays, s.cfg.HotWindowDays)

	ranked, err := s.rankedWindow(ctx, days)
	if err != nil {
		return nil, err
	}

	start, end, hasMore := utils.PageWindow(len(ranked), q.Page, size)
	page := make([]utils.RankedPost, end-start)
	copy(page, ranked[start:end])

	posts := make([]*models.Post, len(page))
	for i := range page {
		posts[i] = &page[i].Post
	}
	if err := s.decoratePosts(ctx, q.UserID, posts); err != nil {
		return nil, err
	}

	return &RankedFeed{Posts: page, HasMore: hasMore, TotalPosts: len(ranked)}, nil
}

// rankedWindow returns the cached ranking for a window or computes it.
// Only the user-independent ranking is cached.
func (s *FeedService) rankedWindow(ctx context.Context, days int) ([]utils.RankedPost, error) {
	key := rankedCacheKey(days)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			var ranked []utils.RankedPost
			if err := json.Unmarshal(data, &ranked); err == nil {
				return ranked, nil
			}
			logger.Warn("discarding undecodable ranked feed", zap.String("key", key))
		}
	}

	now := s.now()
	posts, err := s.store.Posts.FetchVisibleInWindow(ctx, now.AddDate(0, 0, -days), s.cfg.RankWindowLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ranked window: %w", err)
	}
	ranked := utils.Rank(posts, now)

	if s.cache != nil {
		if data, err := json.Marshal(ranked); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				logger.Warn("cache ranked feed failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return ranked, nil
}

// GetNewestFeed pages visible posts in the window, newest first.
func (s *FeedService) GetNewestFeed(ctx context.Context, q CursorQuery) (*PostPage, error) {
	days := windowOr(q.WindowDays, s.cfg.NewestWindowDays)
	since := s.now().AddDate(0, 0, -days)
	return s.postPage(ctx, q, func(limit int, c *utils.Cursor) ([]models.Post, error) {
		return s.store.Posts.FetchVisibleInWindow(ctx, since, limit, c)
	})
}

func (s *FeedService) GetAskFeed(ctx context.Context, q CursorQuery) (*PostPage, error) {
	return s.GetPrefixFeed(ctx, AskPrefix, q)
}

func (s *FeedService) GetShareFeed(ctx context.Context, q CursorQuery) (*PostPage, error) {
	return s.GetPrefixFeed(ctx, SharePrefix, q)
}

// GetPrefixFeed pages posts whose title starts with prefix in any alef spelling.
func (s *FeedService) GetPrefixFeed(ctx context.Context, prefix string, q CursorQuery) (*PostPage, error) {
	days := windowOr(q.WindowDays, s.cfg.NewestWindowDays)
	since := s.now().AddDate(0, 0, -days)
	variants := utils.AlefVariants(prefix)
	return s.postPage(ctx, q, func(limit int, c *utils.Cursor) ([]models.Post, error) {
		return s.store.Posts.FetchVisibleByPrefix(ctx, variants, since, limit, c)
	})
}

func (s *FeedService) GetUserFeed(ctx context.Context, username string, q CursorQuery) (*PostPage, error) {
	if _, err := s.store.Users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.postPage(ctx, q, func(limit int, c *utils.Cursor) ([]models.Post, error) {
		return s.store.Posts.FetchVisibleByAuthor(ctx, username, limit, c)
	})
}

// GetMonthFeed pages the posts of one calendar month (UTC), given as YYYY-MM.
func (s *FeedService) GetMonthFeed(ctx context.Context, month string, q CursorQuery) (*PostPage, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, errs.Invalid(errs.CodeInvalidInput, "month must look like 2006-01").Wrap(err)
	}
	end := start.AddDate(0, 1, 0)
	return s.postPage(ctx, q, func(limit int, c *utils.Cursor) ([]models.Post, error) {
		return s.store.Posts.FetchVisibleByMonth(ctx, start, end, limit, c)
	})
}

// PastMonths lists months that have visible posts, newest first.
func (s *FeedService) PastMonths(ctx context.Context) ([]MonthCount, error) {
	times, err := s.store.Posts.VisibleCreationTimes(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, t := range times {
		counts[t.UTC().Format("2006-01")]++
	}
	months := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		months = append(months, MonthCount{Month: m, Count: n})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
	return months, nil
}

func (s *FeedService) GetNewestComments(ctx context.Context, q CursorQuery) (*CommentPage, error) {
	days := windowOr(q.WindowDays, s.cfg.NewestWindowDays)
	since := s.now().AddDate(0, 0, -days)
	return s.commentPage(ctx, q, func(limit int, c *utils.Cursor) ([]models.Comment, error) {
		return s.store.Comments.FetchVisibleNewest(ctx, since, limit, c)
	})
}

func (s *FeedService) GetUserComments(ctx context.Context, username string, q CursorQuery) (*CommentPage, error) {
	if _, err := s.store.Users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.commentPage(ctx, q, func(limit int, c *utils.Cursor) ([]models.Comment, error) {
		return s.store.Comments.FetchVisibleByAuthor(ctx, username, limit, c)
	})
}

func (s *FeedService) parseCursor(raw string) *utils.Cursor {
	c := utils.ParseCursor(raw)
	if c == nil && raw != "" {
		logger.Debug("ignoring malformed cursor", zap.String("cursor", raw))
	}
	return c
}

// postPage runs the fetch-pageSize+1 protocol and decorates the result.
func (s *FeedService) postPage(ctx context.Context, q CursorQuery, fetch func(limit int, c *utils.Cursor) ([]models.Post, error)) (*PostPage, error) {
	size := s.pageSize(q.PageSize)
	rows, err := fetch(size+1, s.parseCursor(q.Cursor))
	if err != nil {
		return nil, err
	}
	rows, hasMore := utils.TrimPage(rows, size)

	posts := make([]*models.Post, len(rows))
	for i := range rows {
		posts[i] = &rows[i]
	}
	if err := s.decoratePosts(ctx, q.UserID, posts); err != nil {
		return nil, err
	}

	page := &PostPage{Posts: rows, HasMore: hasMore}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	if page.Posts == nil {
		page.Posts = []models.Post{}
	}
	return page, nil
}

func (s *FeedService) commentPage(ctx context.Context, q CursorQuery, fetch func(limit int, c *utils.Cursor) ([]models.Comment, error)) (*CommentPage, error) {
	size := s.pageSize(q.PageSize)
	rows, err := fetch(size+1, s.parseCursor(q.Cursor))
	if err != nil {
		return nil, err
	}
	rows, hasMore := utils.TrimPage(rows, size)

	comments := make([]*models.Comment, len(rows))
	for i := range rows {
		comments[i] = &rows[i]
	}
	if err := decorateComments(ctx, s.store, q.UserID, comments); err != nil {
		return nil, err
	}

	page := &CommentPage{Comments: rows, HasMore: hasMore}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	if page.Comments == nil {
		page.Comments = []models.Comment{}
	}
	return page, nil
}

func (s *FeedService) decoratePosts(ctx context.Context, userID string, posts []*models.Post) error {
	return decoratePosts(ctx, s.store, userID, posts)
}

// decoratePosts fills DidVote/DidReport for userID with one lookup per state.
func decoratePosts(ctx context.Context, store *repository.Store, userID string, posts []*models.Post) error {
	if userID == "" || len(posts) == 0 {
		return nil
	}
	targets := make([]models.Target, len(posts))
	for i, p := range posts {
		targets[i] = p.Target()
	}
	votes, reports, err := engagementState(ctx, store, userID, targets)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.DidVote = votes[p.ID]
		p.DidReport = reports[p.ID]
	}
	return nil
}

func decorateComments(ctx context.Context, store *repository.Store, userID string, comments []*models.Comment) error {
	if userID == "" || len(comments) == 0 {
		return nil
	}
	targets := make([]models.Target, len(comments))
	for i, c := range comments {
		targets[i] = c.Target()
	}
	votes, reports, err := engagementState(ctx, store, userID, targets)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.DidVote = votes[c.ID]
		c.DidReport = reports[c.ID]
	}
	return nil
}

func engagementState(ctx context.Context, store *repository.Store, userID string, targets []models.Target) (votes, reports map[string]bool, err error) {
	votes, err = store.Engagement.VoteState(ctx, userID, targets)
	if err != nil {
		return nil, nil, fmt.Errorf("vote state: %w", err)
	}
	reports, err = store.Engagement.ReportState(ctx, userID, targets)
	if err != nil {
		return nil, nil, fmt.Errorf("report state: %w", err)
	}
	return votes, reports, nil
}
