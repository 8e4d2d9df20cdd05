package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"babel/internal/config"
	"babel/internal/db"
	"babel/internal/models"
	"babel/internal/repository"
	"babel/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	store *repository.Store
	cfg   *config.Config
	now   time.Time
	svc   *Services
}

func (e *env) clock() time.Time { return e.now }

func (e *env) advance(d time.Duration) { e.now = e.now.Add(d) }

// newEnv builds services over a fresh sqlite file. cache may be nil.
func newEnv(t *testing.T, cache utils.Cache, tweak ...func(*config.Config)) *env {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "board.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := config.Default()
	for _, f := range tweak {
		f(cfg)
	}
	e := &env{
		store: repository.NewStore(conn, cfg.Moderation.ReportThreshold),
		cfg:   cfg,
		now:   base,
	}
	e.svc = New(e.store, cache, cfg, e.clock)
	return e
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), Username: name}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

func (e *env) moderator(t *testing.T, name string) *models.User {
	t.Helper()
	u := e.user(t, name)
	require.NoError(t, e.svc.Standing.SetRole(context.Background(), u.ID, models.RoleModerator))
	return u
}

type postOpt func(*models.Post)

func withVotes(n int) postOpt { return func(p *models.Post) { p.Votes = n } }

func withReports(n int) postOpt { return func(p *models.Post) { p.ReportCount = n } }

func withTitle(s string) postOpt { return func(p *models.Post) { p.Title = s } }

func hidden() postOpt { return func(p *models.Post) { p.Hidden = true } }

func withID(id string) postOpt { return func(p *models.Post) { p.ID = id } }

func at(ts time.Time) postOpt { return func(p *models.Post) { p.CreatedAt = ts } }

func hoursAgo(h float64) postOpt {
	return at(base.Add(-time.Duration(h * float64(time.Hour))))
}

func (e *env) post(t *testing.T, author *models.User, opts ...postOpt) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		Title:     fmt.Sprintf("post %s", uuid.NewString()[:8]),
		CreatedAt: base,
	}
	for _, o := range opts {
		o(p)
	}
	require.NoError(t, e.store.Posts.Create(context.Background(), p))
	return p
}

func postIDs(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func rankedIDs(posts []utils.RankedPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Post.ID
	}
	return out
}
