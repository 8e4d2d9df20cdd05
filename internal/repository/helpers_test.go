package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"babel/internal/config"
	"babel/internal/db"
	"babel/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
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
	return NewStore(conn, 10)
}

func seedUser(t *testing.T, s *Store, username string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), Username: username}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

type postOpt func(*models.Post)

func withVotes(n int) postOpt       { return func(p *models.Post) { p.Votes = n } }
func withReports(n int) postOpt     { return func(p *models.Post) { p.ReportCount = n } }
func hidden() postOpt               { return func(p *models.Post) { p.Hidden = true } }
func withTitle(s string) postOpt    { return func(p *models.Post) { p.Title = s } }
func withID(id string) postOpt      { return func(p *models.Post) { p.ID = id } }
func createdAt(t time.Time) postOpt { return func(p *models.Post) { p.CreatedAt = t } }
func hoursAgo(h float64) postOpt {
	return createdAt(base.Add(-time.Duration(h * float64(time.Hour))))
}

func seedPost(t *testing.T, s *Store, author *models.User, opts ...postOpt) *models.Post {
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
	require.NoError(t, s.Posts.Create(context.Background(), p))
	return p
}

func seedComment(t *testing.T, s *Store, author *models.User, post *models.Post, parent *models.Comment, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    author.ID,
		Text:      "comment",
		CreatedAt: at,
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, s.Comments.Create(context.Background(), c))
	return c
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
