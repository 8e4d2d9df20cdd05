package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"babel/internal/config"
	"babel/internal/errs"
	"babel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	u := e.user(t, "salma")

	p, err := e.svc.Content.CreatePost(ctx, u.ID, NewPost{
		Title: "  " + AskPrefix + "كيف؟ ",
		URL:   strPtr(" "),
		Text:  strPtr("التفاصيل"),
	})
	require.NoError(t, err)
	assert.Equal(t, AskPrefix+"كيف؟", p.Title)
	assert.Nil(t, p.URL)
	require.NotNil(t, p.Text)
	assert.Equal(t, "salma", p.Username)
	assert.True(t, p.CreatedAt.Equal(base))

	_, err = e.svc.Content.CreatePost(ctx, u.ID, NewPost{Title: "   "})
	assert.True(t, errors.Is(err, errs.ErrInvalid))
}

func TestBannedAndMutedUsersCannotPost(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	banned := e.user(t, "banned")
	muted := e.user(t, "muted")
	require.NoError(t, e.svc.Standing.Ban(ctx, banned.ID, time.Hour, "spam"))
	require.NoError(t, e.svc.Standing.Mute(ctx, muted.ID, time.Hour, ""))

	_, err := e.svc.Content.CreatePost(ctx, banned.ID, NewPost{Title: "hi"})
	assert.True(t, errors.Is(err, errs.ErrForbidden))
	assert.Equal(t, errs.CodeUserBanned, errs.CodeOf(err))

	_, err = e.svc.Content.CreatePost(ctx, muted.ID, NewPost{Title: "hi"})
	assert.Equal(t, errs.CodeUserMuted, errs.CodeOf(err))

	// restrictions lapse on their own
	e.advance(2 * time.Hour)
	_, err = e.svc.Content.CreatePost(ctx, muted.ID, NewPost{Title: "hi"})
	assert.NoError(t, err)
}

func TestEditPostRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.user(t, "owner")
	other := e.user(t, "other")
	mod := e.moderator(t, "mod")

	p, err := e.svc.Content.CreatePost(ctx, owner.ID, NewPost{Title: "first"})
	require.NoError(t, err)

	e.advance(30 * time.Minute)
	edited, err := e.svc.Content.EditPost(ctx, owner.ID, p.ID, PostEdit{Title: strPtr("second")})
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Title)

	_, err = e.svc.Content.EditPost(ctx, other.ID, p.ID, PostEdit{Title: strPtr("stolen")})
	assert.True(t, errors.Is(err, errs.ErrForbidden))
	assert.Equal(t, errs.CodeUnauthorized, errs.CodeOf(err))

	_, err = e.svc.Content.EditPost(ctx, owner.ID, "missing", PostEdit{Title: strPtr("x")})
	assert.Equal(t, errs.CodePostNotFound, errs.CodeOf(err))

	e.advance(31 * time.Minute)
	_, err = e.svc.Content.EditPost(ctx, owner.ID, p.ID, PostEdit{Title: strPtr("late")})
	assert.True(t, errors.Is(err, errs.ErrConflict))
	assert.Equal(t, errs.CodeEditCooldown, errs.CodeOf(err))

	// cooldown is checked before ownership
	_, err = e.svc.Content.EditPost(ctx, other.ID, p.ID, PostEdit{Title: strPtr("late")})
	assert.Equal(t, errs.CodeEditCooldown, errs.CodeOf(err))

	edited, err = e.svc.Content.EditPost(ctx, mod.ID, p.ID, PostEdit{Text: strPtr("moderated")})
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Title)
	require.NotNil(t, edited.Text)
	assert.Equal(t, "moderated", *edited.Text)
}

func TestHidePost(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.user(t, "owner")
	other := e.user(t, "other")
	mod := e.moderator(t, "mod")
	p1 := e.post(t, owner, hoursAgo(1))
	p2 := e.post(t, owner, hoursAgo(2))

	err := e.svc.Content.HidePost(ctx, other.ID, p1.ID)
	assert.Equal(t, errs.CodeUnauthorized, errs.CodeOf(err))

	require.NoError(t, e.svc.Content.HidePost(ctx, owner.ID, p1.ID))
	require.NoError(t, e.svc.Content.HidePost(ctx, mod.ID, p2.ID))

	page, err := e.svc.Feed.GetNewestFeed(ctx, CursorQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	// soft delete only
	got, err := e.store.Posts.Get(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, got.Hidden)

	_, err = e.svc.Content.GetThread(ctx, "", p1.ID)
	assert.Equal(t, errs.CodePostNotFound, errs.CodeOf(err))
}

func TestCreateCommentCountsAndCap(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil, func(c *config.Config) { c.Moderation.CommentCap = 2 })
	u := e.user(t, "u")
	p := e.post(t, u, hoursAgo(1))

	first, err := e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p.ID, Text: "one"})
	require.NoError(t, err)
	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p.ID, ParentID: &first.ID, Text: "two"})
	require.NoError(t, err)

	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p.ID, Text: "three"})
	assert.True(t, errors.Is(err, errs.ErrConflict))
	assert.Equal(t, errs.CodeCommentsClosed, errs.CodeOf(err))

	got, err := e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentCount)

	// hiding frees a slot, twice changes nothing more
	require.NoError(t, e.svc.Content.HideComment(ctx, u.ID, first.ID))
	require.NoError(t, e.svc.Content.HideComment(ctx, u.ID, first.ID))
	got, err = e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p.ID, Text: "three"})
	assert.NoError(t, err)
}

func TestCreateCommentValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	u := e.user(t, "u")
	p1 := e.post(t, u, hoursAgo(1))
	p2 := e.post(t, u, hoursAgo(1))
	gone := e.post(t, u, hoursAgo(1), hidden())

	c, err := e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p1.ID, Text: "root"})
	require.NoError(t, err)

	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p2.ID, ParentID: &c.ID, Text: "cross"})
	assert.True(t, errors.Is(err, errs.ErrInvalid))

	missing := "missing"
	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p1.ID, ParentID: &missing, Text: "x"})
	assert.Equal(t, errs.CodeCommentNotFound, errs.CodeOf(err))

	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: gone.ID, Text: "x"})
	assert.Equal(t, errs.CodePostNotFound, errs.CodeOf(err))

	_, err = e.svc.Content.CreateComment(ctx, u.ID, NewComment{PostID: p1.ID, Text: " "})
	assert.True(t, errors.Is(err, errs.ErrInvalid))

	// failed attempts leave the counter alone
	got, err := e.store.Posts.Get(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CommentCount)
}

func TestEditAndHideComment(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.user(t, "owner")
	other := e.user(t, "other")
	mod := e.moderator(t, "mod")
	p := e.post(t, owner, hoursAgo(1))
	c, err := e.svc.Content.CreateComment(ctx, owner.ID, NewComment{PostID: p.ID, Text: "draft"})
	require.NoError(t, err)

	edited, err := e.svc.Content.EditComment(ctx, owner.ID, c.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Text)

	_, err = e.svc.Content.EditComment(ctx, other.ID, c.ID, "mine now")
	assert.Equal(t, errs.CodeUnauthorized, errs.CodeOf(err))

	e.advance(2 * time.Hour)
	_, err = e.svc.Content.EditComment(ctx, owner.ID, c.ID, "late")
	assert.Equal(t, errs.CodeEditCooldown, errs.CodeOf(err))

	err = e.svc.Content.HideComment(ctx, other.ID, c.ID)
	assert.Equal(t, errs.CodeUnauthorized, errs.CodeOf(err))
	require.NoError(t, e.svc.Content.HideComment(ctx, mod.ID, c.ID))

	err = e.svc.Content.HideComment(ctx, mod.ID, "missing")
	assert.Equal(t, errs.CodeCommentNotFound, errs.CodeOf(err))
}

func TestGetThread(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.user(t, "owner")
	reader := e.user(t, "reader")
	p := e.post(t, owner, hoursAgo(1))

	mk := func(parent *models.Comment, text string) *models.Comment {
		in := NewComment{PostID: p.ID, Text: text}
		if parent != nil {
			in.ParentID = &parent.ID
		}
		c, err := e.svc.Content.CreateComment(ctx, owner.ID, in)
		require.NoError(t, err)
		e.advance(time.Second)
		return c
	}
	root := mk(nil, "root")
	child := mk(root, "child")
	lonely := mk(nil, "lonely")
	grandchild := mk(child, "grandchild")

	require.NoError(t, e.svc.Content.HideComment(ctx, owner.ID, root.ID))
	require.NoError(t, e.svc.Content.HideComment(ctx, owner.ID, lonely.ID))
	_, err := e.svc.Engagement.ApplyVote(ctx, reader.ID, grandchild.Target())
	require.NoError(t, err)
	_, err = e.svc.Engagement.ApplyVote(ctx, reader.ID, p.Target())
	require.NoError(t, err)

	thread, err := e.svc.Content.GetThread(ctx, reader.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, thread.Post.DidVote)

	require.Len(t, thread.Comments, 1)
	top := thread.Comments[0]
	assert.Equal(t, root.ID, top.ID)
	assert.True(t, top.Deleted)
	assert.Empty(t, top.Text)
	assert.Empty(t, top.Username)

	require.Len(t, top.Replies, 1)
	assert.Equal(t, "child", top.Replies[0].Text)
	assert.False(t, top.Replies[0].Deleted)
	require.Len(t, top.Replies[0].Replies, 1)
	assert.True(t, top.Replies[0].Replies[0].DidVote)
}
