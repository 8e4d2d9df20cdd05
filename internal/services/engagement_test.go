package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"babel/internal/config"
	"babel/internal/errs"
	"babel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAndRetractVote(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	voter := e.user(t, "voter")
	p := e.post(t, author, hoursAgo(1))

	res, err := e.svc.Engagement.ApplyVote(ctx, voter.ID, p.Target())
	require.NoError(t, err)
	assert.Equal(t, &VoteResult{TargetType: "post", TargetID: p.ID, Votes: 1, Voted: true}, res)

	res, err = e.svc.Engagement.RetractVote(ctx, voter.ID, p.Target())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Votes)
	assert.False(t, res.Voted)

	_, err = e.svc.Engagement.RetractVote(ctx, voter.ID, p.Target())
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.Equal(t, errs.CodeVoteNotFound, errs.CodeOf(err))

	got, err := e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Votes)
}

func TestDuplicateVoteIsConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	voter := e.user(t, "voter")
	p := e.post(t, author, hoursAgo(1))

	_, err := e.svc.Engagement.ApplyVote(ctx, voter.ID, p.Target())
	require.NoError(t, err)

	_, err = e.svc.Engagement.ApplyVote(ctx, voter.ID, p.Target())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConflict))
	assert.Equal(t, errs.CodeDuplicateVote, errs.CodeOf(err))

	got, err := e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)

	standing, err := e.svc.Standing.Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, standing.Karma, "rolled back vote must not pay karma")
}

func TestVoteOnComment(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	voter := e.user(t, "voter")
	p := e.post(t, author, hoursAgo(1))
	c, err := e.svc.Content.CreateComment(ctx, author.ID, NewComment{PostID: p.ID, Text: "hello"})
	require.NoError(t, err)

	res, err := e.svc.Engagement.ApplyVote(ctx, voter.ID, c.Target())
	require.NoError(t, err)
	assert.Equal(t, "comment", res.TargetType)
	assert.Equal(t, 1, res.Votes)

	// the post counter is untouched
	got, err := e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Votes)

	logs, err := e.svc.Standing.KarmaHistory(ctx, author.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionCommentUpvoted, logs[0].Action)
}

func TestVoteMissingOrInvalidTarget(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	voter := e.user(t, "voter")

	tests := []struct {
		name   string
		target models.Target
		kind   error
		code   string
	}{
		{"missing post", models.PostTarget("nope"), errs.ErrNotFound, errs.CodePostNotFound},
		{"missing comment", models.CommentTarget("nope"), errs.ErrNotFound, errs.CodeCommentNotFound},
		{"empty target", models.Target{}, errs.ErrInvalid, errs.CodeInvalidTarget},
		{"empty id", models.PostTarget(""), errs.ErrInvalid, errs.CodeInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Engagement.ApplyVote(ctx, voter.ID, tt.target)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.code, errs.CodeOf(err))

			_, err = e.svc.Engagement.ApplyReport(ctx, voter.ID, tt.target, "")
			assert.True(t, errors.Is(err, tt.kind))
		})
	}
}

func TestConcurrentVotesAreAllCounted(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	p := e.post(t, author, hoursAgo(1))

	const n = 20
	voters := make([]*models.User, n)
	for i := range voters {
		voters[i] = e.user(t, fmt.Sprintf("voter%d", i))
	}

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for _, v := range voters {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := e.svc.Engagement.ApplyVote(ctx, id, p.Target()); err != nil {
				errCh <- err
			}
		}(v.ID)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	rows, err := e.store.Engagement.CountVotes(ctx, p.Target())
	require.NoError(t, err)
	assert.Equal(t, n, got.Votes)
	assert.Equal(t, int64(got.Votes), rows)
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	voter := e.user(t, "voter")
	p := e.post(t, author, hoursAgo(1))

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Engagement.ApplyVote(ctx, voter.ID, p.Target())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, errs.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	got, err := e.store.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)
}

func TestVoteKarma(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	voter := e.user(t, "voter")
	p := e.post(t, author, hoursAgo(1))

	_, err := e.svc.Engagement.ApplyVote(ctx, author.ID, p.Target())
	require.NoError(t, err)
	standing, err := e.svc.Standing.Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, standing.Karma, "self votes move no karma")

	_, err = e.svc.Engagement.ApplyVote(ctx, voter.ID, p.Target())
	require.NoError(t, err)
	standing, err = e.svc.Standing.Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, standing.Karma)
	assert.NotNil(t, standing.KarmaLastUpdated)

	_, err = e.svc.Engagement.RetractVote(ctx, voter.ID, p.Target())
	require.NoError(t, err)
	standing, err = e.svc.Standing.Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, standing.Karma)

	logs, err := e.svc.Standing.KarmaHistory(ctx, author.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{ActionPostUpvoted, ActionPostUnvoted}, actions)
}

func TestVoteKarmaDisabled(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil, func(c *config.Config) { c.Karma.PerVote = 0 })
	author := e.user(t, "author")
	voter := e.user(t, "voter")
	p := e.post(t, author, hoursAgo(1))

	_, err := e.svc.Engagement.ApplyVote(ctx, voter.ID, p.Target())
	require.NoError(t, err)

	logs, err := e.svc.Standing.KarmaHistory(ctx, author.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestReportsHideAtThreshold(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	p := e.post(t, author, hoursAgo(1))

	var last *ReportResult
	reporters := make([]*models.User, 11)
	for i := range reporters {
		reporters[i] = e.user(t, fmt.Sprintf("reporter%d", i))
		res, err := e.svc.Engagement.ApplyReport(ctx, reporters[i].ID, p.Target(), "spam")
		require.NoError(t, err)
		if i < 10 {
			assert.True(t, res.Visible, "report %d", i+1)
		}
		last = res
	}
	assert.Equal(t, 11, last.ReportCount)
	assert.False(t, last.Visible)

	page, err := e.svc.Feed.GetNewestFeed(ctx, CursorQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	res, err := e.svc.Engagement.RetractReport(ctx, reporters[0].ID, p.Target())
	require.NoError(t, err)
	assert.Equal(t, 10, res.ReportCount)
	assert.True(t, res.Visible)

	page, err = e.svc.Feed.GetNewestFeed(ctx, CursorQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
}

func TestDuplicateReport(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	author := e.user(t, "author")
	reporter := e.user(t, "reporter")
	p := e.post(t, author, hoursAgo(1))

	_, err := e.svc.Engagement.ApplyReport(ctx, reporter.ID, p.Target(), "")
	require.NoError(t, err)
	_, err = e.svc.Engagement.ApplyReport(ctx, reporter.ID, p.Target(), "again")
	assert.True(t, errors.Is(err, errs.ErrConflict))
	assert.Equal(t, errs.CodeDuplicateReport, errs.CodeOf(err))

	var report models.Report
	require.NoError(t, e.store.DB().Where("user_id = ?", reporter.ID).First(&report).Error)
	assert.Equal(t, "unspecified", report.Reason)

	_, err = e.svc.Engagement.RetractReport(ctx, author.ID, p.Target())
	assert.Equal(t, errs.CodeReportNotFound, errs.CodeOf(err))
}

func TestNormalizeReason(t *testing.T) {
	assert.Equal(t, "unspecified", normalizeReason("   "))
	assert.Equal(t, "spam", normalizeReason(" spam "))
	long := strings.Repeat("ب", 250)
	assert.Equal(t, 200, len([]rune(normalizeReason(long))))
}
