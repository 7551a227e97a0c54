package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
	"github.com/stretchr/testify/require"
)

func TestKeySeparatesParameters(t *testing.T) {
	one, two := 1, 2
	a := Key("post.list", service.ListPostsInput{Page: &one})
	b := Key("post.list", service.ListPostsInput{Page: &two})
	require.NotEqual(t, a, b)
	require.Equal(t, a, Key("post.list", service.ListPostsInput{Page: &one}))
	require.NotEqual(t, a, Key("post.list", service.ListPostsInput{}))
	require.Equal(t, "post.stats:", Key("post.stats", nil))
}

func TestFetchReadsThroughUntilInvalidated(t *testing.T) {
	q := NewQueryCache()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	}

	first, err := Fetch(ctx, q, "n:", load)
	require.NoError(t, err)
	second, err := Fetch(ctx, q, "n:", load)
	require.NoError(t, err)
	require.Equal(t, 10, first)
	require.Equal(t, 10, second)
	require.Equal(t, 1, calls)

	require.Equal(t, 1, q.Invalidate("n"))
	value, fresh, ok := q.Get("n:")
	require.True(t, ok)
	require.False(t, fresh)
	require.Equal(t, 10, value)

	third, err := Fetch(ctx, q, "n:", load)
	require.NoError(t, err)
	require.Equal(t, 20, third)
}

func TestMutateRollsBackOnFailure(t *testing.T) {
	q := NewQueryCache()
	q.Set("post.list:a", "original")
	q.Set("category.list:a", "untouched")

	var seenDuringRun any
	boom := errors.New("boom")
	err := q.Mutate(context.Background(), Mutation{
		Prefixes: []string{"post."},
		Optimistic: func(q *QueryCache) {
			q.Patch("post.list", func(string, any) any { return "optimistic" })
			q.Set("post.list:new", "added")
		},
		Run: func(context.Context) error {
			seenDuringRun, _, _ = q.Get("post.list:a")
			return boom
		},
	})

	require.ErrorIs(t, err, boom)
	require.Equal(t, "optimistic", seenDuringRun)

	value, fresh, ok := q.Get("post.list:a")
	require.True(t, ok)
	require.Equal(t, "original", value)
	require.False(t, fresh, "settled mutations always invalidate")

	_, _, ok = q.Get("post.list:new")
	require.False(t, ok, "entries added by the optimistic patch are dropped on rollback")

	_, fresh, _ = q.Get("category.list:a")
	require.True(t, fresh, "unrelated prefixes are left alone")
}

func TestMutateKeepsPatchOnSuccess(t *testing.T) {
	q := NewQueryCache()
	q.Set("post.list:a", "original")

	err := q.Mutate(context.Background(), Mutation{
		Prefixes: []string{"post."},
		Optimistic: func(q *QueryCache) {
			q.Patch("post.list", func(string, any) any { return "optimistic" })
		},
		Run: func(context.Context) error { return nil },
	})
	require.NoError(t, err)

	value, fresh, _ := q.Get("post.list:a")
	require.Equal(t, "optimistic", value)
	require.False(t, fresh)
}

func TestMutateIsExclusive(t *testing.T) {
	q := NewQueryCache()
	var (
		mu      sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Mutate(context.Background(), Mutation{
				Prefixes: []string{"post."},
				Run: func(context.Context) error {
					mu.Lock()
					running++
					if running > maxSeen {
						maxSeen = running
					}
					mu.Unlock()
					time.Sleep(time.Millisecond)

					mu.Lock()
					running--
					mu.Unlock()
					return nil
				},
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestSessionTogglePublishPatchesAndReconciles(t *testing.T) {
	c := newTestServer(t)
	s := NewSession(c)
	ctx := context.Background()

	post, err := c.CreatePost(ctx, service.CreatePostInput{Title: "Draft", Content: "c", AuthorName: "a"})
	require.NoError(t, err)

	all := false
	input := service.ListPostsInput{PublishedOnly: &all}
	page, err := s.ListPosts(ctx, input)
	require.NoError(t, err)
	require.False(t, page.Items[0].Published)
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Drafts)

	updated, err := s.TogglePublish(ctx, post.ID, true)
	require.NoError(t, err)
	require.True(t, updated.Published)

	cached, fresh, ok := s.Cache().Get(Key(postListKey, input))
	require.True(t, ok)
	require.False(t, fresh)
	require.True(t, cached.(*service.PostListResult).Items[0].Published)
	require.False(t, page.Items[0].Published, "values handed out earlier are not mutated")

	cachedStats, _, _ := s.Cache().Get(Key(postStatsKey, nil))
	if diff := cmp.Diff(service.Stats{Total: 1, Published: 1, Drafts: 0}, cachedStats); diff != "" {
		t.Fatalf("unexpected optimistic stats (-want +got):\n%s", diff)
	}

	refetched, err := s.ListPosts(ctx, input)
	require.NoError(t, err)
	require.True(t, refetched.Items[0].Published)
	require.NotNil(t, refetched.Items[0].PublishedAt)
}

func TestSessionDeleteRollsBackWhenServerFails(t *testing.T) {
	c := newTestServer(t)
	s := NewSession(c)
	ctx := context.Background()

	post, err := c.CreatePost(ctx, service.CreatePostInput{Title: "Keep me", Content: "c", AuthorName: "a", Published: true})
	require.NoError(t, err)

	input := service.ListPostsInput{}
	_, err = s.ListPosts(ctx, input)
	require.NoError(t, err)

	// an unreachable server makes the remote call fail after the optimistic patch
	broken := NewSession(New("http://127.0.0.1:1"))
	broken.cache = s.cache
	_, err = broken.DeletePost(ctx, post.ID)
	require.Error(t, err)

	cached, _, ok := s.Cache().Get(Key(postListKey, input))
	require.True(t, ok)
	page := cached.(*service.PostListResult)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, []string{post.ID}, ids(page.Items))
}

func ids(posts []db.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestSessionDeletePatchesPageCountAndStats(t *testing.T) {
	c := newTestServer(t)
	s := NewSession(c)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := c.CreatePost(ctx, service.CreatePostInput{Title: title, Content: "c", AuthorName: "a", Published: true})
		require.NoError(t, err)
	}

	limit := 2
	input := service.ListPostsInput{Limit: &limit}
	page, err := s.ListPosts(ctx, input)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	_, err = s.Stats(ctx)
	require.NoError(t, err)

	victim := page.Items[0]
	deleted, err := s.DeletePost(ctx, victim.ID)
	require.NoError(t, err)
	require.Equal(t, victim.ID, deleted.ID)

	cached, _, _ := s.Cache().Get(Key(postListKey, input))
	patched := cached.(*service.PostListResult)
	require.EqualValues(t, 2, patched.Total)
	require.Equal(t, 1, patched.TotalPages)
	require.NotContains(t, ids(patched.Items), victim.ID)

	cachedStats, _, _ := s.Cache().Get(Key(postStatsKey, nil))
	if diff := cmp.Diff(service.Stats{Total: 2, Published: 2, Drafts: 0}, cachedStats); diff != "" {
		t.Fatalf("unexpected optimistic stats (-want +got):\n%s", diff)
	}
}

func TestSessionUpdatePostRefetchesLists(t *testing.T) {
	c := newTestServer(t)
	s := NewSession(c)
	ctx := context.Background()

	created, err := c.CreatePost(ctx, service.CreatePostInput{Title: "Before", Content: "c", AuthorName: "a", Published: true})
	require.NoError(t, err)

	first, err := s.ListPosts(ctx, service.ListPostsInput{})
	require.NoError(t, err)
	require.Equal(t, "before", first.Items[0].Slug)

	title := "After"
	updated, err := s.UpdatePost(ctx, service.UpdatePostInput{ID: created.ID, Title: &title})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Slug)

	second, err := s.ListPosts(ctx, service.ListPostsInput{})
	require.NoError(t, err)
	require.Equal(t, "after", second.Items[0].Slug)
}
