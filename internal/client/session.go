package client

import (
	"context"

	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
)

const (
	postListKey  = "post.list"
	postStatsKey = "post.stats"
	postPrefix   = "post."
)

// Session pairs a Client with a QueryCache: reads go through the cache and
// publish or delete patch cached lists before the server answers.
type Session struct {
	client *Client
	cache  *QueryCache
}

// NewSession wraps c with an empty cache.
func NewSession(c *Client) *Session {
	return &Session{client: c, cache: NewQueryCache()}
}

// Cache exposes the session's cache.
func (s *Session) Cache() *QueryCache {
	return s.cache
}

// Client exposes the underlying API client for uncached calls.
func (s *Session) Client() *Client {
	return s.client
}

// ListPosts returns a cached page of posts.
func (s *Session) ListPosts(ctx context.Context, input service.ListPostsInput) (*service.PostListResult, error) {
	return Fetch(ctx, s.cache, Key(postListKey, input), func(ctx context.Context) (*service.PostListResult, error) {
		return s.client.ListPosts(ctx, input)
	})
}

// Stats returns cached post counts.
func (s *Session) Stats(ctx context.Context) (service.Stats, error) {
	return Fetch(ctx, s.cache, Key(postStatsKey, nil), s.client.Stats)
}

// CreatePost creates a post and marks cached post queries stale.
func (s *Session) CreatePost(ctx context.Context, input service.CreatePostInput) (*db.Post, error) {
	var result *db.Post
	err := s.cache.Mutate(ctx, Mutation{
		Prefixes: []string{postPrefix},
		Run: func(ctx context.Context) error {
			post, err := s.client.CreatePost(ctx, input)
			result = post
			return err
		},
	})
	return result, err
}

// UpdatePost applies a partial update. Cached lists are refetched because a
// title change moves the slug and category edits change list membership.
func (s *Session) UpdatePost(ctx context.Context, input service.UpdatePostInput) (*db.Post, error) {
	var result *db.Post
	err := s.cache.Mutate(ctx, Mutation{
		Prefixes: []string{postPrefix},
		Run: func(ctx context.Context) error {
			post, err := s.client.UpdatePost(ctx, input)
			result = post
			return err
		},
	})
	return result, err
}

// TogglePublish flips the cached publish state at once and reconciles with
// the server afterwards. A nil post means the id does not exist.
func (s *Session) TogglePublish(ctx context.Context, id string, published bool) (*db.Post, error) {
	var result *db.Post
	err := s.cache.Mutate(ctx, Mutation{
		Prefixes: []string{postPrefix},
		Optimistic: func(q *QueryCache) {
			var changed int64
			q.Patch(postListKey+":", func(_ string, value any) any {
				page, ok := value.(*service.PostListResult)
				if !ok {
					return value
				}
				next := copyPage(page)
				for i := range next.Items {
					if next.Items[i].ID == id && next.Items[i].Published != published {
						next.Items[i].Published = published
						if !published {
							next.Items[i].PublishedAt = nil
						}
						changed = 1
					}
				}
				return next
			})
			if changed == 0 {
				return
			}
			q.Patch(postStatsKey+":", func(_ string, value any) any {
				stats, ok := value.(service.Stats)
				if !ok {
					return value
				}
				if published {
					stats.Published++
					stats.Drafts--
				} else {
					stats.Published--
					stats.Drafts++
				}
				return stats
			})
		},
		Run: func(ctx context.Context) error {
			post, err := s.client.TogglePublish(ctx, id, published)
			result = post
			return err
		},
	})
	return result, err
}

// DeletePost removes the post from cached lists and stats at once and reconciles afterwards.
func (s *Session) DeletePost(ctx context.Context, id string) (*db.Post, error) {
	var result *db.Post
	err := s.cache.Mutate(ctx, Mutation{
		Prefixes: []string{postPrefix},
		Optimistic: func(q *QueryCache) {
			var removed *db.Post
			q.Patch(postListKey+":", func(_ string, value any) any {
				page, ok := value.(*service.PostListResult)
				if !ok {
					return value
				}
				next := copyPage(page)
				items := next.Items[:0]
				for _, item := range next.Items {
					item := item
					if item.ID == id {
						removed = &item
						next.Total--
						continue
					}
					items = append(items, item)
				}
				next.Items = items
				next.TotalPages = pageCount(next.Total, next.Limit)
				return next
			})
			if removed == nil {
				return
			}
			q.Patch(postStatsKey+":", func(_ string, value any) any {
				stats, ok := value.(service.Stats)
				if !ok {
					return value
				}
				stats.Total--
				if removed.Published {
					stats.Published--
				} else {
					stats.Drafts--
				}
				return stats
			})
		},
		Run: func(ctx context.Context) error {
			post, err := s.client.DeletePost(ctx, id)
			result = post
			return err
		},
	})
	return result, err
}

// pageCount mirrors the server's page math: never fewer than one page.
func pageCount(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// copyPage returns a copy whose Items slice can be changed without touching page.
func copyPage(page *service.PostListResult) *service.PostListResult {
	next := *page
	next.Items = append([]db.Post(nil), page.Items...)
	return &next
}
