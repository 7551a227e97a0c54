// Package client talks to the blog's JSON API and keeps a local query cache
// with optimistic mutations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int                  `json:"-"`
	Message string               `json:"error"`
	Fields  []service.FieldError `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// Client calls every post and category procedure over HTTP.
// Lookups of absent rows return nil, nil.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPosts calls post.list.
func (c *Client) ListPosts(ctx context.Context, input service.ListPostsInput) (*service.PostListResult, error) {
	query := url.Values{}
	setInt(query, "page", input.Page)
	setInt(query, "limit", input.Limit)
	setString(query, "search", input.Search)
	setString(query, "category", input.Category)
	if input.PublishedOnly != nil {
		query.Set("published_only", strconv.FormatBool(*input.PublishedOnly))
	}

	var out service.PostListResult
	if _, err := c.do(ctx, http.MethodGet, "/api/posts", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats calls post.stats.
func (c *Client) Stats(ctx context.Context) (service.Stats, error) {
	var out service.Stats
	_, err := c.do(ctx, http.MethodGet, "/api/posts/stats", nil, nil, &out)
	return out, err
}

// GetPostBySlug calls post.getBySlug.
func (c *Client) GetPostBySlug(ctx context.Context, slug string) (*db.Post, error) {
	return c.post(ctx, http.MethodGet, "/api/posts/slug/"+url.PathEscape(slug), nil)
}

// GetPost calls post.getById.
func (c *Client) GetPost(ctx context.Context, id string) (*db.Post, error) {
	return c.post(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil)
}

// CreatePost calls post.create.
func (c *Client) CreatePost(ctx context.Context, input service.CreatePostInput) (*db.Post, error) {
	return c.post(ctx, http.MethodPost, "/api/posts", input)
}

// UpdatePost calls post.update. Nil fields are left unchanged.
func (c *Client) UpdatePost(ctx context.Context, input service.UpdatePostInput) (*db.Post, error) {
	return c.post(ctx, http.MethodPatch, "/api/posts/"+url.PathEscape(input.ID), input)
}

// DeletePost calls post.delete.
func (c *Client) DeletePost(ctx context.Context, id string) (*db.Post, error) {
	return c.post(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil)
}

// TogglePublish calls post.togglePublish.
func (c *Client) TogglePublish(ctx context.Context, id string, published bool) (*db.Post, error) {
	return c.post(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/publish", map[string]bool{"published": published})
}

// ListCategories calls category.list.
func (c *Client) ListCategories(ctx context.Context, input service.ListCategoriesInput) (*service.CategoryListResult, error) {
	query := url.Values{}
	setInt(query, "page", input.Page)
	setInt(query, "limit", input.Limit)
	setString(query, "search", input.Search)

	var out service.CategoryListResult
	if _, err := c.do(ctx, http.MethodGet, "/api/categories", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAllCategories returns every category with its post count.
func (c *Client) ListAllCategories(ctx context.Context, publishedOnly bool) ([]db.Category, error) {
	query := url.Values{}
	if publishedOnly {
		query.Set("published_only", "true")
	}
	var out struct {
		Items []db.Category `json:"items"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/categories/all", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetCategoryBySlug calls category.getBySlug.
func (c *Client) GetCategoryBySlug(ctx context.Context, slug string) (*db.Category, error) {
	return c.category(ctx, http.MethodGet, "/api/categories/slug/"+url.PathEscape(slug), nil)
}

// GetCategory calls category.getById.
func (c *Client) GetCategory(ctx context.Context, id string) (*db.Category, error) {
	return c.category(ctx, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil)
}

// CreateCategory calls category.create.
func (c *Client) CreateCategory(ctx context.Context, input service.CreateCategoryInput) (*db.Category, error) {
	return c.category(ctx, http.MethodPost, "/api/categories", input)
}

// UpdateCategory calls category.update.
func (c *Client) UpdateCategory(ctx context.Context, input service.UpdateCategoryInput) (*db.Category, error) {
	return c.category(ctx, http.MethodPatch, "/api/categories/"+url.PathEscape(input.ID), input)
}

// DeleteCategory calls category.delete.
func (c *Client) DeleteCategory(ctx context.Context, id string) (*db.Category, error) {
	return c.category(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil)
}

func (c *Client) post(ctx context.Context, method, path string, body any) (*db.Post, error) {
	var out db.Post
	found, err := c.do(ctx, method, path, nil, body, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *Client) category(ctx context.Context, method, path string, body any) (*db.Category, error) {
	var out db.Category
	found, err := c.do(ctx, method, path, nil, body, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// do sends one request. A 404 reports found=false without an error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (bool, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return false, apiErr
	}

	if out == nil {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func setInt(values url.Values, key string, v *int) {
	if v != nil {
		values.Set(key, strconv.Itoa(*v))
	}
}

func setString(values url.Values, key, v string) {
	if v = strings.TrimSpace(v); v != "" {
		values.Set(key, v)
	}
}
