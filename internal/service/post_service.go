package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quillblog/internal/db"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// postOrder puts published posts first, newest first, drafts after them.
const postOrder = "CASE WHEN posts.published_at IS NULL THEN 1 ELSE 0 END, " +
	"posts.published_at DESC, posts.created_at DESC, posts.id DESC"

// PostService 封装文章相关的业务逻辑
type PostService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostService 创建 PostService 实例
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, now: time.Now}
}

// ListPostsInput 文章分页查询参数。PublishedOnly 为 nil 时只返回已发布文章。
type ListPostsInput struct {
	Page          *int   `form:"page" json:"page,omitempty" validate:"omitempty,min=1"`
	Limit         *int   `form:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	Search        string `form:"search" json:"search" validate:"max=255"`
	Category      string `form:"category" json:"categorySlug" validate:"max=255"`
	PublishedOnly *bool  `form:"published_only" json:"publishedOnly"`
}

// CreatePostInput 创建文章参数
type CreatePostInput struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Content     string   `json:"content" validate:"required"`
	AuthorName  string   `json:"authorName" validate:"required,max=255"`
	Published   bool     `json:"published"`
	CategoryIDs []string `json:"categoryIds" validate:"omitempty,dive,required,max=36"`
}

// UpdatePostInput 部分更新参数。CategoryIDs 非 nil 时整体替换分类关联。
type UpdatePostInput struct {
	ID          string   `json:"id" validate:"required,max=36"`
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Content     *string  `json:"content" validate:"omitempty,min=1"`
	AuthorName  *string  `json:"authorName" validate:"omitempty,min=1,max=255"`
	Published   *bool    `json:"published"`
	CategoryIDs []string `json:"categoryIds" validate:"omitempty,dive,required,max=36"`
}

// TogglePublishInput 只修改发布状态
type TogglePublishInput struct {
	ID        string `json:"id" validate:"required,max=36"`
	Published *bool  `json:"published" validate:"required"`
}

// PostListResult is one page of posts with their categories attached.
type PostListResult struct {
	Items      []db.Post `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// Stats 文章数量统计
type Stats struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
}

// List returns one page of posts. A category slug that matches nothing
// yields an empty page without touching the posts table.
func (s *PostService) List(ctx context.Context, input ListPostsInput) (*PostListResult, error) {
	input.Search = strings.TrimSpace(input.Search)
	input.Category = strings.TrimSpace(input.Category)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	page, limit := pageParams(input.Page, input.Limit)

	filter := Filter{}.ContainsFold("posts.title", input.Search)
	if input.PublishedOnly == nil || *input.PublishedOnly {
		filter = filter.Equals("posts.published", true)
	}

	if input.Category != "" {
		ids, err := s.postIDsInCategory(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return emptyPostList(page, limit), nil
		}
		filter = filter.In("posts.id", ids)
	}

	scope := filter.Scope()
	items := make([]db.Post, 0, limit)
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&db.Post{}).
			Scopes(scope).
			Order(postOrder).
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&items).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&db.Post{}).Scopes(scope).Count(&total).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := attachCategories(s.db.WithContext(ctx), items); err != nil {
		return nil, err
	}

	return &PostListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// GetBySlug returns the post with the exact slug, or nil when absent.
func (s *PostService) GetBySlug(ctx context.Context, slugValue string) (*db.Post, error) {
	if err := validateInput(slugLookup{Slug: slugValue}); err != nil {
		return nil, err
	}
	return s.first(ctx, "slug = ?", slugValue)
}

// GetByID returns the post with id, or nil when absent.
func (s *PostService) GetByID(ctx context.Context, id string) (*db.Post, error) {
	if err := validateInput(idLookup{ID: id}); err != nil {
		return nil, err
	}
	return s.first(ctx, "id = ?", id)
}

// Create inserts a post and its category links in one transaction.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*db.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.AuthorName = strings.TrimSpace(input.AuthorName)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	categoryIDs := dedupe(input.CategoryIDs)
	post := db.Post{
		Title:      input.Title,
		Content:    input.Content,
		AuthorName: input.AuthorName,
	}
	post.SetPublished(input.Published, s.now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoriesExist(tx, categoryIDs); err != nil {
			return err
		}
		if _, err := withUniqueSlug(tx, &db.Post{}, baseSlug(post.Title, "post"), "", func(sp *gorm.DB, candidate string) error {
			post.Slug = candidate
			return sp.Create(&post).Error
		}); err != nil {
			return err
		}
		return linkCategories(tx, post.ID, categoryIDs)
	})
	if err != nil {
		return nil, wrapPostError("create post", err)
	}

	return s.reload(ctx, post.ID)
}

// Update applies the supplied fields in one transaction. A changed title
// re-derives the slug, a changed published flag recomputes PublishedAt and a
// non-nil CategoryIDs replaces every category link.
func (s *PostService) Update(ctx context.Context, input UpdatePostInput) (*db.Post, error) {
	input.Title = trimPtr(input.Title)
	input.AuthorName = trimPtr(input.AuthorName)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var post db.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", input.ID).Error; err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"updated_at": now}
		if input.Content != nil {
			updates["content"] = *input.Content
		}
		if input.AuthorName != nil {
			updates["author_name"] = *input.AuthorName
		}
		if input.Published != nil && *input.Published != post.Published {
			post.SetPublished(*input.Published, now)
			updates["published"] = post.Published
			updates["published_at"] = post.PublishedAt
		}

		write := func(q *gorm.DB) error {
			return q.Model(&db.Post{}).Where("id = ?", post.ID).Updates(updates).Error
		}

		if input.Title != nil && *input.Title != post.Title {
			updates["title"] = *input.Title
			if _, err := withUniqueSlug(tx, &db.Post{}, baseSlug(*input.Title, "post"), post.ID, func(sp *gorm.DB, candidate string) error {
				updates["slug"] = candidate
				return write(sp)
			}); err != nil {
				return err
			}
		} else if err := write(tx); err != nil {
			return err
		}

		if input.CategoryIDs != nil {
			categoryIDs := dedupe(input.CategoryIDs)
			if err := ensureCategoriesExist(tx, categoryIDs); err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", post.ID).Delete(&db.PostCategory{}).Error; err != nil {
				return fmt.Errorf("clear post categories: %w", err)
			}
			if err := linkCategories(tx, post.ID, categoryIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapPostError("update post", err)
	}

	return s.reload(ctx, post.ID)
}

// Delete removes the post and returns it with the categories it had.
func (s *PostService) Delete(ctx context.Context, id string) (*db.Post, error) {
	if err := validateInput(idLookup{ID: id}); err != nil {
		return nil, err
	}

	posts := make([]db.Post, 1)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&posts[0], "id = ?", id).Error; err != nil {
			return err
		}
		if err := attachCategories(tx, posts); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&db.Post{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapPostError("delete post", err)
	}
	return &posts[0], nil
}

// TogglePublish 只修改 published、published_at 与 updated_at。
func (s *PostService) TogglePublish(ctx context.Context, input TogglePublishInput) (*db.Post, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var post db.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", input.ID).Error; err != nil {
			return err
		}
		if post.Published == *input.Published {
			return nil
		}

		now := s.now()
		post.SetPublished(*input.Published, now)
		return tx.Model(&db.Post{}).Where("id = ?", post.ID).Updates(map[string]any{
			"published":    post.Published,
			"published_at": post.PublishedAt,
			"updated_at":   now,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapPostError("toggle publish", err)
	}

	return s.reload(ctx, post.ID)
}

// Stats counts every post in a single aggregate query.
func (s *PostService) Stats(ctx context.Context) (Stats, error) {
	var row struct {
		Total     int64
		Published int64
	}
	if err := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN published = ? THEN 1 ELSE 0 END), 0) AS published", true).
		Scan(&row).Error; err != nil {
		return Stats{}, fmt.Errorf("post stats: %w", err)
	}
	return Stats{Total: row.Total, Published: row.Published, Drafts: row.Total - row.Published}, nil
}

func (s *PostService) first(ctx context.Context, query string, arg string) (*db.Post, error) {
	posts := make([]db.Post, 1)
	err := s.db.WithContext(ctx).Where(query, arg).First(&posts[0]).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if err := attachCategories(s.db.WithContext(ctx), posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostService) reload(ctx context.Context, id string) (*db.Post, error) {
	post, err := s.first(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("reload post %s: %w", id, gorm.ErrRecordNotFound)
	}
	return post, nil
}

// postIDsInCategory 返回分类下的文章 id；分类不存在时返回空。
func (s *PostService) postIDsInCategory(ctx context.Context, categorySlug string) ([]string, error) {
	var category db.Category
	err := s.db.WithContext(ctx).Select("id").Where("slug = ?", categorySlug).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&db.PostCategory{}).
		Where("category_id = ?", category.ID).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("category posts: %w", err)
	}
	return ids, nil
}

func emptyPostList(page, limit int) *PostListResult {
	return &PostListResult{Items: []db.Post{}, Total: 0, Page: page, Limit: limit, TotalPages: 1}
}

// attachCategories fills Categories on every post with one query keyed by
// the posts' ids. Posts without links get an empty slice.
func attachCategories(tx *gorm.DB, posts []db.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		posts[i].Categories = make([]db.CategorySummary, 0)
	}

	var rows []struct {
		PostID string
		ID     string
		Name   string
		Slug   string
	}
	if err := tx.Table("post_categories").
		Select("post_categories.post_id, categories.id, categories.name, categories.slug").
		Joins("JOIN categories ON categories.id = post_categories.category_id").
		Where("post_categories.post_id IN ?", ids).
		Order("categories.name asc").
		Scan(&rows).Error; err != nil {
		return fmt.Errorf("load post categories: %w", err)
	}

	index := make(map[string]int, len(posts))
	for i := range posts {
		index[posts[i].ID] = i
	}
	for _, row := range rows {
		i, ok := index[row.PostID]
		if !ok {
			continue
		}
		posts[i].Categories = append(posts[i].Categories, db.CategorySummary{ID: row.ID, Name: row.Name, Slug: row.Slug})
	}
	return nil
}

func ensureCategoriesExist(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Category{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if count != int64(len(ids)) {
		return ErrCategoryNotFound
	}
	return nil
}

func linkCategories(tx *gorm.DB, postID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]db.PostCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, db.PostCategory{PostID: postID, CategoryID: id})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link categories: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func wrapPostError(op string, err error) error {
	if errors.Is(err, ErrCategoryNotFound) || errors.Is(err, ErrSlugUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
