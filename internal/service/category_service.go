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

var (
	ErrCategoryExists   = errors.New("category name already in use")
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryService wraps category related operations.
type CategoryService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb, now: time.Now}
}

// ListCategoriesInput 分类分页查询参数
type ListCategoriesInput struct {
	Page   *int   `form:"page" json:"page,omitempty" validate:"omitempty,min=1"`
	Limit  *int   `form:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	Search string `form:"search" json:"search" validate:"max=255"`
}

// CreateCategoryInput 创建分类参数
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

// UpdateCategoryInput 更新分类参数，nil 字段保持不变
type UpdateCategoryInput struct {
	ID          string  `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

type slugLookup struct {
	Slug string `json:"slug" validate:"required,max=255,slug"`
}

type idLookup struct {
	ID string `json:"id" validate:"required,max=36"`
}

// CategoryListResult is one page of categories.
type CategoryListResult struct {
	Items      []db.Category `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// List returns categories in creation order, optionally filtered by name.
func (s *CategoryService) List(ctx context.Context, input ListCategoriesInput) (*CategoryListResult, error) {
	input.Search = strings.TrimSpace(input.Search)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	page, limit := pageParams(input.Page, input.Limit)

	scope := Filter{}.ContainsFold("categories.name", input.Search).Scope()
	items := make([]db.Category, 0, limit)
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&db.Category{}).
			Scopes(scope).
			Order("categories.created_at asc").
			Order("categories.id asc").
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&items).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&db.Category{}).Scopes(scope).Count(&total).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return &CategoryListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// ListAll 返回全部分类及其文章数，按名称排序。publishedOnly 时只统计已发布文章。
func (s *CategoryService) ListAll(ctx context.Context, publishedOnly bool) ([]db.Category, error) {
	join := "LEFT JOIN posts ON posts.id = post_categories.post_id"
	var args []any
	if publishedOnly {
		join += " AND posts.published = ?"
		args = append(args, true)
	}

	categories := make([]db.Category, 0)
	if err := s.db.WithContext(ctx).
		Model(&db.Category{}).
		Select("categories.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN post_categories ON post_categories.category_id = categories.id").
		Joins(join, args...).
		Group("categories.id").
		Order("categories.name asc").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories with counts: %w", err)
	}
	return categories, nil
}

// GetBySlug returns the category with the exact slug, or nil when absent.
func (s *CategoryService) GetBySlug(ctx context.Context, slugValue string) (*db.Category, error) {
	if err := validateInput(slugLookup{Slug: slugValue}); err != nil {
		return nil, err
	}
	return s.first(ctx, "slug = ?", slugValue)
}

// GetByID returns the category with id, or nil when absent.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*db.Category, error) {
	if err := validateInput(idLookup{ID: id}); err != nil {
		return nil, err
	}
	return s.first(ctx, "id = ?", id)
}

// Create inserts a category under a unique slug derived from its name.
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*db.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	category := db.Category{Name: input.Name, Description: input.Description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, input.Name, ""); err != nil {
			return err
		}
		_, err := withUniqueSlug(tx, &db.Category{}, baseSlug(input.Name, "category"), "", func(sp *gorm.DB, candidate string) error {
			category.Slug = candidate
			return sp.Create(&category).Error
		})
		return err
	})
	if err != nil {
		return nil, classifyCategoryError(err)
	}
	return &category, nil
}

// Update applies the supplied fields. A changed name re-derives the slug.
func (s *CategoryService) Update(ctx context.Context, input UpdateCategoryInput) (*db.Category, error) {
	input.Name = trimPtr(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var category db.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", input.ID).Error; err != nil {
			return err
		}

		updates := map[string]any{"updated_at": s.now()}
		if input.Description != nil {
			updates["description"] = *input.Description
		}

		write := func(q *gorm.DB) error {
			return q.Model(&db.Category{}).Where("id = ?", category.ID).Updates(updates).Error
		}

		if input.Name != nil && *input.Name != category.Name {
			if err := ensureNameFree(tx, *input.Name, category.ID); err != nil {
				return err
			}
			updates["name"] = *input.Name
			_, err := withUniqueSlug(tx, &db.Category{}, baseSlug(*input.Name, "category"), category.ID, func(sp *gorm.DB, candidate string) error {
				updates["slug"] = candidate
				return write(sp)
			})
			if err != nil {
				return err
			}
		} else if err := write(tx); err != nil {
			return err
		}

		return tx.First(&category, "id = ?", category.ID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyCategoryError(err)
	}
	return &category, nil
}

// Delete removes the category and returns it as it was. Post links cascade.
func (s *CategoryService) Delete(ctx context.Context, id string) (*db.Category, error) {
	if err := validateInput(idLookup{ID: id}); err != nil {
		return nil, err
	}

	var category db.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&db.Category{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete category: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) first(ctx context.Context, query string, arg string) (*db.Category, error) {
	var category db.Category
	err := s.db.WithContext(ctx).Where(query, arg).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

func ensureNameFree(tx *gorm.DB, name, excludeID string) error {
	query := tx.Model(&db.Category{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if count > 0 {
		return ErrCategoryExists
	}
	return nil
}

// classifyCategoryError maps a leftover unique violation (the name) to ErrCategoryExists.
func classifyCategoryError(err error) error {
	switch {
	case errors.Is(err, ErrCategoryExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrCategoryExists
	case errors.Is(err, ErrSlugUnavailable):
		return err
	}
	return fmt.Errorf("save category: %w", err)
}
