package service

import (
	"errors"
	"fmt"

	"github.com/quillblog/internal/slug"
	"gorm.io/gorm"
)

const maxSlugAttempts = 10

// ErrSlugUnavailable means every suffixed candidate collided with an existing row.
var ErrSlugUnavailable = errors.New("no free slug for this title")

// baseSlug derives the slug root for text, falling back when nothing usable survives.
func baseSlug(text, fallback string) string {
	if s := slug.Generate(text); s != "" {
		return s
	}
	return fallback
}

// countSlugPrefix 统计以 base 开头的 slug 数量，excludeID 对应的行不计入。
func countSlugPrefix(tx *gorm.DB, model any, base, excludeID string) (int64, error) {
	query := tx.Model(model).Where("LOWER(slug) LIKE ? ESCAPE '\\'", escapeLike(base)+"%")
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count slugs: %w", err)
	}
	return count, nil
}

func slugTaken(tx *gorm.DB, model any, candidate, excludeID string) (bool, error) {
	query := tx.Model(model).Where("slug = ?", candidate)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}

// withUniqueSlug picks "base" or "base-n" where n is the number of slugs
// sharing the prefix, then runs write inside a savepoint. When the unique
// constraint rejects the candidate the next suffix is tried. A duplicate-key
// error on any other column is returned unchanged.
func withUniqueSlug(tx *gorm.DB, model any, base, excludeID string, write func(*gorm.DB, string) error) (string, error) {
	count, err := countSlugPrefix(tx, model, base, excludeID)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := slug.WithSuffix(base, int(count)+attempt)
		writeErr := tx.Transaction(func(sp *gorm.DB) error {
			return write(sp, candidate)
		})
		if writeErr == nil {
			return candidate, nil
		}
		if !errors.Is(writeErr, gorm.ErrDuplicatedKey) {
			return "", writeErr
		}

		taken, err := slugTaken(tx, model, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return "", writeErr
		}
	}
	return "", ErrSlugUnavailable
}
