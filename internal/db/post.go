package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post 定义了文章模型
type Post struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AuthorName  string     `gorm:"size:255;not null" json:"authorName"`
	Published   bool       `gorm:"not null;default:false" json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Categories []CategorySummary `gorm:"-" json:"categories"`
}

// BeforeCreate assigns the opaque id.
func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SetPublished keeps PublishedAt in step with Published.
func (p *Post) SetPublished(published bool, now time.Time) {
	p.Published = published
	if published {
		at := now
		p.PublishedAt = &at
		return
	}
	p.PublishedAt = nil
}

// PostCategory is the join row between posts and categories.
type PostCategory struct {
	PostID     string `gorm:"primaryKey;size:36"`
	CategoryID string `gorm:"primaryKey;size:36"`
}

// TableName 指定关联表名。
func (PostCategory) TableName() string {
	return "post_categories"
}
