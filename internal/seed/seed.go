// Package seed fills an empty database with demo categories and posts.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/slug"
)

// Result 汇总写入的数据量。
type Result struct {
	Categories int
	Posts      int
	Links      int
}

type categorySeed struct {
	name        string
	description string
}

type postSeed struct {
	title       string
	author      string
	publishedAt *time.Time
	categories  []string
	content     string
}

var categories = []categorySeed{
	{"Design", "Design principles, interfaces and visual craft"},
	{"Research", "Findings, case studies and analysis"},
	{"Software", "Building software, tooling and practices"},
	{"Programming", "Tutorials, tips and guides for programmers"},
}

func day(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

var posts = []postSeed{
	{
		title:       "Migrating to Linear 101",
		author:      "Phoenix Baker",
		publishedAt: day("2025-01-19"),
		categories:  []string{"Design", "Software"},
		content: `Moving a whole team to a new issue tracker sounds scary. It took us less than a week.

## What we moved

- open issues and their labels
- sprint history
- saved views

## Steps

1. Export from the old tool
2. Import and map workflows
3. Walk the team through the keyboard shortcuts

Nobody asked to go back.`,
	},
	{
		title:       "UX review presentations",
		author:      "Olivia Rhye",
		publishedAt: day("2025-01-18"),
		categories:  []string{"Design", "Research"},
		content: `A review is a story: the problem, the proposal and what changed for users.

## Show, then tell

Screenshots of today, mockups of tomorrow and a before/after slide carry more than any paragraph.

## Avoid

- slides full of text
- reading the slides aloud
- skipping the rehearsal`,
	},
	{
		title:       "Building a blog in Go",
		author:      "Alex Morgan",
		publishedAt: day("2025-01-17"),
		categories:  []string{"Software", "Programming"},
		content: `A small service with a router, an ORM and a few templates goes a long way.

` + "```bash\ngo run ./cmd/seed\ngo run ./cmd/server\n```" + `

Keep handlers thin and let services own the transactions.`,
	},
	{
		title:      "The Future of Web Development",
		author:     "Phoenix Baker",
		categories: []string{"Software", "Research"},
		content: `Notes for a post that is not ready yet.

- edge runtimes
- WebAssembly
- typed APIs end to end`,
	},
}

// Run 清空已有数据并写入示例分类与文章，全部在一个事务中完成。
func Run(ctx context.Context, gdb *gorm.DB, log zerolog.Logger) (Result, error) {
	var res Result
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		log.Info().Msg("clearing existing data")
		for _, model := range []any{&db.PostCategory{}, &db.Post{}, &db.Category{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}

		byName := make(map[string]string, len(categories))
		for _, c := range categories {
			description := c.description
			row := db.Category{Name: c.name, Slug: slug.Generate(c.name), Description: &description}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create category %s: %w", c.name, err)
			}
			byName[c.name] = row.ID
			res.Categories++
		}

		for _, p := range posts {
			row := db.Post{
				Title:       p.title,
				Slug:        slug.Generate(p.title),
				Content:     p.content,
				AuthorName:  p.author,
				Published:   p.publishedAt != nil,
				PublishedAt: p.publishedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create post %q: %w", p.title, err)
			}
			res.Posts++

			for _, name := range p.categories {
				link := db.PostCategory{PostID: row.ID, CategoryID: byName[name]}
				if err := tx.Create(&link).Error; err != nil {
					return fmt.Errorf("link %q to %s: %w", p.title, name, err)
				}
				res.Links++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info().Int("categories", res.Categories).Int("posts", res.Posts).Int("links", res.Links).Msg("seed completed")
	return res, nil
}
