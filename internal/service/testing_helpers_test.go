package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/quillblog/internal/db"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("%s-%d", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	gdb, err := db.OpenMemory(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func boolPtr(v bool) *bool {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func mustCreateCategory(t *testing.T, svc *CategoryService, name string) *db.Category {
	t.Helper()
	category, err := svc.Create(context.Background(), CreateCategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return category
}

func mustCreatePost(t *testing.T, svc *PostService, input CreatePostInput) *db.Post {
	t.Helper()
	if input.Content == "" {
		input.Content = "正文内容"
	}
	if input.AuthorName == "" {
		input.AuthorName = "Tester"
	}
	post, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create post %q: %v", input.Title, err)
	}
	return post
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}
