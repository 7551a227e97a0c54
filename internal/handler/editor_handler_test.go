package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
)

func submitForm(t *testing.T, r *gin.Engine, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getPage(t *testing.T, r *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestShowNewPostListsCategories(t *testing.T) {
	r, gdb := setupPublicTest(t)
	if _, err := service.NewCategoryService(gdb).Create(context.Background(), service.CreateCategoryInput{Name: "Design"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	w := getPage(t, r, "/posts/new")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `action="/posts"`) {
		t.Fatalf("expected create form action, got %s", body)
	}
	if !strings.Contains(body, "Design") {
		t.Fatalf("expected category checkbox")
	}
}

func TestSubmitNewPostCreatesAndRedirects(t *testing.T) {
	r, gdb := setupPublicTest(t)
	category, err := service.NewCategoryService(gdb).Create(context.Background(), service.CreateCategoryInput{Name: "Design"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	w := submitForm(t, r, "/posts", url.Values{
		"title":        {"From the form"},
		"content":      {"Body text"},
		"author_name":  {"Ada"},
		"published":    {"on"},
		"category_ids": {category.ID},
	})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = getPage(t, r, "/dashboard", w.Result().Cookies()...)
	if !strings.Contains(w.Body.String(), "Created “From the form”.") {
		t.Fatalf("expected flash message, got %s", w.Body.String())
	}

	var post db.Post
	if err := gdb.First(&post, "slug = ?", "from-the-form").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !post.Published || post.PublishedAt == nil {
		t.Fatalf("expected published post, got %+v", post)
	}
	var links int64
	gdb.Model(&db.PostCategory{}).Where("post_id = ?", post.ID).Count(&links)
	if links != 1 {
		t.Fatalf("expected 1 category link, got %d", links)
	}
}

func TestSubmitNewPostRerendersWithFieldErrors(t *testing.T) {
	r, gdb := setupPublicTest(t)

	w := submitForm(t, r, "/posts", url.Values{"title": {"Only a title"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `value="Only a title"`) {
		t.Fatalf("expected submitted title to be kept, got %s", body)
	}
	if strings.Count(body, `class="field-error"`) != 2 {
		t.Fatalf("expected errors for content and author, got %s", body)
	}

	var count int64
	gdb.Model(&db.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no post to be created")
	}
}

func TestShowEditPostPrefillsForm(t *testing.T) {
	r, gdb := setupPublicTest(t)
	category, err := service.NewCategoryService(gdb).Create(context.Background(), service.CreateCategoryInput{Name: "Design"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	post := createPost(t, gdb, service.CreatePostInput{Title: "Needs polish", CategoryIDs: []string{category.ID}})

	w := getPage(t, r, "/posts/"+post.ID+"/edit")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`action="/posts/` + post.ID + `"`, `value="Needs polish"`, "checked"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in edit form, got %s", want, body)
		}
	}

	w = getPage(t, r, "/posts/00000000-0000-0000-0000-000000000000/edit")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for a missing post, got %d", w.Code)
	}
}

func TestSubmitEditPostReplacesFields(t *testing.T) {
	r, gdb := setupPublicTest(t)
	category, err := service.NewCategoryService(gdb).Create(context.Background(), service.CreateCategoryInput{Name: "Design"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	post := createPost(t, gdb, service.CreatePostInput{Title: "Old title", Published: true, CategoryIDs: []string{category.ID}})

	w := submitForm(t, r, "/posts/"+post.ID, url.Values{
		"title":       {"New title"},
		"content":     {"New body"},
		"author_name": {"Grace"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d %s", w.Code, w.Body.String())
	}

	var reloaded db.Post
	if err := gdb.First(&reloaded, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Slug != "new-title" || reloaded.AuthorName != "Grace" || reloaded.Content != "New body" {
		t.Fatalf("expected fields updated, got %+v", reloaded)
	}
	if reloaded.Published || reloaded.PublishedAt != nil {
		t.Fatalf("unchecked box should unpublish, got %+v", reloaded)
	}
	var links int64
	gdb.Model(&db.PostCategory{}).Where("post_id = ?", post.ID).Count(&links)
	if links != 0 {
		t.Fatalf("expected categories cleared, got %d links", links)
	}
}

func TestPreviewPostRendersSanitizedMarkdown(t *testing.T) {
	r, gdb := setupPublicTest(t)

	w := submitForm(t, r, "/posts/preview", url.Values{
		"title":   {"Draft idea"},
		"content": {"## Heading\n\n<script>alert(1)</script>\n\n**bold**"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "This post has not been saved") {
		t.Fatalf("expected preview banner, got %s", body)
	}
	if !strings.Contains(body, "<h2") || !strings.Contains(body, "<strong>bold</strong>") {
		t.Fatalf("expected rendered markdown, got %s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("preview must be sanitized, got %s", body)
	}

	var count int64
	gdb.Model(&db.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("preview must not save anything")
	}
}

func TestCategoriesPageManagesCategories(t *testing.T) {
	r, gdb := setupPublicTest(t)

	w := submitForm(t, r, "/categories", url.Values{"name": {"Design"}, "description": {"Visual craft"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/categories" {
		t.Fatalf("expected redirect to categories, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = getPage(t, r, "/categories", w.Result().Cookies()...)
	body := w.Body.String()
	if !strings.Contains(body, "Created category “Design”.") || !strings.Contains(body, `value="Visual craft"`) {
		t.Fatalf("expected created category with flash, got %s", body)
	}

	var category db.Category
	if err := gdb.First(&category, "slug = ?", "design").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	w = submitForm(t, r, "/categories/"+category.ID, url.Values{"name": {"User Experience"}, "description": {""}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if err := gdb.First(&category, "id = ?", category.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if category.Slug != "user-experience" || (category.Description != nil && *category.Description != "") {
		t.Fatalf("expected renamed category with cleared description, got %+v", category)
	}

	w = submitForm(t, r, "/categories", url.Values{"name": {"User Experience"}})
	w = getPage(t, r, "/categories", w.Result().Cookies()...)
	if !strings.Contains(w.Body.String(), "A category with that name already exists.") {
		t.Fatalf("expected duplicate flash, got %s", w.Body.String())
	}

	w = submitForm(t, r, "/categories/"+category.ID+"/delete", url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	var count int64
	gdb.Model(&db.Category{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected category deleted")
	}
}
