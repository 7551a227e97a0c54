package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/handler"
	"github.com/rs/zerolog"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.OpenMemory(context.Background(), fmt.Sprintf("router-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	api := handler.NewAPI(gdb, handler.Options{Logger: zerolog.Nop()})
	r, err := SetupRouter(api, Config{SessionSecret: "test-secret", Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("setup router: %v", err)
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/ping", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected ping response %d %s", w.Code, w.Body.String())
	}
}

func TestRoutesCoverProcedureSurface(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/categories", `{"name":"Design"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", w.Code, w.Body.String())
	}
	var category struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &category)

	w = doJSON(t, r, http.MethodPost, "/api/posts", fmt.Sprintf(
		`{"title":"Hello World","content":"c","authorName":"a","categoryIds":[%q]}`, category.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", w.Code, w.Body.String())
	}
	var post struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &post)

	checks := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/categories", "", http.StatusOK},
		{http.MethodGet, "/api/categories/all", "", http.StatusOK},
		{http.MethodGet, "/api/categories/slug/design", "", http.StatusOK},
		{http.MethodGet, "/api/categories/" + category.ID, "", http.StatusOK},
		{http.MethodPatch, "/api/categories/" + category.ID, `{"description":"about design"}`, http.StatusOK},
		{http.MethodGet, "/api/posts?published_only=false", "", http.StatusOK},
		{http.MethodGet, "/api/posts/stats", "", http.StatusOK},
		{http.MethodGet, "/api/posts/slug/hello-world", "", http.StatusOK},
		{http.MethodGet, "/api/posts/" + post.ID, "", http.StatusOK},
		{http.MethodPatch, "/api/posts/" + post.ID, `{"content":"updated"}`, http.StatusOK},
		{http.MethodPost, "/api/posts/" + post.ID + "/publish", `{"published":true}`, http.StatusOK},
		{http.MethodGet, "/blog/hello-world", "", http.StatusOK},
		{http.MethodGet, "/posts/new", "", http.StatusOK},
		{http.MethodGet, "/posts/" + post.ID + "/edit", "", http.StatusOK},
		{http.MethodGet, "/categories", "", http.StatusOK},
		{http.MethodDelete, "/api/posts/" + post.ID, "", http.StatusOK},
		{http.MethodGet, "/api/posts/" + post.ID, "", http.StatusNotFound},
		{http.MethodDelete, "/api/categories/" + category.ID, "", http.StatusOK},
		{http.MethodGet, "/api/categories/slug/design", "", http.StatusNotFound},
		{http.MethodGet, "/api/nothing-here", "", http.StatusNotFound},
	}

	for _, check := range checks {
		w := doJSON(t, r, check.method, check.path, check.body)
		if w.Code != check.status {
			t.Fatalf("%s %s: expected %d, got %d (%s)", check.method, check.path, check.status, w.Code, w.Body.String())
		}
	}
}

func TestRootRedirectsToBlog(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/blog" {
		t.Fatalf("expected redirect to /blog, got %d %q", w.Code, w.Header().Get("Location"))
	}
}
