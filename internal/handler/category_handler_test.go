package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
)

func TestCreateCategoryReturnsCreated(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodPost, "/api/categories", map[string]any{"name": "Design"})
	api.CreateCategory(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var category db.Category
	if err := json.Unmarshal(w.Body.Bytes(), &category); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if category.Slug != "design" || category.ID == "" {
		t.Fatalf("unexpected category: %+v", category)
	}
}

func TestCreateCategoryDuplicateNameConflicts(t *testing.T) {
	api := setupTestAPI(t)
	if _, err := api.categories.Create(context.Background(), service.CreateCategoryInput{Name: "Design"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w, c := newJSONContext(t, http.MethodPost, "/api/categories", map[string]any{"name": "Design"})
	api.CreateCategory(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}

func TestCreateCategoryValidationListsFields(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodPost, "/api/categories", map[string]any{"name": ""})
	api.CreateCategory(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	var body struct {
		Error  string               `json:"error"`
		Fields []service.FieldError `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "name" || body.Fields[0].Rule != "required" {
		t.Fatalf("unexpected fields: %+v", body.Fields)
	}
}

func TestCreateCategoryRejectsMalformedJSON(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newRawContext(t, http.MethodPost, "/api/categories", "{not json")
	api.CreateCategory(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestUpdateCategoryMissingReturns404(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodPatch, "/api/categories/missing", map[string]any{"name": "x"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: "missing"}}
	api.UpdateCategory(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestDeleteCategorySuccess(t *testing.T) {
	api := setupTestAPI(t)
	category, err := api.categories.Create(context.Background(), service.CreateCategoryInput{Name: "Design"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	w, c := newJSONContext(t, http.MethodDelete, "/api/categories/"+category.ID, nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: category.ID}}
	api.DeleteCategory(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var count int64
	api.DB().Model(&db.Category{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected category deleted, %d left", count)
	}
}

func TestGetCategoryBySlugNotFound(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodGet, "/api/categories/slug/nope", nil)
	c.Params = gin.Params{gin.Param{Key: "slug", Value: "nope"}}
	api.GetCategoryBySlug(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestGetCategoriesRejectsBadLimit(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodGet, "/api/categories?limit=500", nil)
	api.GetCategories(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGetCategoriesRejectsExplicitZeroPage(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodGet, "/api/categories?page=0", nil)
	api.GetCategories(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCategoryBySlugRejectsMalformedSlug(t *testing.T) {
	api := setupTestAPI(t)

	w, c := newJSONContext(t, http.MethodGet, "/api/categories/slug/Bad%20Slug", nil)
	c.Params = gin.Params{gin.Param{Key: "slug", Value: "Bad Slug"}}
	api.GetCategoryBySlug(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
