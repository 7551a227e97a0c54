package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/service"
)

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// GetCategories 分页获取分类列表
func (a *API) GetCategories(c *gin.Context) {
	var input service.ListCategoriesInput
	if err := c.ShouldBindQuery(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	result, err := a.categories.List(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAllCategories 返回全部分类及文章数
func (a *API) GetAllCategories(c *gin.Context) {
	publishedOnly, err := parseOptionalBool(c.Query("published_only"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid published_only")
		return
	}

	categories, err := a.categories.ListAll(c.Request.Context(), publishedOnly != nil && *publishedOnly)
	if err != nil {
		a.respondServiceError(c, err, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": categories})
}

// GetCategoryBySlug 按 slug 获取分类
func (a *API) GetCategoryBySlug(c *gin.Context) {
	category, err := a.categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		a.respondServiceError(c, err, "failed to load category")
		return
	}
	if category == nil {
		respondError(c, http.StatusNotFound, "category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetCategory 按 id 获取分类
func (a *API) GetCategory(c *gin.Context) {
	category, err := a.categories.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondServiceError(c, err, "failed to load category")
		return
	}
	if category == nil {
		respondError(c, http.StatusNotFound, "category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory 创建分类
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	input := service.CreateCategoryInput{Description: req.Description}
	if req.Name != nil {
		input.Name = *req.Name
	}

	category, err := a.categories.Create(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err, "failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory 部分更新分类
func (a *API) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	category, err := a.categories.Update(c.Request.Context(), service.UpdateCategoryInput{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to update category")
		return
	}
	if category == nil {
		respondError(c, http.StatusNotFound, "category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory 删除分类，关联关系随之级联删除
func (a *API) DeleteCategory(c *gin.Context) {
	category, err := a.categories.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondServiceError(c, err, "failed to delete category")
		return
	}
	if category == nil {
		respondError(c, http.StatusNotFound, "category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}
