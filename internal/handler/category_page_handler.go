package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/service"
)

// ShowCategories 渲染分类管理页面，包含每个分类的文章数
func (a *API) ShowCategories(c *gin.Context) {
	categories, err := a.categories.ListAll(c.Request.Context(), false)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to load categories page")
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{"title": "Categories", "error": "We could not load the categories."})
		return
	}
	a.renderHTML(c, http.StatusOK, "categories.html", gin.H{
		"title":      "Categories",
		"flashes":    popFlashes(c),
		"categories": categories,
	})
}

// SubmitCategory 处理新建分类表单
func (a *API) SubmitCategory(c *gin.Context) {
	input := service.CreateCategoryInput{Name: c.PostForm("name")}
	if description := strings.TrimSpace(c.PostForm("description")); description != "" {
		input.Description = &description
	}
	category, err := a.categories.Create(c.Request.Context(), input)
	if err != nil {
		a.categoryFormError(c, err)
		return
	}
	a.redirectToWithFlash(c, "/categories", flashSuccess, "Created category “"+category.Name+"”.")
}

// SubmitCategoryUpdate 处理行内编辑表单；空描述会清空描述
func (a *API) SubmitCategoryUpdate(c *gin.Context) {
	name := c.PostForm("name")
	description := strings.TrimSpace(c.PostForm("description"))
	category, err := a.categories.Update(c.Request.Context(), service.UpdateCategoryInput{
		ID:          c.Param("id"),
		Name:        &name,
		Description: &description,
	})
	if err != nil {
		a.categoryFormError(c, err)
		return
	}
	if category == nil {
		a.redirectToWithFlash(c, "/categories", flashError, "Category not found.")
		return
	}
	a.redirectToWithFlash(c, "/categories", flashSuccess, "Saved category “"+category.Name+"”.")
}

// SubmitCategoryDelete 删除分类，文章关联随之删除
func (a *API) SubmitCategoryDelete(c *gin.Context) {
	category, err := a.categories.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.categoryFormError(c, err)
		return
	}
	if category == nil {
		a.redirectToWithFlash(c, "/categories", flashError, "Category not found.")
		return
	}
	a.redirectToWithFlash(c, "/categories", flashSuccess, "Deleted category “"+category.Name+"”.")
}

func (a *API) categoryFormError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		var messages []string
		for _, f := range verr.Fields {
			messages = append(messages, f.Field+": "+f.Message)
		}
		a.redirectToWithFlash(c, "/categories", flashError, strings.Join(messages, "; "))
	case errors.Is(err, service.ErrCategoryExists):
		a.redirectToWithFlash(c, "/categories", flashError, "A category with that name already exists.")
	case errors.Is(err, service.ErrSlugUnavailable):
		a.redirectToWithFlash(c, "/categories", flashError, "Could not find a free URL for that name.")
	default:
		a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("category form failed")
		a.redirectToWithFlash(c, "/categories", flashError, "Something went wrong. Please try again.")
	}
}
