package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/service"
)

type postRequest struct {
	Title       *string  `json:"title"`
	Content     *string  `json:"content"`
	AuthorName  *string  `json:"authorName"`
	Published   *bool    `json:"published"`
	CategoryIDs []string `json:"categoryIds"`
}

type publishRequest struct {
	Published *bool `json:"published"`
}

// GetPosts 分页获取文章列表，默认只返回已发布文章
func (a *API) GetPosts(c *gin.Context) {
	var input service.ListPostsInput
	if err := c.ShouldBindQuery(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	result, err := a.posts.List(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPostStats 返回文章总数、已发布与草稿数
func (a *API) GetPostStats(c *gin.Context) {
	stats, err := a.posts.Stats(c.Request.Context())
	if err != nil {
		a.respondServiceError(c, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPostBySlug 按 slug 获取文章
func (a *API) GetPostBySlug(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		a.respondServiceError(c, err, "failed to load post")
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetPost 按 id 获取文章
func (a *API) GetPost(c *gin.Context) {
	post, err := a.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondServiceError(c, err, "failed to load post")
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost 创建文章
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	input := service.CreatePostInput{CategoryIDs: req.CategoryIDs}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Content != nil {
		input.Content = *req.Content
	}
	if req.AuthorName != nil {
		input.AuthorName = *req.AuthorName
	}
	if req.Published != nil {
		input.Published = *req.Published
	}

	post, err := a.posts.Create(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost 部分更新文章；categoryIds 出现时整体替换分类
func (a *API) UpdatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	post, err := a.posts.Update(c.Request.Context(), service.UpdatePostInput{
		ID:          c.Param("id"),
		Title:       req.Title,
		Content:     req.Content,
		AuthorName:  req.AuthorName,
		Published:   req.Published,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to update post")
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost 删除文章并返回删除前的内容
func (a *API) DeletePost(c *gin.Context) {
	post, err := a.posts.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondServiceError(c, err, "failed to delete post")
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

// TogglePublish 只修改发布状态
func (a *API) TogglePublish(c *gin.Context) {
	var req publishRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	post, err := a.posts.TogglePublish(c.Request.Context(), service.TogglePublishInput{
		ID:        c.Param("id"),
		Published: req.Published,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to update publish state")
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}
