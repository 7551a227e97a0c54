package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
)

// postForm 是编辑页表单的回显数据
type postForm struct {
	ID          string
	Title       string
	Content     string
	AuthorName  string
	Published   bool
	CategoryIDs map[string]bool
}

func postFormFrom(post *db.Post) postForm {
	form := postForm{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		AuthorName:  post.AuthorName,
		Published:   post.Published,
		CategoryIDs: make(map[string]bool, len(post.Categories)),
	}
	for _, category := range post.Categories {
		form.CategoryIDs[category.ID] = true
	}
	return form
}

// readPostForm 解析提交的表单；复选框未勾选时不会出现在请求中。
func readPostForm(c *gin.Context) (postForm, []string) {
	ids := make([]string, 0)
	for _, id := range c.PostFormArray("category_ids") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	// 复选框勾选时提交 "on"，未勾选时字段缺失
	published := c.PostForm("published") != ""

	form := postForm{
		ID:          c.Param("id"),
		Title:       c.PostForm("title"),
		Content:     c.PostForm("content"),
		AuthorName:  c.PostForm("author_name"),
		Published:   published,
		CategoryIDs: make(map[string]bool, len(ids)),
	}
	for _, id := range ids {
		form.CategoryIDs[id] = true
	}
	return form, ids
}

// ShowNewPost 渲染新建文章页面
func (a *API) ShowNewPost(c *gin.Context) {
	a.renderPostForm(c, http.StatusOK, postForm{CategoryIDs: map[string]bool{}}, nil, "")
}

// ShowEditPost 渲染编辑文章页面
func (a *API) ShowEditPost(c *gin.Context) {
	post, err := a.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil && !isValidationError(err) {
		a.log.Error().Err(err).Str("post_id", c.Param("id")).Msg("failed to load post for editing")
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{"title": "Edit post", "error": "We could not load this post."})
		return
	}
	if post == nil {
		a.renderHTML(c, http.StatusNotFound, "error.html", gin.H{"title": "Not found", "error": "This post does not exist."})
		return
	}
	a.renderPostForm(c, http.StatusOK, postFormFrom(post), nil, "")
}

// SubmitNewPost 处理新建文章表单
func (a *API) SubmitNewPost(c *gin.Context) {
	form, ids := readPostForm(c)
	post, err := a.posts.Create(c.Request.Context(), service.CreatePostInput{
		Title:       form.Title,
		Content:     form.Content,
		AuthorName:  form.AuthorName,
		Published:   form.Published,
		CategoryIDs: ids,
	})
	if err != nil {
		a.postFormError(c, form, err)
		return
	}
	a.redirectWithFlash(c, flashSuccess, "Created “"+post.Title+"”.")
}

// SubmitEditPost 处理编辑表单，分类选择整体替换
func (a *API) SubmitEditPost(c *gin.Context) {
	form, ids := readPostForm(c)
	post, err := a.posts.Update(c.Request.Context(), service.UpdatePostInput{
		ID:          form.ID,
		Title:       &form.Title,
		Content:     &form.Content,
		AuthorName:  &form.AuthorName,
		Published:   &form.Published,
		CategoryIDs: ids,
	})
	if err != nil {
		a.postFormError(c, form, err)
		return
	}
	if post == nil {
		a.redirectWithFlash(c, flashError, "Post not found.")
		return
	}
	a.redirectWithFlash(c, flashSuccess, "Saved “"+post.Title+"”.")
}

// PreviewPost 按公开页面的样式渲染尚未保存的 Markdown
func (a *API) PreviewPost(c *gin.Context) {
	form, _ := readPostForm(c)
	content, err := renderMarkdown(form.Content)
	if err != nil {
		content = template.HTML(template.HTMLEscapeString(form.Content))
	}

	now := time.Now()
	title := strings.TrimSpace(form.Title)
	if title == "" {
		title = "Untitled"
	}
	a.renderHTML(c, http.StatusOK, "post.html", gin.H{
		"title":   "Preview: " + title,
		"preview": true,
		"post": &db.Post{
			Title:       title,
			AuthorName:  strings.TrimSpace(form.AuthorName),
			PublishedAt: &now,
			Categories:  []db.CategorySummary{},
		},
		"content": content,
	})
}

func (a *API) postFormError(c *gin.Context, form postForm, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		a.renderPostForm(c, http.StatusBadRequest, form, fieldMessages(verr), "Please fix the highlighted fields.")
	case errors.Is(err, service.ErrCategoryNotFound):
		a.renderPostForm(c, http.StatusBadRequest, form, nil, "One of the selected categories no longer exists.")
	case errors.Is(err, service.ErrSlugUnavailable):
		a.renderPostForm(c, http.StatusConflict, form, nil, "Could not find a free URL for this title. Try another title.")
	default:
		a.log.Error().Err(err).Str("post_id", form.ID).Msg("save post failed")
		a.renderPostForm(c, http.StatusInternalServerError, form, nil, "Could not save the post. Please try again.")
	}
}

func (a *API) renderPostForm(c *gin.Context, status int, form postForm, fieldErrors map[string]string, message string) {
	categories, err := a.categories.ListAll(c.Request.Context(), false)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to load categories for post form")
		categories = []db.Category{}
	}

	title, action := "New post", "/posts"
	if form.ID != "" {
		title, action = "Edit post", "/posts/"+form.ID
	}
	a.renderHTML(c, status, "post_form.html", gin.H{
		"title":      title,
		"action":     action,
		"form":       form,
		"categories": categories,
		"errors":     fieldErrors,
		"message":    message,
	})
}

// fieldMessages 把校验错误按字段名整理，供模板逐项展示
func fieldMessages(verr *service.ValidationError) map[string]string {
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		name, _, _ := strings.Cut(f.Field, "[")
		if _, exists := out[name]; !exists {
			out[name] = f.Message
		}
	}
	return out
}
