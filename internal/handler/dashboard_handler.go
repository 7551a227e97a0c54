package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/service"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

type flashMessage struct {
	Kind string
	Text string
}

// ShowDashboard 渲染后台面板：全部文章（含草稿）与统计
func (a *API) ShowDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	search := strings.TrimSpace(c.Query("search"))
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)
	limit := a.pageSize

	all := false
	result, err := a.posts.List(ctx, service.ListPostsInput{
		Page:          &page,
		Limit:         &limit,
		Search:        search,
		PublishedOnly: &all,
	})
	if err != nil {
		a.dashboardError(c, err)
		return
	}

	stats, err := a.posts.Stats(ctx)
	if err != nil {
		a.dashboardError(c, err)
		return
	}

	queryParams := buildQueryParams(search, "")
	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":      "Dashboard",
		"flashes":    popFlashes(c),
		"search":     search,
		"posts":      result.Items,
		"stats":      stats,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"hasPrev":    result.Page > 1,
		"hasNext":    result.Page < result.TotalPages,
		"prevURL":    pageLink("/dashboard", result.Page-1, queryParams),
		"nextURL":    pageLink("/dashboard", result.Page+1, queryParams),
	})
}

// DashboardTogglePublish handles the publish/unpublish form and redirects back.
func (a *API) DashboardTogglePublish(c *gin.Context) {
	published, err := strconv.ParseBool(strings.TrimSpace(c.PostForm("published")))
	if err != nil {
		a.redirectWithFlash(c, flashError, "Invalid publish state.")
		return
	}

	post, err := a.posts.TogglePublish(c.Request.Context(), service.TogglePublishInput{
		ID:        c.Param("id"),
		Published: &published,
	})
	switch {
	case err != nil:
		a.log.Error().Err(err).Str("post_id", c.Param("id")).Msg("toggle publish failed")
		a.redirectWithFlash(c, flashError, "Could not update the post. Please try again.")
	case post == nil:
		a.redirectWithFlash(c, flashError, "Post not found.")
	case post.Published:
		a.redirectWithFlash(c, flashSuccess, "Published “"+post.Title+"”.")
	default:
		a.redirectWithFlash(c, flashSuccess, "Moved “"+post.Title+"” back to drafts.")
	}
}

// DashboardDeletePost handles the delete form and redirects back.
func (a *API) DashboardDeletePost(c *gin.Context) {
	post, err := a.posts.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err != nil:
		a.log.Error().Err(err).Str("post_id", c.Param("id")).Msg("delete post failed")
		a.redirectWithFlash(c, flashError, "Could not delete the post. Please try again.")
	case post == nil:
		a.redirectWithFlash(c, flashError, "Post not found.")
	default:
		a.redirectWithFlash(c, flashSuccess, "Deleted “"+post.Title+"”.")
	}
}

func (a *API) dashboardError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "We could not load the dashboard. Please try again."
	if isValidationError(err) {
		status = http.StatusBadRequest
		message = "The search could not be understood."
	} else {
		a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to load dashboard")
	}
	a.renderHTML(c, status, "error.html", gin.H{"title": "Dashboard", "error": message})
}

func (a *API) redirectWithFlash(c *gin.Context, kind, text string) {
	a.redirectToWithFlash(c, "/dashboard", kind, text)
}

// redirectToWithFlash 保存提示消息后以 303 跳转到 target
func (a *API) redirectToWithFlash(c *gin.Context, target, kind, text string) {
	session := sessions.Default(c)
	session.AddFlash(kind + ":" + text)
	if err := session.Save(); err != nil {
		a.log.Warn().Err(err).Msg("failed to save flash message")
	}
	c.Redirect(http.StatusSeeOther, target)
}

// popFlashes 读取并清空会话中的提示消息
func popFlashes(c *gin.Context) []flashMessage {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save()

	flashes := make([]flashMessage, 0, len(raw))
	for _, item := range raw {
		text, ok := item.(string)
		if !ok {
			continue
		}
		kind, message, found := strings.Cut(text, ":")
		if !found {
			kind, message = flashSuccess, text
		}
		flashes = append(flashes, flashMessage{Kind: kind, Text: message})
	}
	return flashes
}
