package handler

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/service"
)

// postCard 是列表页使用的文章摘要
type postCard struct {
	Title       string
	Slug        string
	Excerpt     string
	AuthorName  string
	PublishedAt *time.Time
	Categories  []db.CategorySummary
}

func newPostCards(posts []db.Post) []postCard {
	cards := make([]postCard, 0, len(posts))
	for _, post := range posts {
		cards = append(cards, postCard{
			Title:       post.Title,
			Slug:        post.Slug,
			Excerpt:     excerpt(post.Content),
			AuthorName:  post.AuthorName,
			PublishedAt: post.PublishedAt,
			Categories:  post.Categories,
		})
	}
	return cards
}

// ShowBlog renders the published posts with search, category filter and pagination.
func (a *API) ShowBlog(c *gin.Context) {
	ctx := c.Request.Context()
	search := strings.TrimSpace(c.Query("search"))
	category := strings.TrimSpace(c.Query("category"))
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)
	limit := a.pageSize

	published := true
	result, err := a.posts.List(ctx, service.ListPostsInput{
		Page:          &page,
		Limit:         &limit,
		Search:        search,
		Category:      category,
		PublishedOnly: &published,
	})
	if isValidationError(err) {
		a.renderHTML(c, http.StatusBadRequest, "error.html", gin.H{
			"title": "Invalid search",
			"error": "The search could not be understood.",
		})
		return
	}
	if err != nil {
		a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to list blog posts")
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
			"title": "Something went wrong",
			"error": "We could not load posts. Please try again.",
		})
		return
	}

	queryParams := buildQueryParams(search, category)
	categories, err := a.categories.ListAll(ctx, true)
	if err != nil {
		_ = c.Error(err)
		a.log.Warn().Err(err).Msg("failed to load category filter")
	}

	a.renderHTML(c, http.StatusOK, "blog.html", gin.H{
		"title":       "Blog",
		"search":      search,
		"category":    category,
		"categories":  categories,
		"posts":       newPostCards(result.Items),
		"total":       result.Total,
		"page":        result.Page,
		"totalPages":  result.TotalPages,
		"hasPrev":     result.Page > 1,
		"hasNext":     result.Page < result.TotalPages,
		"prevURL":     pageLink("/blog", result.Page-1, queryParams),
		"nextURL":     pageLink("/blog", result.Page+1, queryParams),
	})
}

// ShowPost renders one published post. Drafts are not visible here.
func (a *API) ShowPost(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusNotFound
		} else {
			a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to load post")
		}
		a.renderHTML(c, status, "error.html", gin.H{"title": "Post unavailable", "error": "This post could not be loaded."})
		return
	}
	if post == nil || !post.Published {
		a.renderHTML(c, http.StatusNotFound, "error.html", gin.H{"title": "Not found", "error": "This post does not exist."})
		return
	}

	content, err := renderMarkdown(post.Content)
	if err != nil {
		a.log.Error().Err(err).Str("slug", post.Slug).Msg("failed to render markdown")
		content = template.HTML(template.HTMLEscapeString(post.Content))
	}

	a.renderHTML(c, http.StatusOK, "post.html", gin.H{
		"title":   post.Title,
		"post":    post,
		"content": content,
	})
}

func buildQueryParams(search, category string) string {
	values := url.Values{}
	if search != "" {
		values.Set("search", search)
	}
	if category != "" {
		values.Set("category", category)
	}
	if len(values) == 0 {
		return ""
	}
	return "&" + values.Encode()
}

func pageLink(base string, page int, queryParams string) string {
	return base + "?page=" + strconv.Itoa(page) + queryParams
}
