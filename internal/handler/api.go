package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/service"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultSiteName = "Quill"
	defaultPageSize = 10
)

// Options carries the presentation settings shared by every handler.
type Options struct {
	SiteName string
	PageSize int
	Logger   zerolog.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	posts      *service.PostService
	categories *service.CategoryService
	log        zerolog.Logger
	siteName   string
	pageSize   int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	siteName := strings.TrimSpace(opts.SiteName)
	if siteName == "" {
		siteName = defaultSiteName
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 50 {
		pageSize = defaultPageSize
	}

	return &API{
		db:         gdb,
		posts:      service.NewPostService(gdb),
		categories: service.NewCategoryService(gdb),
		log:        opts.Logger,
		siteName:   siteName,
		pageSize:   pageSize,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// renderHTML 渲染模板时自动附加站点名称。
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	c.HTML(status, template, payload)
}
