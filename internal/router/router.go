package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/handler"
	"github.com/quillblog/internal/logging"
	"github.com/quillblog/internal/view"
	"github.com/rs/zerolog"
)

const sessionName = "quill_session"

// Config 路由需要的外部依赖
type Config struct {
	SessionSecret string
	Logger        zerolog.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg Config) (*gin.Engine, error) {
	r := gin.New()
	r.Use(logging.GinMiddleware(cfg.Logger))

	// 配置会话中间件
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "quill-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	templates, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(templates)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/blog")
	})
	r.GET("/blog", api.ShowBlog)
	r.GET("/blog/:slug", api.ShowPost)

	r.GET("/dashboard", api.ShowDashboard)
	r.POST("/dashboard/posts/:id/publish", api.DashboardTogglePublish)
	r.POST("/dashboard/posts/:id/delete", api.DashboardDeletePost)

	r.GET("/posts/new", api.ShowNewPost)
	r.GET("/posts/:id/edit", api.ShowEditPost)
	r.POST("/posts", api.SubmitNewPost)
	r.POST("/posts/preview", api.PreviewPost)
	r.POST("/posts/:id", api.SubmitEditPost)

	r.GET("/categories", api.ShowCategories)
	r.POST("/categories", api.SubmitCategory)
	r.POST("/categories/:id", api.SubmitCategoryUpdate)
	r.POST("/categories/:id/delete", api.SubmitCategoryDelete)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/categories", api.GetCategories)
		apiGroup.GET("/categories/all", api.GetAllCategories)
		apiGroup.GET("/categories/slug/:slug", api.GetCategoryBySlug)
		apiGroup.GET("/categories/:id", api.GetCategory)
		apiGroup.POST("/categories", api.CreateCategory)
		apiGroup.PATCH("/categories/:id", api.UpdateCategory)
		apiGroup.DELETE("/categories/:id", api.DeleteCategory)

		apiGroup.GET("/posts", api.GetPosts)
		apiGroup.GET("/posts/stats", api.GetPostStats)
		apiGroup.GET("/posts/slug/:slug", api.GetPostBySlug)
		apiGroup.GET("/posts/:id", api.GetPost)
		apiGroup.POST("/posts", api.CreatePost)
		apiGroup.PATCH("/posts/:id", api.UpdatePost)
		apiGroup.DELETE("/posts/:id", api.DeletePost)
		apiGroup.POST("/posts/:id/publish", api.TogglePublish)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r, nil
}
