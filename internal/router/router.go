package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Backstage_Jobs/internal/handler"
	"Backstage_Jobs/internal/middleware"
	"Backstage_Jobs/internal/pkg"
	"Backstage_Jobs/internal/service"
)

// Deps is everything the HTTP layer needs; cmd/api builds it.
type Deps struct {
	Logger      *zap.Logger
	Issuer      *pkg.TokenIssuer
	Tokens      service.TokenStore
	Users       *service.UserService
	Categories  *service.CategoryService
	Postings    *service.PostingService
	Apps        *service.ApplicationService
	Saved       *service.SavedService
	Analytics   *service.AnalyticsService
	Recommender *service.RecommendService
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	user := handler.NewUserHandler(d.Users)
	category := handler.NewCategoryHandler(d.Categories)
	posting := handler.NewPostingHandler(d.Postings, d.Analytics)
	app := handler.NewApplicationHandler(d.Apps)
	saved := handler.NewSavedHandler(d.Saved)
	recommend := handler.NewRecommendHandler(d.Recommender)

	auth := middleware.Auth(d.Issuer, d.Tokens)
	optional := middleware.OptionalAuth(d.Issuer, d.Tokens)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// accounts
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
	}

	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// logged-in only
	authGroup := r.Group("/api/auth")
	authGroup.Use(auth)
	{
		authGroup.POST("/logout", user.Logout)
		authGroup.POST("/change-password", user.ChangePassword)
	}

	categoryGroup := r.Group("/api/categories")
	{
		categoryGroup.GET("", category.List)
		categoryGroup.GET("/:id", category.Get)
	}

	// postings, applications and bookmarks
	jobGroup := r.Group("/api/jobs")
	{
		jobGroup.GET("", posting.Search)
		jobGroup.GET("/:id", optional, posting.Get)
		jobGroup.POST("", auth, posting.Create)
		jobGroup.PUT("/:id", auth, posting.Update)
		jobGroup.DELETE("/:id", auth, posting.Delete)
		jobGroup.GET("/:id/analytics", auth, posting.Analytics)

		jobGroup.POST("/:id/applications", auth, app.Apply)
		jobGroup.GET("/:id/applications", auth, app.ListForPosting)

		jobGroup.POST("/:id/save", auth, saved.Save)
		jobGroup.DELETE("/:id/save", auth, saved.Unsave)
		jobGroup.GET("/:id/save", auth, saved.IsSaved)
	}

	appGroup := r.Group("/api/applications")
	appGroup.Use(auth)
	{
		appGroup.PUT("/:id/status", app.UpdateStatus)
		appGroup.POST("/:id/withdraw", app.Withdraw)
	}

	meGroup := r.Group("/api/me")
	meGroup.Use(auth)
	{
		meGroup.GET("/jobs", posting.ListMine)
		meGroup.GET("/applications", app.ListMine)
		meGroup.GET("/saved", saved.List)
		meGroup.GET("/recommendations", recommend.List)
	}

	return r
}
