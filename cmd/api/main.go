package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuspress/campus-blog-api/api/swagger"
	"github.com/campuspress/campus-blog-api/internal/handler"
	"github.com/campuspress/campus-blog-api/internal/middleware"
	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/repository"
	"github.com/campuspress/campus-blog-api/internal/service"
	"github.com/campuspress/campus-blog-api/pkg/cache"
	"github.com/campuspress/campus-blog-api/pkg/config"
	"github.com/campuspress/campus-blog-api/pkg/database"
	"github.com/campuspress/campus-blog-api/pkg/logger"
	corsmiddleware "github.com/campuspress/campus-blog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuspress/campus-blog-api/pkg/middleware/requestid"
	"github.com/campuspress/campus-blog-api/pkg/storage"
)

// @title Campus Blog API
// @version 1.0.0
// @description University student blog platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	store, err := storage.NewUploadStore(cfg.Uploads.StorageDir, cfg.Uploads.PublicBaseURL, cfg.Uploads.AllowedExts)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload store", "error", err)
	}

	// Feed caching is best-effort: a missing Redis only disables the cache.
	var feedCache *repository.CacheRepository
	if cfg.Feed.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, feed cache disabled", "error", err)
		} else {
			feedCache = repository.NewCacheRepository(redisClient, logr)
			defer feedCache.Close() //nolint:errcheck
		}
	}

	authRepo := repository.NewAuthRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)

	metricsSvc := service.NewMetricsService()
	profileSvc := service.NewProfileService(profileRepo, authRepo, logr)
	authSvc := service.NewAuthService(authRepo, profileSvc, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		AllowedEmailDomain: cfg.Registration.AllowedEmailDomain,
	})
	projectSvc := service.NewProjectService(projectRepo, nil, logr)

	var postSvc *service.PostService
	if feedCache != nil {
		postSvc = service.NewPostService(postRepo, projectRepo, feedCache, authRepo, metricsSvc, nil, logr, cfg.Feed.CacheTTL)
	} else {
		postSvc = service.NewPostService(postRepo, projectRepo, nil, authRepo, metricsSvc, nil, logr, cfg.Feed.CacheTTL)
	}
	commentSvc := service.NewCommentService(commentRepo, postRepo, authRepo, nil, logr)
	gallerySvc := service.NewGalleryService(galleryRepo, postRepo, projectRepo, store, nil, logr, cfg.Uploads.MaxFileSizeBytes)
	moderationSvc := service.NewModerationService(postRepo, commentRepo, profileRepo, projectRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	postHandler := handler.NewPostHandler(postSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	projectHandler := handler.NewProjectHandler(projectSvc, gallerySvc)
	galleryHandler := handler.NewGalleryHandler(gallerySvc)
	moderationHandler := handler.NewModerationHandler(moderationSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.Static("/uploads", store.Dir())

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	// Optional auth on public reads widens draft visibility for authors and
	// admins without blocking anonymous readers.
	public := api.Group("", middleware.OptionalJWT(authSvc))
	{
		public.GET("/posts", postHandler.List)
		public.GET("/posts/:id", postHandler.Get)
		public.GET("/posts/:id/rendered", postHandler.GetRendered)
		public.GET("/posts/:id/comments", commentHandler.ListForPost)
		public.GET("/projects", projectHandler.List)
		public.GET("/projects/:id", projectHandler.Get)
		public.GET("/projects/:id/gallery", projectHandler.ListGallery)
		public.GET("/gallery", galleryHandler.List)
	}

	authed := api.Group("", middleware.JWT(authSvc))
	{
		authed.POST("/posts", postHandler.Create)
		authed.PATCH("/posts/:id", postHandler.Update)
		authed.DELETE("/posts/:id", postHandler.Delete)
		authed.POST("/posts/:id/comments", commentHandler.Create)
		authed.PATCH("/comments/:id", commentHandler.Update)
		authed.DELETE("/comments/:id", commentHandler.Delete)
		authed.POST("/gallery", galleryHandler.Upload)
		authed.DELETE("/gallery/:id", galleryHandler.Delete)

		student := authed.Group("/student", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin))
		student.GET("/posts", postHandler.ListOwn)

		admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
		admin.POST("/projects", projectHandler.Create)
		admin.PATCH("/projects/:id", projectHandler.Update)
		admin.DELETE("/projects/:id", projectHandler.Delete)
		admin.GET("/admin/posts", moderationHandler.ListAllPosts)
		admin.GET("/admin/comments/recent", moderationHandler.RecentComments)
		admin.GET("/admin/dashboard", moderationHandler.Dashboard)
		admin.GET("/admin/profiles", profileHandler.List)
		admin.PATCH("/admin/profiles/:id/role", profileHandler.ChangeRole)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
