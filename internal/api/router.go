// Package api assembles the HTTP surface of the server.
package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/yudhapratama/learnhub/internal/auth"
	"github.com/yudhapratama/learnhub/internal/handlers"
	"github.com/yudhapratama/learnhub/internal/middleware"
	"github.com/yudhapratama/learnhub/internal/services"
)

// Options carries everything the router needs beyond the services.
type Options struct {
	// Cookies controls session cookie attributes.
	Cookies handlers.CookieConfig
	// BaseURL is the public address of the API, used for image URLs.
	BaseURL string
	// FrontendURL is the origin allowed via CORS and the OAuth landing page.
	FrontendURL string
	// UploadsDir is served statically under /uploads/courses.
	UploadsDir string
}

// Dependencies groups the services the router exposes.
type Dependencies struct {
	DB      *gorm.DB
	Tokens  *iauth.TokenService
	Auth    *services.AuthService
	Courses *services.CourseService
	// Google may be nil when OAuth is not configured.
	Google *iauth.GoogleProvider
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(deps Dependencies, opts Options) (*gin.Engine, error) {
	if deps.DB == nil || deps.Tokens == nil || deps.Auth == nil || deps.Courses == nil {
		return nil, errors.New("api: db, tokens, auth, and courses are required")
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.SecurityHeaders(),
		middleware.CORS(opts.FrontendURL),
		middleware.Metrics(),
	)
	engine.NoRoute(middleware.NotFoundHandler)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.UploadsDir != "" {
		engine.Static("/uploads/courses", opts.UploadsDir)
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Google, opts.Cookies, opts.FrontendURL)
	userHandler := handlers.NewUserHandler(deps.Auth)
	courseHandler := handlers.NewCourseHandler(deps.Courses, opts.BaseURL)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	requireAuth := middleware.Auth(deps.Tokens)
	requireVerified := middleware.RequireVerifiedEmail()

	api := engine.Group("/api")
	{
		api.GET("/health", healthHandler.Check)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			// Logout is deliberately unguarded: it must clear cookies even
			// when the access token is gone or expired.
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/verify", authHandler.Verify)
			authGroup.GET("/google", authHandler.GoogleBegin)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)

			authGroup.GET("/me", requireAuth, authHandler.Me)
		}

		api.GET("/user/me", requireAuth, userHandler.Me)

		courses := api.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.GET("/:id", courseHandler.Get)

			courses.POST("", requireAuth, requireVerified, courseHandler.Create)
			courses.PATCH("/:id", requireAuth, requireVerified, courseHandler.Update)
			courses.DELETE("/:id", requireAuth, requireVerified, courseHandler.Delete)
		}
	}

	return engine, nil
}
