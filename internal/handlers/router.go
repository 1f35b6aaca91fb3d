package handlers

import (
	"net/http"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// SetupRouter builds the Gin engine with middleware and all API routes
func (h *Handlers) SetupRouter() *gin.Engine {
	if h.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("collegedost-api"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "collegedost-backend",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/otp/request", h.RequestOTP)
			authGroup.POST("/otp/verify", h.VerifyOTP)

			authGroup.GET("/google", h.GoogleLogin)
			authGroup.GET("/google/callback", h.GoogleCallback)

			authGroup.GET("/me", h.auth.RequireAuth(), h.Me)
		}

		// Feed routes; anonymous sessions get the bounded feed
		feedGroup := api.Group("/feed")
		{
			feedGroup.Use(h.auth.OptionalAuth())
			feedGroup.GET("", h.GetFeed)
			feedGroup.GET("/initial", h.GetFeedInitial)
			feedGroup.GET("/related", h.GetRelatedPosts)
			feedGroup.GET("/tags/trending", h.GetTrendingTags)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.POST("", h.auth.RequireAuth(), h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.GET("/slug/:slug", h.GetPostBySlug)
			posts.DELETE("/:id", h.auth.RequireAuth(), h.DeletePost)

			posts.POST("/:id/view", h.auth.OptionalAuth(), h.RecordView)

			posts.POST("/:id/like", h.auth.RequireAuth(), h.LikePost)
			posts.DELETE("/:id/like", h.auth.RequireAuth(), h.UnlikePost)

			posts.POST("/:id/comments", h.auth.RequireAuth(), h.CreateComment)
			posts.GET("/:id/comments", h.ListComments)
		}

		// Comment routes
		comments := api.Group("/comments")
		{
			comments.Use(h.auth.RequireAuth())
			comments.DELETE("/:commentId", h.DeleteComment)
		}

		// Social routes
		social := api.Group("/social")
		{
			social.Use(h.auth.RequireAuth())
			social.POST("/follow/:id", h.FollowUser)
			social.DELETE("/follow/:id", h.UnfollowUser)
		}

		// User routes
		users := api.Group("/users")
		{
			users.PUT("/me", h.auth.RequireAuth(), h.UpdateProfile)
			users.POST("/me/avatar", h.auth.RequireAuth(), h.UploadAvatar)

			users.GET("/:username", h.auth.OptionalAuth(), h.GetProfile)
			users.GET("/:username/posts", h.GetUserPosts)
		}

		// WebSocket routes; auth via ?token= since browsers can't set
		// headers on upgrade requests
		ws := api.Group("/ws")
		{
			ws.GET("", h.auth.OptionalAuth(), h.HandleWebSocket)
			ws.GET("/stats", h.auth.RequireAuth(), h.GetHubStats)
		}
	}

	return r
}
