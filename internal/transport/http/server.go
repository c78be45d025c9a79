package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	appsvc "rewear-api/internal/app"
	"rewear-api/internal/bootstrap"
	"rewear-api/internal/ratelimit"
	"rewear-api/internal/transport/http/handler"
	"rewear-api/internal/transport/http/middleware"
)

// Dependencies are the services the router exposes. Every field is required.
type Dependencies struct {
	AuthService    *appsvc.AuthService
	ItemService    *appsvc.ItemService
	ChatbotService *appsvc.ChatbotService
	AuthLimiter    ratelimit.Limiter
	ChatLimiter    ratelimit.Limiter
	Health         *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	gin.SetMode(app.Config.App.GinMode)
	router, err := newEngine(app.Config.App.TrustedProxies)
	if err != nil {
		return nil, err
	}
	router.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())

	registerRoutes(router, Dependencies{
		AuthService:    app.AuthService,
		ItemService:    app.ItemService,
		ChatbotService: app.ChatbotService,
		AuthLimiter:    app.AuthLimiter,
		ChatLimiter:    app.ChatLimiter,
		Health: handler.NewHealthHandler(
			app.Config.App.Name,
			app.Config.App.Env,
			app.StartedAt,
			app.HealthChecks()...,
		),
	})
	return router, nil
}

// newEngine only honours X-Forwarded-For from the listed proxies, so rate limit keys cannot be spoofed.
func newEngine(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies failed: %w", err)
	}
	return router, nil
}

func registerRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := handler.NewAuthHandler(deps.AuthService)
	itemHandler := handler.NewItemHandler(deps.ItemService)
	chatbotHandler := handler.NewChatbotHandler(deps.ChatbotService)
	requireUser := middleware.AuthBearer(deps.AuthService)

	router.GET("/healthz", deps.Health.Check)

	authGroup := router.Group("/auth")
	authLimit := middleware.RateLimit(deps.AuthLimiter, middleware.ClientIPKey)
	authGroup.POST("/signup", authLimit, authHandler.Signup)
	authGroup.POST("/login", authLimit, authHandler.Login)
	authGroup.GET("/me", requireUser, authHandler.Me)
	authGroup.GET("/me/events", requireUser, authHandler.Events)

	chatGroup := router.Group("/chatbot")
	chatGroup.Use(requireUser, middleware.RateLimit(deps.ChatLimiter, middleware.UserOrIPKey))
	chatGroup.POST("/ask", chatbotHandler.Ask)

	itemGroup := router.Group("/items")
	itemGroup.GET("", itemHandler.List)
	itemGroup.GET("/mine", requireUser, itemHandler.Mine)
	itemGroup.GET("/:id", middleware.OptionalBearer(deps.AuthService), itemHandler.Get)
	itemGroup.POST("", requireUser, itemHandler.Create)
	itemGroup.PATCH("/:id", requireUser, itemHandler.Update)

	adminGroup := router.Group("/admin")
	adminGroup.Use(requireUser, middleware.RequireAdmin(deps.AuthService))
	adminGroup.GET("/items/pending", itemHandler.ListPending)
}
