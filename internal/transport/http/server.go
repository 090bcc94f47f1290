package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studysync/studysync-server/internal/auth"
	"github.com/studysync/studysync-server/internal/config"
	"github.com/studysync/studysync-server/internal/core"
	"github.com/studysync/studysync-server/internal/store"
)

// NewServer builds the HTTP server: health, WebSocket endpoint, and
// the REST API around the hub. The WebSocket endpoint hangs off a
// plain mux in front of gin; gin's response writer refuses the hijack
// after websocket.Accept writes the 101.
func NewServer(hub *core.Hub, st store.Store, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, hub, logger)
	userHandlers := NewUserHandlers(hub, logger)
	messageHandlers := NewMessageHandlers(st, hub, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)
	api.POST("/guest", apiHandlers.GuestLogin)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	authed.GET("/users/online", userHandlers.OnlineUsers)
	authed.POST("/messages", messageHandlers.SendMessage)
	authed.GET("/messages", messageHandlers.ListMessages)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
