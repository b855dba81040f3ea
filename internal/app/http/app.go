package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/voting-app/votingapp/internal/handlers"
	"github.com/voting-app/votingapp/internal/middleware"
	"github.com/voting-app/votingapp/internal/routes"
)

type App struct {
	engine *gin.Engine
	server *http.Server
	port   int
}

// NewApp builds the gin engine and wires the routes. The identity middleware
// runs on every /api request; only the private group enforces it.
func NewApp(
	port int,
	authHandler *handlers.AuthHandler,
	pollHandler *handlers.PollHandler,
	identity gin.HandlerFunc,
) *App {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api", identity)
	{
		routes.RegisterPublicRoutes(api, authHandler)

		privateGroup := api.Group("", middleware.RequireAuth())
		routes.RegisterPrivateRoutes(privateGroup, pollHandler)
	}

	// Healthcheck
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return &App{
		engine: r,
		server: httpServer,
		port:   port,
	}
}

// Run starts the HTTP server.
func (a *App) Run() error {
	fmt.Println("HTTP server is running", slog.String("addr", a.server.Addr))
	return a.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (a *App) Stop(ctx context.Context) error {
	fmt.Println("HTTP server is stopping...")
	return a.server.Shutdown(ctx)
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}
