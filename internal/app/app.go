package app

import (
	"context"
	"log/slog"
	"time"

	httpapp "github.com/voting-app/votingapp/internal/app/http"
	"github.com/voting-app/votingapp/internal/handlers"
	"github.com/voting-app/votingapp/internal/middleware"
	"github.com/voting-app/votingapp/internal/services/auth"
	"github.com/voting-app/votingapp/internal/services/voting"
	"github.com/voting-app/votingapp/internal/storage/postgres"
)

type App struct {
	HTTPServer *httpapp.App
	Auth       *auth.Auth
	Voting     *voting.Voting
}

func NewApp(log *slog.Logger, httpPort int, storagePath, appSecret string, tokenTTL time.Duration) *App {
	storage, err := postgres.New(storagePath)
	if err != nil {
		panic(err)
	}

	secret := []byte(appSecret)

	authService := auth.NewAuth(log, storage, storage, secret, tokenTTL)
	votingService := voting.NewVoting(log, storage)

	authHandler := handlers.NewAuthHandler(authService)
	pollHandler := handlers.NewPollHandler(votingService)

	authMiddleware := middleware.NewAuthMiddleware(storage, secret)

	httpApp := httpapp.NewApp(httpPort, authHandler, pollHandler, authMiddleware.Identity())

	return &App{
		HTTPServer: httpApp,
		Auth:       authService,
		Voting:     votingService,
	}
}

func (a *App) Stop(ctx context.Context) error {
	return a.HTTPServer.Stop(ctx)
}
