// Package server wires configuration, storage, services and the HTTP edge
// into a runnable application with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophaccounts/internal/filex"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/avatars"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/oauthstate"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"

	hs "github.com/dmitrijs2005/gophaccounts/internal/server/http"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	server  *hs.HTTPServer
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.Setup(c.LogFormat, c.LogLevel, os.Stdout)
	app := &App{config: c, logger: logger}

	repos, err := repomanager.Open(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.repos = repos
	app.closers = append(app.closers, repos.Close)

	if err := repos.RunMigrations(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	uploadDir, err := filex.EnsureDir(c.UploadDir)
	if err != nil {
		app.close()
		return nil, err
	}

	store, err := app.avatarStore(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	states, err := app.stateIssuer(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	hasher := auth.NewArgon2idHasher()
	issuer := auth.NewIssuer([]byte(c.SecretKey), c.TokenValidityDuration)

	sessions := services.NewSessionManager(repos, hasher, issuer, logger)
	profiles := services.NewProfileService(repos, hasher, store, logger)
	broker := services.NewFederatedAuthBroker(services.ProviderConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		AuthURL:      c.GoogleAuthURL,
		TokenURL:     c.GoogleTokenURL,
		UserInfoURL:  c.GoogleUserInfoURL,
		RedirectURL:  strings.TrimRight(c.BaseURL, "/") + "/api/auth/google-redirect",
		FrontendURL:  c.FrontendURL,
		Timeout:      c.ProviderTimeout,
	}, states, sessions, logger)

	app.server = hs.NewHTTPServer(c.EndpointAddrHTTP, uploadDir, logger, sessions, profiles, broker)

	return app, nil
}

func (app *App) avatarStore(ctx context.Context) (avatars.Store, error) {
	switch app.config.AvatarStorage {
	case config.AvatarStorageS3:
		s, err := avatars.NewS3Store(ctx, app.config)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return s, nil
	case config.AvatarStorageLocal, "":
		return avatars.NewLocalStore(), nil
	default:
		return nil, fmt.Errorf("unknown avatar storage %q", app.config.AvatarStorage)
	}
}

// stateIssuer uses Redis one-time nonces when configured, signed state
// otherwise.
func (app *App) stateIssuer(ctx context.Context) (oauthstate.Issuer, error) {
	if app.config.RedisAddr == "" {
		return oauthstate.NewSigned([]byte(app.config.SecretKey), app.config.StateValidityDuration), nil
	}

	client, err := oauthstate.NewRedisClient(ctx, app.config.RedisAddr, app.config.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, client.Close)

	return oauthstate.NewRedisStore(client, app.config.StateValidityDuration), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close", "error", err.Error())
		}
	}
	app.closers = nil
}
