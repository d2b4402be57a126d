// Package server initializes and runs the moodlog server: database,
// HTTP API, and the cold-storage archiver.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/moodlog-app/moodlog/internal/logging"
	"github.com/moodlog-app/moodlog/internal/server/archive"
	"github.com/moodlog-app/moodlog/internal/server/config"
	"github.com/moodlog-app/moodlog/internal/server/httpapi"
	"github.com/moodlog-app/moodlog/internal/server/services"
	"github.com/moodlog-app/moodlog/internal/server/shared/db"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	manager      *db.PostgresRepositoryManager
	entryService *services.EntryService
	httpServer   *httpapi.Server
	archiver     *archive.Archiver
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	manager, err := db.NewPostgresRepositoryManager(context.Background(), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	es := services.NewEntryService(manager.Entries(), c)
	hs := httpapi.NewServer(c.EndpointAddrHTTP, es, logger, c.SecretKey)

	app := &App{
		config:       c,
		logger:       logger,
		manager:      manager,
		entryService: es,
		httpServer:   hs,
	}

	if c.ArchiveInterval > 0 {
		uploader, err := archive.NewS3Uploader(c)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		app.archiver = archive.NewArchiver(manager.Entries(), uploader, logger, c.ArchiveInterval)
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	if app.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.archiver.Run(ctx)
		}()
	}

	<-ctx.Done()

	app.logger.Info(ctx, "Shutting down...")
	if err := app.httpServer.Shutdown(context.Background()); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
