package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"annotate-backend/internal/annotations"
	"annotate-backend/internal/documents"
	"annotate-backend/internal/extraction"
	"annotate-backend/internal/realtime"
	"annotate-backend/internal/shared/config"
	"annotate-backend/internal/shared/server"
	"annotate-backend/internal/shared/storage/db"
	"annotate-backend/internal/shared/storage/object"
	localstore "annotate-backend/internal/shared/storage/object/local"
	s3store "annotate-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	Hub      *realtime.Hub
	Pipeline *extraction.Pipeline

	DocumentsRepo   documents.DocumentsRepo
	AnnotationsRepo annotations.AnnotationsRepo

	DocumentsService   *documents.Service
	AnnotationsService *annotations.Service

	DocumentsHandler   *documents.Handler
	AnnotationsHandler *annotations.Handler
	RealtimeHandler    *realtime.Handler
}

// Build prepares shared dependencies and starts the background components.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Hub:    realtime.NewHub(),
	}

	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.AnnotationsRepo = &annotations.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.AnnotationsRepo = annotations.NewMemoryRepo()
	}

	app.Pipeline = extraction.NewPipeline(app.Store, app.DocumentsRepo, cfg.ExtractWorkers)
	app.Pipeline.Start()

	app.DocumentsService = &documents.Service{
		Store:    app.Store,
		Repo:     app.DocumentsRepo,
		Pipeline: app.Pipeline,
	}
	app.AnnotationsService = &annotations.Service{
		Repo:   app.AnnotationsRepo,
		Docs:   app.DocumentsRepo,
		Events: app.Hub,
	}

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.AnnotationsHandler = annotations.NewHandler(app.AnnotationsService)
	app.RealtimeHandler = realtime.NewHandler(app.Hub, cfg.CORSAllowOrigin)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		DocumentsHandler:   app.DocumentsHandler,
		AnnotationsHandler: app.AnnotationsHandler,
		RealtimeHandler:    app.RealtimeHandler,
	})

	return app, nil
}

// Shutdown stops background components and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if a.Pipeline != nil {
		if err := a.Pipeline.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Hub != nil {
		a.Hub.Shutdown()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
