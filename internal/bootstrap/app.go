package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/extract"
	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/index/bleveindex"
	"github.com/jirafa27/DocumentSearcher/internal/index/pgindex"
	"github.com/jirafa27/DocumentSearcher/internal/ingest"
	"github.com/jirafa27/DocumentSearcher/internal/search"
	"github.com/jirafa27/DocumentSearcher/internal/services/health"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/lock"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/db"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/object"
	localstore "github.com/jirafa27/DocumentSearcher/internal/shared/storage/object/local"
	s3store "github.com/jirafa27/DocumentSearcher/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	LockDB           *sql.DB
	Redis            *redis.Client
	Store            object.ObjectStore
	Index            index.Index
	Locker           lock.Locker
	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	IngestService    *ingest.Service
	SearchService    *search.Service
	DocumentsHandler *documents.Handler
	SearchHandler    *search.Handler
	Health           *health.Service
}

// Options tweaks Build for callers that do not serve HTTP.
type Options struct {
	// SkipMigrations leaves the schema untouched.
	SkipMigrations bool
	DBOptions      *db.Options
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWithOptions(context.Background(), cfg, Options{})
}

// BuildWithOptions is Build with explicit options.
func BuildWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	if app.Index, err = buildIndex(cfg, sqlDB); err != nil {
		app.Close()
		return nil, err
	}
	if err := buildLocker(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		SearchHandler:   app.SearchHandler,
		Health:          app.Health,
	})

	return app, nil
}

// Close releases the index, the lock client and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.LockDB != nil {
		errs = append(errs, a.LockDB.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	dbOpts := db.OptionsFromEnv(db.DefaultServerOptions())
	if opts.DBOptions != nil {
		dbOpts = *opts.DBOptions
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, dbOpts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if !opts.SkipMigrations {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
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

func buildIndex(cfg config.Config, sqlDB *sql.DB) (index.Index, error) {
	if cfg.IndexBackend == "postgres" {
		if sqlDB != nil {
			return pgindex.New(sqlDB, cfg.TextSearchConfig), nil
		}
		log.Printf("bootstrap: postgres index requested without a database; using bleve")
	}
	return bleveindex.Open(cfg.BleveIndexPath)
}

func buildLocker(ctx context.Context, app *App) error {
	switch app.Config.LockBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     app.Config.RedisAddr,
			Password: app.Config.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("ping redis %s: %w", app.Config.RedisAddr, err)
		}
		app.Redis = client
		app.Locker = lock.NewRedis(client, app.Config.LockTTL)
	case "postgres":
		if app.DB == nil {
			log.Printf("bootstrap: postgres locks requested without a database; using in-process locks")
			app.Locker = lock.NewMemory()
			return nil
		}
		lockDB, err := db.Connect(ctx, app.Config.DatabaseURL, db.DefaultLockOptions())
		if err != nil {
			return fmt.Errorf("open lock pool: %w", err)
		}
		app.LockDB = lockDB
		app.Locker = lock.NewPostgres(lockDB)
	default:
		app.Locker = lock.NewMemory()
	}
	return nil
}

func buildServices(app *App) {
	var docRepo documents.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	ingestSvc := &ingest.Service{
		Repo:        docRepo,
		Index:       app.Index,
		Store:       app.Store,
		Locker:      app.Locker,
		Extractor:   extract.New(app.Config.ExtractTimeout, app.Config.ExtractConcurrency),
		MaxFileSize: app.Config.MaxFileSize,
	}
	docSvc := &documents.Service{Repo: docRepo, Store: app.Store}
	searchSvc := &search.Service{
		Index:          app.Index,
		Docs:           docRepo,
		MaxContextSize: app.Config.MaxContextSize,
		MaxDocuments:   app.Config.SearchMaxResults,
	}

	healthSvc := health.NewService(0)
	if app.DB != nil {
		healthSvc.Register("database", func(ctx context.Context) error {
			return db.Ping(ctx, app.DB, 0)
		})
	}
	if c, ok := app.Index.(interface{ Count() (uint64, error) }); ok {
		healthSvc.Register("index", func(context.Context) error {
			_, err := c.Count()
			return err
		})
	}
	if app.Redis != nil {
		healthSvc.Register("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.IngestService = ingestSvc
	app.SearchService = searchSvc
	app.DocumentsHandler = documents.NewHandler(docSvc, ingestSvc, app.Config.MaxFileSize)
	app.SearchHandler = search.NewHandler(searchSvc, app.Config.DefaultContextSize)
	app.Health = healthSvc
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
