// Package bootstrap builds the application object graph shared by the
// API server and the worker.
package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/cache"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/llm"
	openai "docqa-backend/internal/llm/openai"
	"docqa-backend/internal/pipeline"
	"docqa-backend/internal/queue"
	"docqa-backend/internal/services/health"
	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server"
	"docqa-backend/internal/shared/storage/db"
	"docqa-backend/internal/shared/storage/object"
	localstore "docqa-backend/internal/shared/storage/object/local"
	s3store "docqa-backend/internal/shared/storage/object/s3"
	"docqa-backend/internal/users"
)

const tokenTTL = 24 * time.Hour

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB    *sql.DB
	Store object.ObjectStore
	Cache cache.Cache
	Queue queue.Client
	LLM   llm.Client

	Signer *auth.Signer

	UsersRepo     users.Repo
	DocumentsRepo documents.Repo

	UsersService     *users.Service
	DocumentsService *documents.Service
	Processor        *pipeline.Processor
	Health           *health.Service

	UsersHandler     *users.Handler
	DocumentsHandler *documents.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config, opts db.Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cacheClient, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Cache:  cacheClient,
		Queue:  queueClient,
		LLM:    llmClient,
		Signer: auth.NewSigner(cfg.JWTSecret, tokenTTL),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		Signer:           app.Signer,
		UsersHandler:     app.UsersHandler,
		DocumentsHandler: app.DocumentsHandler,
		Health:           app.Health,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, errRequired("DATABASE_URL")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
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

func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case "dynamodb":
		return cache.NewDynamo(ctx, cfg.DynamoTableName, cfg.AWSRegion)
	default:
		return cache.NewMemory(), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	apiKey := strings.TrimSpace(cfg.LLMAPIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" || strings.TrimSpace(cfg.LLMModel) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: LLM credentials missing; using placeholder client")
			return llm.PlaceholderClient{}, nil
		}
		return nil, errRequired("LLM_MODEL and LLM_API_KEY")
	}
	return openai.NewClient(apiKey, cfg.LLMModel)
}

func buildServices(app *App) {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
	}

	app.Processor = &pipeline.Processor{
		Repo:  app.DocumentsRepo,
		Store: app.Store,
		Cache: app.Cache,
		LLM:   app.LLM,
		Cfg: pipeline.Config{
			ChunkSize:         app.Config.ChunkSize,
			ChunkOverlap:      app.Config.ChunkOverlap,
			CacheTTL:          app.Config.CacheTTL,
			Budget:            app.Config.ProcessingBudget,
			LLMMaxAttempts:    app.Config.LLMMaxAttempts,
			LLMRetryBaseDelay: app.Config.LLMRetryBaseDelay,
		},
	}

	docSvc := &documents.Service{
		Store: app.Store,
		Repo:  app.DocumentsRepo,
		Queue: app.Queue,
	}
	if app.Queue == nil {
		// No queue configured: run the pipeline inline on upload.
		processor := app.Processor
		docSvc.Process = func(ctx context.Context, documentID string, questions []string) {
			if err := processor.ProcessDocument(ctx, documentID, questions); err != nil {
				log.Printf("inline processing document=%s: %v", documentID, err)
			}
		}
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.DocumentsService = docSvc
	app.Health = &health.Service{
		DB:              app.DB,
		Cache:           app.Cache,
		Store:           app.Store,
		QueueConfigured: app.Queue != nil,
	}
	app.UsersHandler = users.NewHandler(app.UsersService, app.Signer)
	app.DocumentsHandler = documents.NewHandler(docSvc, app.Config.MaxUploadBytes)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

type errRequired string

func (e errRequired) Error() string { return string(e) + " is required" }
