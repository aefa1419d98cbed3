package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lens-backend/internal/candidates"
	"lens-backend/internal/ingest"
	"lens-backend/internal/llm"
	"lens-backend/internal/llm/gemini"
	"lens-backend/internal/llm/openai"
	"lens-backend/internal/matching"
	"lens-backend/internal/positions"
	"lens-backend/internal/queue"
	"lens-backend/internal/ratings"
	"lens-backend/internal/requirements"
	"lens-backend/internal/services/health"
	"lens-backend/internal/shared/config"
	"lens-backend/internal/shared/server"
	"lens-backend/internal/shared/server/middleware"
	"lens-backend/internal/shared/storage/db"
	"lens-backend/internal/shared/storage/object"
	localstore "lens-backend/internal/shared/storage/object/local"
	s3store "lens-backend/internal/shared/storage/object/s3"
	"lens-backend/internal/shared/telemetry"
	"lens-backend/internal/structuring"
	"lens-backend/internal/summaries"
	"lens-backend/internal/workerproc"
)

const localQueueBuffer = 256

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	LLM    llm.ChatClient

	Files        candidates.Repo
	Summaries    summaries.Repo
	Positions    positions.Repo
	Groups       requirements.Repo
	Ratings      ratings.Repo
	Candidates   *candidates.Service
	Processor    *ingest.Processor
	Structuring  *structuring.Service
	Engine       *matching.Engine
	Dispatcher   *queue.Dispatcher
	Worker       *workerproc.Handler
	PositionsSvc *positions.Service
	GroupsSvc    *requirements.Service

	local *queue.Local
}

// Options adjusts Build for callers that manage their own queue consumption.
type Options struct {
	// DisableLocalQueue skips the in-process queue when no SQS URL is set.
	DisableLocalQueue bool
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, LLM: llmClient}
	buildServices(app)

	if err := buildQueue(ctx, app, opts); err != nil {
		return nil, err
	}
	if app.Dispatcher != nil {
		app.Candidates.Dispatcher = app.Dispatcher
	}

	// Processing and matching share one budget per client since both spend LLM calls.
	throttle := middleware.RateLimit(middleware.NewRateLimiter(cfg.LLMRateLimitPerMinute, cfg.LLMRateLimitBurst, nil))
	ingestHandler := ingest.NewHandler(app.Processor)
	ingestHandler.Throttle = throttle
	matchHandler := matching.NewHandler(app.Engine)
	matchHandler.Throttle = throttle

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Health: health.NewService(sqlDB),
		Routes: []server.RouteRegistrar{
			candidates.NewHandler(app.Candidates),
			ingestHandler,
			summaries.NewHandler(&summaries.Service{Repo: app.Summaries}),
			positions.NewHandler(app.PositionsSvc),
			requirements.NewHandler(app.GroupsSvc),
			matchHandler,
		},
	})
	return app, nil
}

// Close stops the local queue, if any, and releases the database.
func (a *App) Close() {
	if a.local != nil {
		a.local.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildLLM returns nil when the provider is disabled.
func buildLLM(ctx context.Context, cfg config.Config) (llm.ChatClient, error) {
	switch cfg.LLMProvider {
	case "none":
		return nil, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" && cfg.IsDevLike() {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": "gemini", "reason": "GEMINI_API_KEY empty"})
			return nil, nil
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		if cfg.LLMAPIKey == "" && cfg.IsDevLike() {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": "openai", "reason": "LLM_API_KEY empty"})
			return nil, nil
		}
		return openai.NewClient(openai.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		})
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.Files = &candidates.PGRepo{DB: app.DB}
		app.Summaries = &summaries.PGRepo{DB: app.DB}
		app.Positions = &positions.PGRepo{DB: app.DB}
		app.Groups = &requirements.PGRepo{DB: app.DB}
		app.Ratings = &ratings.PGRepo{DB: app.DB}
	} else {
		app.Files = candidates.NewMemoryRepo()
		app.Summaries = summaries.NewMemoryRepo()
		app.Positions = positions.NewMemoryRepo()
		app.Groups = requirements.NewMemoryRepo()
		app.Ratings = ratings.NewMemoryRepo()
	}

	provider := app.Config.ObjectStoreType
	app.Candidates = &candidates.Service{
		Store:           app.Store,
		Repo:            app.Files,
		StorageProvider: provider,
		Types:           ingest.Detector{},
	}
	app.PositionsSvc = positions.NewService(app.Positions)
	app.GroupsSvc = requirements.NewService(app.Groups, app.Positions)

	chat := app.LLM
	if chat == nil {
		chat = llm.PlaceholderClient{}
	}
	app.Processor = &ingest.Processor{
		Files:    app.Files,
		Store:    app.Store,
		Decoders: ingest.DefaultDecoders(),
		Parser:   ingest.HeuristicParser{},
	}
	if app.LLM != nil {
		app.Structuring = &structuring.Service{LLM: chat, Positions: app.Positions, Summaries: app.Summaries}
		app.Processor.Structurer = app.Structuring
	}
	app.Engine = &matching.Engine{
		Files:     app.Files,
		Summaries: app.Summaries,
		Ratings:   app.Ratings,
		Resolver:  &matching.Resolver{Groups: app.Groups, Positions: app.Positions},
		LLM:       chat,
	}
	app.Worker = &workerproc.Handler{Ingest: app.Processor, Match: app.Engine}
}

func buildQueue(ctx context.Context, app *App, opts Options) error {
	if url := strings.TrimSpace(app.Config.SQSQueueURL); url != "" {
		client, err := queue.NewSQSClient(ctx, app.Config.AWSRegion, url)
		if err != nil {
			return err
		}
		app.Queue = client
	} else if !opts.DisableLocalQueue {
		app.local = queue.NewLocal(app.Worker.Handle, localQueueBuffer, app.Config.WorkerConcurrency)
		app.local.Start(context.WithoutCancel(ctx))
		app.Queue = app.local
	}
	if app.Queue == nil {
		return nil
	}
	app.Dispatcher = &queue.Dispatcher{Client: app.Queue}
	return nil
}

// ErrNoQueue is returned by Enqueue when no queue backend is configured.
var ErrNoQueue = errors.New("no queue configured")

// Enqueue sends msg through the configured queue.
func (a *App) Enqueue(ctx context.Context, msg queue.Message) error {
	if a.Dispatcher == nil {
		return ErrNoQueue
	}
	switch msg.Kind {
	case queue.KindMatch:
		return a.Dispatcher.DispatchMatch(ctx, msg.FileID, msg.ProjectID, msg.FilterGroupID, msg.PositionID)
	default:
		return a.Dispatcher.DispatchIngest(ctx, msg.FileID, msg.ProjectID)
	}
}
