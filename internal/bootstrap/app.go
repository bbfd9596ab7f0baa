// Package bootstrap assembles the application dependency graph: database,
// object store, extraction engine, model client, and the sessions service.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ayuv-backend/internal/dialogue"
	"ayuv-backend/internal/extract"
	"ayuv-backend/internal/llm"
	openai "ayuv-backend/internal/llm/openai"
	"ayuv-backend/internal/report"
	"ayuv-backend/internal/sessions"
	"ayuv-backend/internal/shared/config"
	"ayuv-backend/internal/shared/server"
	"ayuv-backend/internal/shared/storage/db"
	"ayuv-backend/internal/shared/storage/object"
	localstore "ayuv-backend/internal/shared/storage/object/local"
	s3store "ayuv-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	SessionsRepo    sessions.Repo
	SessionsService *sessions.Service
	SessionsHandler *sessions.Handler
}

// Build prepares the dependency graph and wires routes.
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

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	var repo sessions.Repo
	if sqlDB != nil {
		repo = &sessions.PGRepo{DB: sqlDB}
	} else {
		repo = sessions.NewMemoryRepo()
	}

	svc := &sessions.Service{
		Repo:  repo,
		Store: store,
		Extractor: extract.New(extract.Config{
			TesseractBin:  cfg.TesseractBin,
			TesseractLang: cfg.TesseractLang,
		}),
		Generator:   &dialogue.Generator{LLM: llmClient},
		Synthesizer: &report.Synthesizer{LLM: llmClient},
	}
	handler := sessions.NewHandler(svc)

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           store,
		SessionsRepo:    repo,
		SessionsService: svc,
		SessionsHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Sessions: handler,
	})
	return app, nil
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
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	timeout := time.Duration(cfg.OpenAITimeoutSeconds) * time.Second
	return openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel, timeout)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
