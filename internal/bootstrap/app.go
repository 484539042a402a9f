package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/assets"
	googleauth "github.com/karthik1704/rsr-v1/internal/auth"
	"github.com/karthik1704/rsr-v1/internal/payments"
	"github.com/karthik1704/rsr-v1/internal/resumes"
	"github.com/karthik1704/rsr-v1/internal/services/health"
	"github.com/karthik1704/rsr-v1/internal/shared/auth"
	"github.com/karthik1704/rsr-v1/internal/shared/config"
	"github.com/karthik1704/rsr-v1/internal/shared/server"
	"github.com/karthik1704/rsr-v1/internal/shared/server/middleware"
	"github.com/karthik1704/rsr-v1/internal/shared/storage/db"
	"github.com/karthik1704/rsr-v1/internal/shared/storage/object"
	localstore "github.com/karthik1704/rsr-v1/internal/shared/storage/object/local"
	s3store "github.com/karthik1704/rsr-v1/internal/shared/storage/object/s3"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
	"github.com/karthik1704/rsr-v1/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Tokens          *auth.TokenManager
	UsersRepo       users.Repo
	ResumesRepo     resumes.Repo
	PaymentsRepo    payments.Repo
	UsersService    *users.Service
	AssetsService   *assets.Service
	ResumesService  *resumes.Service
	PaymentsService *payments.Service
	UsersHandler    *users.Handler
	ResumesHandler  *resumes.Handler
	PaymentsHandler *payments.Handler
	GoogleAuth      *googleauth.GoogleService
	Health          *health.Service
}

// Build prepares shared dependencies and wires routes.
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
		Tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		Tokens:   app.Tokens,
		Health:   app.Health,
		Users:    app.UsersHandler,
		Resumes:  app.ResumesHandler,
		Payments: app.PaymentsHandler,
		Google:   app.GoogleAuth,
		Limiter:  middleware.NewRateLimiter(time.Now),
		Staff:    app.UsersService,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.DetectProfile())
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
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

func buildServices(app *App) {
	var (
		userRepo    users.Repo
		resumeRepo  resumes.Repo
		paymentRepo payments.Repo
	)

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		resumeRepo = &resumes.PGRepo{DB: app.DB}
		paymentRepo = &payments.PGRepo{DB: app.DB}
		app.Health = health.NewService(app.DB)
	} else {
		memUsers := users.NewMemoryRepo()
		userRepo = memUsers
		resumeRepo = resumes.NewMemoryRepo()
		paymentRepo = payments.NewMemoryRepo(memUsers)
		app.Health = health.NewService(nil)
	}

	cfg := app.Config
	userSvc := users.NewService(userRepo)
	assetSvc := assets.NewService(app.Store, cfg.AssetCleanupStrict, cfg.MaxImageBytes)
	resumeSvc := resumes.NewService(resumeRepo, assetSvc)

	if strings.TrimSpace(cfg.StripeSecretKey) == "" {
		telemetry.Warn("bootstrap.stripe_unconfigured", map[string]any{"key": "STRIPE_SECRET_KEY"})
	}
	processor := payments.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
	paymentSvc := payments.NewService(paymentRepo, processor, resumeSvc, cfg.PremiumPeriod)

	app.UsersRepo = userRepo
	app.ResumesRepo = resumeRepo
	app.PaymentsRepo = paymentRepo
	app.UsersService = userSvc
	app.AssetsService = assetSvc
	app.ResumesService = resumeSvc
	app.PaymentsService = paymentSvc
	app.UsersHandler = users.NewHandler(userSvc, app.Tokens, !isDevLike(cfg.Env))
	app.ResumesHandler = resumes.NewHandler(resumeSvc, cfg.MaxImageBytes)
	app.PaymentsHandler = payments.NewHandler(paymentSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		userSvc,
		app.Tokens,
	)
}
