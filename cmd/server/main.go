package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	httpAdapter "github.com/khoahotran/talent-forge/adapters/http"
	"github.com/khoahotran/talent-forge/adapters/media_storage"
	"github.com/khoahotran/talent-forge/adapters/persistence"
	accountUC "github.com/khoahotran/talent-forge/internal/application/usecase/account"
	assetUC "github.com/khoahotran/talent-forge/internal/application/usecase/asset"
	authUC "github.com/khoahotran/talent-forge/internal/application/usecase/auth"
	employerUC "github.com/khoahotran/talent-forge/internal/application/usecase/employer"
	jobseekerUC "github.com/khoahotran/talent-forge/internal/application/usecase/jobseeker"
	skillUC "github.com/khoahotran/talent-forge/internal/application/usecase/skill"
	"github.com/khoahotran/talent-forge/internal/config"
	"github.com/khoahotran/talent-forge/pkg/auth"
	"github.com/khoahotran/talent-forge/pkg/logger"
	"github.com/khoahotran/talent-forge/pkg/mfa"
	"github.com/khoahotran/talent-forge/pkg/tracing"
)

const serviceName = "talent-forge-api"

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Talent Forge API server...", zap.String("env", cfg.App.Env))

	shutdownTracing, err := tracing.Setup(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}

	// Infrastructure
	if err := persistence.RunMigrations(cfg.DB.DSN, appLogger); err != nil {
		appLogger.Fatal("Cannot apply migrations", err)
	}

	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Redis", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init uploader", err)
	}

	// Repositories and stores
	userRepo := persistence.NewPostgresUserRepo(dbPool)
	employerRepo := persistence.NewPostgresEmployerRepo(dbPool)
	jobSeekerRepo := persistence.NewPostgresJobSeekerRepo(dbPool)
	skillRepo := persistence.NewPostgresSkillRepo(dbPool)
	txManager := persistence.NewTxManager(dbPool)
	pendingStore := persistence.NewRedisPendingStore(redisClient)
	sessionStore := persistence.NewRedisSessionStore(redisClient)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	mfaEngine := mfa.NewEngine(cfg.MFA.Issuer)
	sessionIssuer := authUC.NewSessionIssuer(jwtSvc, sessionStore)

	// Use cases
	signupUseCase := authUC.NewSignupUseCase(userRepo, pendingStore, cfg.MFA.PendingTTL, kafkaClient, appLogger)
	loginUseCase := authUC.NewLoginUseCase(userRepo, pendingStore, sessionIssuer, cfg.MFA.PendingTTL, kafkaClient, appLogger)
	verifyUseCase := authUC.NewVerifyOTPUseCase(userRepo, pendingStore, sessionIssuer, mfaEngine, kafkaClient, appLogger)
	mfaUseCase := authUC.NewMFAUseCase(userRepo, pendingStore, mfaEngine, cfg.MFA.QRSize, kafkaClient, appLogger)
	logoutUseCase := authUC.NewLogoutUseCase(sessionStore)
	overviewUseCase := accountUC.NewOverviewUseCase(userRepo, employerRepo, jobSeekerRepo)
	employerUseCase := employerUC.NewProfileUseCase(employerRepo, kafkaClient, appLogger)
	createJobSeekerUseCase := jobseekerUC.NewCreateProfileUseCase(txManager, kafkaClient, appLogger)
	getJobSeekerUseCase := jobseekerUC.NewGetProfileUseCase(jobSeekerRepo)
	listSkillsUseCase := skillUC.NewListSkillsUseCase(skillRepo)
	uploadAssetUseCase := assetUC.NewUploadAssetUseCase(employerRepo, jobSeekerRepo, uploader, kafkaClient, appLogger)

	// HTTP
	handlers := httpAdapter.Handlers{
		Auth:      httpAdapter.NewAuthHandler(signupUseCase, loginUseCase, verifyUseCase, mfaUseCase, logoutUseCase, cfg.MFA.PendingTTL, appLogger),
		Account:   httpAdapter.NewAccountHandler(overviewUseCase, mfaUseCase),
		Employer:  httpAdapter.NewEmployerHandler(employerUseCase),
		JobSeeker: httpAdapter.NewJobSeekerHandler(createJobSeekerUseCase, getJobSeekerUseCase),
		Skill:     httpAdapter.NewSkillHandler(listSkillsUseCase),
		Asset:     httpAdapter.NewAssetHandler(uploadAssetUseCase, appLogger),
	}
	authMiddleware := httpAdapter.AuthMiddleware(jwtSvc, sessionStore, appLogger)

	router, err := httpAdapter.NewRouter(handlers, authMiddleware, httpAdapter.RouterOptions{
		ServiceName:   serviceName,
		AuthRateLimit: cfg.Auth.RateLimit,
		AuthRateBurst: cfg.Auth.RateBurst,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot build router", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server stopped unexpectedly", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Failed to flush traces", err)
	}
}
