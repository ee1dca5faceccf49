// @title                       bizdesk API
// @version                     1.0
// @description                 Multi-tenant back office for small businesses: tenders, debts, staff, banking, accounting and investors.
// @BasePath                    /v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "bizdesk/docs"
	"bizdesk/internal/analytics"
	"bizdesk/internal/assistant"
	"bizdesk/internal/caching"
	"bizdesk/internal/common"
	"bizdesk/internal/config"
	"bizdesk/internal/handlers"
	"bizdesk/internal/jobs"
	"bizdesk/internal/jobs/background"
	"bizdesk/internal/middleware"
	"bizdesk/internal/repositories"
	"bizdesk/internal/services"
	"bizdesk/pkg/database"
	"bizdesk/pkg/logger"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to a config file")
	runMigrations := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, *runMigrations, zl); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, runMigrations bool, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runMigrations {
		if err := database.RunMigrations(cfg.DB.URL, zl); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, cfg.DB, zl)
	if err != nil {
		return err
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zl)

	var storage services.StorageService
	if s, err := services.NewStorageService(cfg.Storage); err != nil {
		zl.Warn("object storage unavailable, document files disabled", zap.Error(err))
	} else if err := s.EnsureBucket(ctx); err != nil {
		zl.Warn("document bucket not ready, document files disabled", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
	} else {
		storage = s
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	workloadRepo := repositories.NewWorkloadRepo(pool)
	tenderRepo := repositories.NewTenderRepo(pool)
	stageRepo := repositories.NewTenderStageRepo(pool)
	debtRepo := repositories.NewDebtRepo(pool)
	bankRepo := repositories.NewBankRepo(pool)
	documentRepo := repositories.NewDocumentRepo(pool)
	kudirRepo := repositories.NewKudirRepo(pool)
	investorRepo := repositories.NewInvestorRepo(pool)
	dashboardRepo := repositories.NewDashboardRepo(pool)
	auditLogsRepo := repositories.NewAuditLogsRepo(pool)

	// Services
	rbacSvc := services.NewRBACService(roleRepo)
	tenantSvc := services.NewTenantService(tenantRepo)
	tenderSvc := services.NewTenderService(tenderRepo, stageRepo, employeeRepo, cfg.Tenders.StaleAfterDays)
	debtSvc := services.NewDebtService(debtRepo)
	staffSvc := services.NewStaffService(roleRepo, employeeRepo)
	workloadSvc := services.NewWorkloadService(workloadRepo, employeeRepo)
	bankingSvc := services.NewBankingService(bankRepo, tenderRepo)
	documentSvc := services.NewDocumentService(documentRepo, storage, zl)
	kudirSvc := services.NewKudirService(kudirRepo, bankRepo, zl)
	investorSvc := services.NewInvestorService(investorRepo)
	auditLogsSvc := services.NewAuditLogsService(auditLogsRepo)
	dashboardSvc := analytics.NewDashboardService(dashboardRepo, debtRepo, kudirRepo, cacheSvc, cfg.Redis.CacheTTL, zl)

	staleScanner := jobs.NewStaleTenderScanner(tenantRepo, tenderSvc, cacheSvc, zl)
	warmup := jobs.NewDashboardWarmup(tenantRepo, dashboardSvc, zl)

	var runner handlers.JobRunner
	if cfg.Jobs.Enabled {
		scheduler, err := background.NewJobScheduler(staleScanner, warmup, background.Intervals{
			StaleScan:       cfg.Jobs.StaleScanInterval,
			DashboardWarmup: cfg.Jobs.DashboardWarmupEvery,
		}, zl)
		if err != nil {
			return fmt.Errorf("create job scheduler: %w", err)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				zl.Warn("job scheduler shutdown failed", zap.Error(err))
			}
		}()
		runner = scheduler
	}

	keyFunc, closeKeys, err := middleware.NewKeyfunc(cfg.Auth, zl)
	if err != nil {
		return err
	}
	defer closeKeys()

	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewRequestValidator()
	e.HTTPErrorHandler = common.HTTPErrorHandler(zl)

	metrics := middleware.NewHTTPMetrics()
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(zl))
	e.Use(metrics.Middleware())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowCredentials: true,
	}))
	e.Use(echoMiddleware.BodyLimit(cfg.Server.BodyLimit))

	var storagePinger handlers.Pinger
	if storage != nil {
		storagePinger = storage
	}
	handlers.NewHealthHandlers(pool, cacheSvc, storagePinger, version).Register(e)
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	versions := middleware.NewVersionMiddleware()
	e.Use(versions.APIVersionResolver())
	v1 := versions.VersionRoute(e, "v1")

	jwtMw := middleware.JWTMiddleware(keyFunc, cfg.Auth.CookieName)
	audit := middleware.NewAuditMiddleware(auditLogsSvc)
	rbacMw := middleware.NewRBACMiddleware(rbacSvc)

	onboarding := v1.Group("", jwtMw, middleware.IdentityContext(employeeRepo, false), audit.AuditRequest(middleware.AuditStandard))
	protected := v1.Group("", jwtMw, middleware.IdentityContext(employeeRepo, true),
		audit.AuditRequest(middleware.AuditStandard), middleware.InvalidateOnWrite(cacheSvc))

	tenantHandlers := handlers.NewTenantHandlers(tenantSvc, rbacSvc, rbacMw)
	tenantHandlers.RegisterOnboarding(onboarding)
	tenantHandlers.Register(protected)

	handlers.NewTenderHandlers(tenderSvc, rbacMw).Register(protected)
	handlers.NewDebtHandlers(debtSvc, rbacMw).Register(protected)
	handlers.NewStaffHandlers(staffSvc, workloadSvc, rbacMw).Register(protected)
	handlers.NewBankingHandlers(bankingSvc, rbacMw).Register(protected)
	handlers.NewAccountingHandlers(documentSvc, kudirSvc, rbacMw).Register(protected)
	handlers.NewInvestorHandlers(investorSvc, rbacMw).Register(protected)
	handlers.NewDashboardHandlers(dashboardSvc, rbacMw).Register(protected)
	handlers.NewAuditLogsHandlers(auditLogsSvc, rbacMw).Register(protected)
	handlers.NewJobHandlers(runner, staleScanner, rbacMw).Register(protected)

	if cfg.AssistantEnabled() {
		client, err := assistant.NewGeminiClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			return err
		}
		defer client.Close()

		tools := assistant.NewToolset(assistant.Services{
			Tenders:    tenderSvc,
			Debts:      debtSvc,
			Staff:      staffSvc,
			Workload:   workloadSvc,
			Banking:    bankingSvc,
			Kudir:      kudirSvc,
			Investors:  investorSvc,
			Documents:  documentSvc,
			Dashboards: dashboardSvc,
		}, assistant.Guard{
			Permissions: rbacSvc,
			Cache:       cacheSvc,
			Audit:       auditLogsSvc,
		}, zl)
		model := assistant.NewGeminiModel(client, cfg.LLM.Model, tools.Declarations())
		engine := assistant.NewEngine(model, tools, cacheSvc, assistant.EngineConfig{
			RequestsPerSec: cfg.LLM.RequestsPerSec,
			Burst:          cfg.LLM.Burst,
			Timeout:        cfg.LLM.Timeout,
			TenantLimit:    cfg.LLM.TenantLimit,
			TenantWindow:   cfg.LLM.TenantWindow,
		}, zl)
		handlers.NewAssistantHandlers(engine, rbacMw, cfg.Server.AllowOrigins, zl).Register(protected)
		zl.Info("assistant enabled", zap.String("model", cfg.LLM.Model))
	} else {
		zl.Info("assistant disabled, no llm.api_key configured")
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("bizdesk server starting", zap.String("version", version), zap.Int("port", cfg.Server.Port))
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
