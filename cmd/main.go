package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "portal/docs"
	"portal/internal/caching"
	"portal/internal/common"
	"portal/internal/config"
	"portal/internal/handlers"
	"portal/internal/jobs/background"
	"portal/internal/middleware"
	"portal/internal/models"
	"portal/internal/repositories"
	"portal/internal/services"
	"portal/pkg/database"
	"portal/pkg/logger"
)

const (
	serviceName     = "customer-portal"
	shutdownTimeout = 10 * time.Second
)

// @title Customer Portal API
// @version 1.0
// @description Multi-tenant customer portal: accounts, payments, forms and messages.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Session.GeneratedSecret {
		zapLog.Warn("SESSION_SECRET not set, using a generated secret; sessions will not survive a restart")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, zapLog)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, zapLog); err != nil {
		return err
	}

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zapLog)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient)

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	tenantMessageRepo := repositories.NewTenantMessageRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	linkRepo := repositories.NewAccountLinkRepo(pool)
	txnRepo := repositories.NewTransactionRepo(pool)
	balanceRepo := repositories.NewBalanceRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	formRepo := repositories.NewFormRepo(pool)
	submissionRepo := repositories.NewSubmissionRepo(pool)
	messageRepo := repositories.NewMessageRepo(pool)

	// Collaborators
	archive, err := services.NewCallbackArchive(ctx, cfg.Minio, zapLog)
	if err != nil {
		return fmt.Errorf("init callback archive: %w", err)
	}
	events := services.NewEventPublisher(cfg.Kafka, zapLog)
	defer func() {
		if err := events.Close(); err != nil {
			zapLog.Warn("failed to close event publisher", zap.Error(err))
		}
	}()
	dispatcher, err := services.NewMailDispatcher(cfg.SES, zapLog)
	if err != nil {
		return fmt.Errorf("init mail dispatcher: %w", err)
	}
	directory := services.NewAccountDirectory(cfg.Directory, zapLog)

	// Services
	resolver := services.NewTenantResolver(cfg.Tenant)
	tenantSvc := services.NewTenantService(tenantRepo, tenantMessageRepo, cacheSvc, zapLog)
	sessionSvc := services.NewSessionService(cfg.Session)
	authSvc := services.NewAuthService(userRepo, linkRepo, cacheSvc, directory, sessionSvc, cfg.AdminEmail, cfg.Session.PendingAccountsTTL, zapLog)
	accountSvc := services.NewAccountService(userRepo, linkRepo, balanceRepo, txnRepo, sessionSvc)
	paymentSvc := services.NewPaymentService(txnRepo, linkRepo, ledgerRepo, cacheSvc, archive, events, cfg.Payment, zapLog)
	simulator := services.NewCheckoutSimulator(paymentSvc, cfg.BaseURL, cfg.Payment.WebhookSecret, zapLog)
	formSvc := services.NewFormService(formRepo, submissionRepo, events, zapLog)
	messageSvc := services.NewMessageService(messageRepo, tenantSvc, dispatcher, events, cfg.SES.Recipient, zapLog)
	adminSvc := services.NewAdminService(tenantMessageRepo, formRepo, tenantSvc, resolver, zapLog)
	statementSvc := services.NewStatementExporter()
	ledgerSyncSvc := services.NewLedgerSyncService(linkRepo, txnRepo, directory, zapLog)

	scheduler, err := background.NewJobScheduler(ledgerSyncSvc, cfg.Jobs, zapLog)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			zapLog.Warn("failed to stop scheduler", zap.Error(err))
		}
	}()

	// Middleware
	cookies := middleware.CookieWriter{Secure: cfg.Session.SecureCookies}
	tenantMW := middleware.NewTenantMiddleware(resolver)
	sessionMW := middleware.NewSessionMiddleware(sessionSvc, cookies, zapLog)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, sessionSvc, cookies, cfg.Session.PendingAccountsTTL)
	paymentHandlers := handlers.NewPaymentHandlers(paymentSvc, simulator, accountSvc, resolver, cfg.Payment.Limits)
	webhookHandlers := handlers.NewWebhookHandlers(paymentSvc)
	formHandlers := handlers.NewFormHandlers(formSvc, resolver)
	messageHandlers := handlers.NewMessageHandlers(messageSvc, resolver)
	userHandlers := handlers.NewUserHandlers(accountSvc, sessionSvc, cookies)
	adminHandlers := handlers.NewAdminHandlers(adminSvc, tenantSvc)
	jobHandlers := handlers.NewJobHandlers(scheduler)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc, accountSvc, statementSvc)
	directoryHandlers := handlers.NewDirectoryHandlers(directory, accountSvc, zapLog)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, zapLog)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = common.NewHTTPErrorHandler(zapLog)

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(zapLog))
	e.Use(tenantMW.Resolve())
	e.Use(sessionMW.LoadSession())

	// Public routes
	e.GET("/", tenantHandlers.Home)
	e.GET("/auth/signin", authHandlers.SignInPage)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.Use(middleware.VersionHeader(middleware.APIVersion))
	api.POST("/verify-email", authHandlers.VerifyEmail)
	api.POST("/auth/signin", authHandlers.SignIn)
	api.POST("/auth/signout", authHandlers.SignOut)
	api.POST("/webhooks/payments", webhookHandlers.PaymentWebhook)

	// Signed-in API routes
	protected := api.Group("")
	protected.Use(sessionMW.RequireSession())
	protected.GET("/auth/session", authHandlers.Session)
	protected.POST("/payments/create-checkout", paymentHandlers.CreateCheckout)
	protected.POST("/payments/simulate", paymentHandlers.Simulate)
	protected.POST("/forms/submit", formHandlers.Submit)
	protected.POST("/messages/send", messageHandlers.Send)
	protected.GET("/user/accounts", userHandlers.Accounts)
	protected.POST("/user/switch-account", userHandlers.SwitchAccount)
	protected.POST("/user/update-email", userHandlers.UpdateEmail)
	protected.GET("/accounts/:accountNumber/summary", directoryHandlers.Summary)
	protected.GET("/accounts/:accountNumber/transactions", directoryHandlers.Transactions)

	// Admin console
	admin := api.Group("/admin")
	admin.Use(sessionMW.RequireSession(), middleware.RequireRole(models.RoleAdmin))
	admin.GET("", adminHandlers.Overview)
	admin.GET("/tenant-messages", adminHandlers.ListTenantMessages)
	admin.GET("/tenant-messages/:id", adminHandlers.GetTenantMessage)
	admin.POST("/tenant-messages/update", adminHandlers.UpdateTenantMessage)
	admin.GET("/forms", adminHandlers.ListForms)
	admin.POST("/forms/update", adminHandlers.UpdateForm)
	admin.GET("/jobs", jobHandlers.Status)
	admin.POST("/jobs/:name/run", jobHandlers.Run)
	admin.DELETE("/jobs/:name", jobHandlers.Remove)

	// Tenant pages
	pages := e.Group("")
	pages.Use(tenantMW.RequireTenant(), sessionMW.RequireSession())
	pages.GET("/dashboard", tenantHandlers.Dashboard)
	pages.GET("/account-balance", tenantHandlers.AccountBalance)
	pages.GET("/transactions", tenantHandlers.Transactions)
	pages.GET("/transactions/export", tenantHandlers.ExportTransactions)
	pages.GET("/payments", paymentHandlers.PaymentsPage)
	pages.GET("/payments/hosted", paymentHandlers.HostedCheckoutPage)
	pages.GET("/forms", formHandlers.ListForms)
	pages.GET("/forms/:id", formHandlers.GetForm)
	pages.GET("/my/submissions", formHandlers.ListSubmissions)
	pages.GET("/my/submissions/:id", formHandlers.GetSubmission)
	pages.GET("/messages", messageHandlers.List)
	pages.GET("/settings", userHandlers.SettingsPage)

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.Strings("tenants", cfg.Tenant.Known),
		)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	zapLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
