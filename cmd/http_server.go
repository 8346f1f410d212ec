package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/alert"
	alertPostgres "github.com/jvaldiviezo/contasys/internal/alert/postgres"
	"github.com/jvaldiviezo/contasys/internal/auth"
	authPostgres "github.com/jvaldiviezo/contasys/internal/auth/postgres"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	bitacoraPostgres "github.com/jvaldiviezo/contasys/internal/bitacora/postgres"
	"github.com/jvaldiviezo/contasys/internal/client"
	clientPostgres "github.com/jvaldiviezo/contasys/internal/client/postgres"
	"github.com/jvaldiviezo/contasys/internal/core/events"
	"github.com/jvaldiviezo/contasys/internal/declaration"
	declarationPostgres "github.com/jvaldiviezo/contasys/internal/declaration/postgres"
	"github.com/jvaldiviezo/contasys/internal/nrus"
	"github.com/jvaldiviezo/contasys/internal/obligation"
	obligationPostgres "github.com/jvaldiviezo/contasys/internal/obligation/postgres"
	"github.com/jvaldiviezo/contasys/internal/payment"
	paymentPostgres "github.com/jvaldiviezo/contasys/internal/payment/postgres"
	"github.com/jvaldiviezo/contasys/internal/transport/rest"
	"github.com/jvaldiviezo/contasys/internal/user"
	userPostgres "github.com/jvaldiviezo/contasys/internal/user/postgres"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	handlers := buildHandlers(config, gormDB, lg)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Router:   chi.NewRouter(),
		Handlers: handlers,
	}, nil
}

// buildHandlers wires repositories, services, the event bus and the HTTP
// handlers. The alert engine subscribes to every domain event before any
// service can publish.
func buildHandlers(config *internal.Config, gormDB *gorm.DB, lg *slog.Logger) rest.Handlers {
	eventBus := events.NewEventBus(lg)

	bitacoraRepo := bitacoraPostgres.NewBitacoraRepository(gormDB)
	bitacoraService := bitacora.NewService(bitacoraRepo, lg)

	alertRepo := alertPostgres.NewAlertRepository(gormDB)
	alertService := alert.NewService(alertRepo, bitacoraService, lg)
	alert.NewEventHandler(alertService, lg).RegisterEventHandlers(eventBus)

	clientRepo := clientPostgres.NewClientRepository(gormDB)
	clientService := client.NewService(clientRepo, bitacoraService, lg)

	leadTime := config.Alerts.LeadTime()

	obligationRepo := obligationPostgres.NewObligationRepository(gormDB)
	obligationService := obligation.NewService(obligationRepo, clientService, eventBus, bitacoraService, leadTime, lg)

	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	paymentService := payment.NewService(paymentRepo, eventBus, bitacoraService, lg)

	declarationRepo := declarationPostgres.NewDeclarationRepository(gormDB)
	declarationService := declaration.NewService(declarationRepo, obligationService, clientService, eventBus, bitacoraService, leadTime, lg)

	tokenGen := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.RefreshTokenSecret)
	if config.Security.AccessTokenDuration > 0 {
		tokenGen.AccessTokenTTL = config.Security.AccessTokenDuration
	}
	if config.Security.RefreshTokenDuration > 0 {
		tokenGen.RefreshTokenTTL = config.Security.RefreshTokenDuration
	}
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, bitacoraService, config.Security.BCryptCost)

	return rest.Handlers{
		Auth:        auth.NewHandler(authService),
		Obligation:  obligation.NewHandler(obligationService),
		Payment:     payment.NewHandler(paymentService),
		Alert:       alert.NewHandler(alertService),
		Bitacora:    bitacora.NewHandler(bitacoraService),
		Declaration: declaration.NewHandler(declarationService),
		Client:      client.NewHandler(clientService),
		NRUS:        nrus.NewHandler(),
		User:        user.NewHandler(user.NewService(userPostgres.NewRepository(gormDB))),
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
