package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal/alert"
	alertPostgres "github.com/jvaldiviezo/contasys/internal/alert/postgres"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	bitacoraPostgres "github.com/jvaldiviezo/contasys/internal/bitacora/postgres"
	"github.com/jvaldiviezo/contasys/internal/client"
	clientPostgres "github.com/jvaldiviezo/contasys/internal/client/postgres"
	"github.com/jvaldiviezo/contasys/internal/core/events"
	"github.com/jvaldiviezo/contasys/internal/declaration"
	declarationPostgres "github.com/jvaldiviezo/contasys/internal/declaration/postgres"
	"github.com/jvaldiviezo/contasys/internal/obligation"
	obligationPostgres "github.com/jvaldiviezo/contasys/internal/obligation/postgres"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

// sweepCmd runs the due-date sweep once and exits. It is meant to be
// scheduled daily; rerunning it is safe because derived alerts dedupe on
// their deterministic event IDs.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the due-date sweep",
	Long:  `Transition overdue obligations and declarations and derive the matching alerts.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSweep()
	},
}

func runSweep() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		lg.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		lg.Error("failed to initialize gorm", "error", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)

	bitacoraService := bitacora.NewService(bitacoraPostgres.NewBitacoraRepository(gormDB), lg)
	alertService := alert.NewService(alertPostgres.NewAlertRepository(gormDB), bitacoraService, lg)
	alert.NewEventHandler(alertService, lg).RegisterEventHandlers(eventBus)

	clientService := client.NewService(clientPostgres.NewClientRepository(gormDB), bitacoraService, lg)

	leadTime := config.Alerts.LeadTime()
	obligationService := obligation.NewService(
		obligationPostgres.NewObligationRepository(gormDB), clientService, eventBus, bitacoraService, leadTime, lg)
	declarationService := declaration.NewService(
		declarationPostgres.NewDeclarationRepository(gormDB), obligationService, clientService, eventBus, bitacoraService, leadTime, lg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	asOf := time.Now()

	obligationsSwept, err := obligationService.SweepDueDates(ctx, asOf)
	if err != nil {
		lg.Error("obligation sweep failed", "error", err)
		os.Exit(1)
	}

	declarationsSwept, err := declarationService.SweepDueDates(ctx, asOf)
	if err != nil {
		lg.Error("declaration sweep failed", "error", err)
		os.Exit(1)
	}

	lg.Info("sweep complete",
		"as_of", asOf.Format(time.RFC3339),
		"obligations_transitioned", obligationsSwept,
		"declarations_transitioned", declarationsSwept)
}
