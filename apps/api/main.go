package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/speakmate/speakmate/apps/api/echo"
	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/assignment"
	"github.com/speakmate/speakmate/core/content"
	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/core/student"
	emailsvc "github.com/speakmate/speakmate/services/email"
	logsvc "github.com/speakmate/speakmate/services/logger"
	metricsvc "github.com/speakmate/speakmate/services/metrics"
	"github.com/speakmate/speakmate/storage/database"
	inmemdb "github.com/speakmate/speakmate/storage/database/inmem"
	sqlxdb "github.com/speakmate/speakmate/storage/database/sqlx"
)

// engineMemory keeps every record in process memory. Nothing survives a restart.
const engineMemory = "memory"

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbStd := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	dbLogger := logsvc.NewRollbarLogger(dbStd, conf)
	dbLogger.Enable(!conf.Debug)
	database.SetMigrationLogger(dbStd)

	// set up storage
	store, closeStore, err := setUpStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closeStore(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	metrics := metricsvc.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	contentSvc := content.NewService(store, logger, metrics)
	assignmentSvc := assignment.NewService(store, logger, metrics, conf.Fanout)
	studentSvc := student.NewService(store, logger, conf.TemplateEmail, student.WithMailer(newEmailService(conf, logger)))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("dbEngine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			ContentSvc:     contentSvc,
			AssignmentSvc:  assignmentSvc,
			StudentSvc:     studentSvc,
			Validate:       validate,
			Translator:     translator,
			MetricsHandler: promhttp.Handler(),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpStore(conf *core.Config) (ledger.Store, func() error, error) {
	if conf.Database.Engine == engineMemory {
		return inmemdb.NewRecordStore(inmemdb.Open()), func() error { return nil }, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxdb.NewRecordStore(db), db.Close, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}
