package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/fileserver"
	aqmmw "github.com/aquamarinepk/aqm/middleware"
	"github.com/aquamarinepk/aqm/template"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campusbite/backoffice/pkg"
	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
	"github.com/campusbite/backoffice/services/dashboard/internal/dashboard"
	"github.com/campusbite/backoffice/services/dashboard/internal/mongo"
)

const (
	appNamespace = "DASHBOARD"
	appName      = "dashboard"
	appVersion   = "0.1.0"
)

//go:embed assets
var assetsFS embed.FS

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("Cannot setup %s(%s): %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	fileServer := fileserver.New(assetsFS, fileserver.WithLogger(logger))
	tmplMgr := template.NewManager(assetsFS, template.WithLogger(logger))

	client, err := campus.NewClient(config, logger)
	if err != nil {
		log.Fatalf("cannot initialize campus client: %v", err)
	}

	lifecycles := []interface{}{tmplMgr}

	// Audit entries always go to the log; Mongo is optional.
	var sink dashboard.AuditSink
	if mongoURL, _ := config.GetString("db.mongo.url"); mongoURL != "" {
		auditRepo := mongo.NewAuditRepo(config, logger)
		sink = auditRepo
		lifecycles = append(lifecycles, auditRepo)
	}
	audit := dashboard.NewAuditLogger(logger, sink)

	service := dashboard.NewService(client, audit, logger)
	hub := dashboard.NewHub(logger)

	var subscriber dashboard.TriggerSubscriber
	natsURL, _ := config.GetString("nats.url")
	if natsURL != "" && config.GetStringOrDef("realtime.enabled", "true") != "false" {
		natsSub, err := pkg.NewNATSSubscriber(natsURL, logger)
		if err != nil {
			log.Fatalf("cannot connect to NATS: %v", err)
		}
		subscriber = natsSub
	}
	// The refresher owns the subscriber and closes it on Stop.
	refresher := dashboard.NewRefresher(subscriber, service, hub, logger)

	handler := dashboard.NewHandler(tmplMgr, service, hub, audit, config, logger)

	stack := aqmmw.DefaultStack(aqmmw.StackOptions{
		Logger: logger,
	})
	stack = append(stack, chimw.NoCache)

	lifecycles = append(lifecycles, refresher, handler)

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithRouterConfigurator(func(mux *chi.Mux) {
			aqm.RedirectNotFound(mux, "/")
		}),
		aqm.WithHTTPServerModules("web.port", fileServer, handler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = refresher.Stop(context.Background())
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
