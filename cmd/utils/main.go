package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"

	"github.com/campusbite/backoffice/cmd/utils/internal/commands"
	"github.com/campusbite/backoffice/pkg/event"
)

const (
	appName    = "campus-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	// emit takes the trigger name as its first argument.
	var trigger string
	if command == "emit" && len(args) > 0 {
		trigger, args = args[0], args[1:]
	}

	config, err := aqm.LoadConfig("UTILS", args)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "emit":
		if trigger == "" {
			fmt.Printf("emit needs a trigger name: %v\n", event.Triggers)
			os.Exit(1)
		}
		if err := commands.Emit(ctx, config, logger, trigger); err != nil {
			log.Fatalf("❌ Emit failed: %v", err)
		}

	case "audit":
		if err := commands.ListAudit(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Audit listing failed: %v", err)
		}

	case "purge-audit":
		if err := commands.PurgeAudit(ctx, config, logger); err != nil {
			log.Fatalf("❌ Audit purge failed: %v", err)
		}
		logger.Info("✅ Audit purge completed successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Campus dashboard utility commands

Usage:
  %s <command> [options]

Commands:
  emit <trigger>  Publish a realtime trigger (orders:new, orders:status, orders:assignRider, vendors:packsUpdated)
  audit           List the newest audit entries
  purge-audit     Delete audit entries older than the retention
  reset-db        Drop the dashboard database (USE WITH CAUTION)
  version         Print version information
  help            Show this help message

Environment Variables:
  UTILS_NATS_URL          NATS URL (default: nats://localhost:4222)
  UTILS_MONGO_URL         MongoDB connection URL
  UTILS_MONGO_NAME        Database name (default: campus_dashboard)
  UTILS_AUDIT_LIMIT       Entries listed by audit (default: 50)
  UTILS_AUDIT_MANAGER     Only list entries of this manager id
  UTILS_AUDIT_RETENTION   Age kept by purge-audit (default: 720h)
  UTILS_LOG_LEVEL         Log level: debug, info, warn, error (default: info)

Examples:
  %s emit orders:new
  UTILS_AUDIT_MANAGER=64f1c2 %s audit
  UTILS_AUDIT_RETENTION=168h %s purge-audit

`, appName, appName, appName, appName, appName)
}
