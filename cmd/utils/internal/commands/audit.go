package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultAuditLimit = 50

type auditRecord struct {
	ManagerID string    `bson:"manager_id"`
	Action    string    `bson:"action"`
	Target    string    `bson:"target"`
	Timestamp time.Time `bson:"timestamp"`
	Success   bool      `bson:"success"`
	Error     string    `bson:"error,omitempty"`
}

// ListAudit prints the newest audit entries, optionally for one manager.
func ListAudit(ctx context.Context, config *aqm.Config, logger aqm.Logger, out io.Writer) error {
	client, db, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	limit, err := strconv.ParseInt(config.GetStringOrDef("audit.limit", strconv.Itoa(defaultAuditLimit)), 10, 64)
	if err != nil || limit <= 0 {
		limit = defaultAuditLimit
	}

	filter := bson.M{}
	if managerID, _ := config.GetString("audit.manager"); managerID != "" {
		filter["manager_id"] = managerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := db.Collection(auditCollection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("find audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var records []auditRecord
	if err := cursor.All(ctx, &records); err != nil {
		return fmt.Errorf("decode audit entries: %w", err)
	}

	for _, rec := range records {
		fmt.Fprintln(out, formatAudit(rec))
	}
	logger.Info("Listed audit entries", "count", len(records))
	return nil
}

func formatAudit(rec auditRecord) string {
	result := "ok"
	if !rec.Success {
		result = "failed: " + rec.Error
	}
	return fmt.Sprintf("%s  %-18s %-24s %-20s %s",
		rec.Timestamp.UTC().Format(time.RFC3339), rec.Action, rec.ManagerID, rec.Target, result)
}

// PurgeAudit deletes entries older than audit.retention (default 30 days).
func PurgeAudit(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	retention, err := time.ParseDuration(config.GetStringOrDef("audit.retention", "720h"))
	if err != nil {
		return fmt.Errorf("parse audit.retention: %w", err)
	}

	client, db, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	before := time.Now().Add(-retention)
	result, err := db.Collection(auditCollection).DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": before}})
	if err != nil {
		return fmt.Errorf("delete audit entries: %w", err)
	}

	logger.Info("Purged audit entries", "count", result.DeletedCount, "before", before.Format(time.RFC3339))
	return nil
}

// ResetDB drops the dashboard database.
func ResetDB(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the dashboard database!")

	client, db, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database %s: %w", db.Name(), err)
	}
	logger.Info("Database dropped", "database", db.Name())
	return nil
}
