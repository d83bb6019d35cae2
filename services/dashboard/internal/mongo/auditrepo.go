package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campusbite/backoffice/services/dashboard/internal/dashboard"
)

const (
	defaultMongoURL  = "mongodb://localhost:27017"
	defaultDBName    = "campus_dashboard"
	auditCollection  = "audit"
	defaultListLimit = 100
)

var ErrNotStarted = errors.New("audit repo not started")

// AuditRepo stores manager actions. It implements dashboard.AuditSink.
type AuditRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     aqm.Logger
	config     *aqm.Config
}

func NewAuditRepo(config *aqm.Config, logger aqm.Logger) *AuditRepo {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &AuditRepo{
		logger: logger,
		config: config,
	}
}

func (r *AuditRepo) Start(ctx context.Context) error {
	mongoURL, _ := r.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = defaultMongoURL
	}

	dbName, _ := r.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = defaultDBName
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection(auditCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "manager_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create audit indexes: %w", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: %s", mongoURL, dbName, auditCollection)
	return nil
}

func (r *AuditRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *AuditRepo) Save(ctx context.Context, entry dashboard.AuditEntry) error {
	if r.collection == nil {
		return ErrNotStarted
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("cannot insert audit entry: %w", err)
	}
	return nil
}

// List returns the newest entries first. A managerID of "" lists everyone.
func (r *AuditRepo) List(ctx context.Context, managerID string, limit int64) ([]dashboard.AuditEntry, error) {
	if r.collection == nil {
		return nil, ErrNotStarted
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := bson.M{}
	if managerID != "" {
		filter["manager_id"] = managerID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []dashboard.AuditEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("cannot decode audit entries: %w", err)
	}
	return entries, nil
}

// Purge deletes entries older than before and returns how many went.
func (r *AuditRepo) Purge(ctx context.Context, before time.Time) (int64, error) {
	if r.collection == nil {
		return 0, ErrNotStarted
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("cannot purge audit entries: %w", err)
	}
	return result.DeletedCount, nil
}
