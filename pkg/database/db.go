package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"learnloop/config"
)

// Collection names.
const (
	CollTeachers    = "teacherDirectory"
	CollStudents    = "studentDirectory"
	CollCourses     = "courseCatalog"
	CollEnrollments = "enrollments"
)

// DB holds the Mongo client and the application database.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewDB connects to MongoDB and pings the primary.
func NewDB(cfg *config.MongoConfig, logger *zap.Logger) (*DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("mongo connected", zap.String("database", cfg.Database))

	return &DB{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
