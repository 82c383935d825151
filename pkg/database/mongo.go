package database

import (
	"context"
	"fmt"
	"time"

	"storefront-service/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// NewMongoConnection connects to MongoDB and verifies the connection with a ping
func NewMongoConnection(ctx context.Context, cfg *config.MongoConfig, log *zap.Logger) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Info("Connecting to MongoDB", zap.String("host", cfg.Host), zap.String("db_name", cfg.DBName))

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.GetURI()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("Connected to MongoDB")
	return client, nil
}
