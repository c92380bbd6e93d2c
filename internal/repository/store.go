package repository

import (
	"context"
	"fmt"
	"time"

	appConfig "github.com/mansoorceksport/workout-assistant/internal/config"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// OpenStore connects the configured key-value backend. redisClient is reused
// for the redis backend; when nil a client is created from cfg.Redis. The
// returned func releases whatever OpenStore created.
func OpenStore(ctx context.Context, cfg *appConfig.Config, redisClient *redis.Client) (domain.KeyValueStore, func(), error) {
	switch cfg.Store.Backend {
	case appConfig.BackendMongo:
		ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
		if cfg.OTEL.Enabled {
			mongoOpts.SetMonitor(otelmongo.NewMonitor())
		}

		mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := mongoClient.Ping(ctxMongo, nil); err != nil {
			_ = mongoClient.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		logrus.WithField("database", cfg.MongoDB.Database).Info("mongodb connected")

		store := NewMongoKVStore(mongoClient.Database(cfg.MongoDB.Database), cfg.MongoDB.Collection)
		return store, func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logrus.WithError(err).Error("error disconnecting from MongoDB")
			}
		}, nil

	case appConfig.BackendS3:
		store, err := NewS3KVStore(ctx, cfg.S3, cfg.Store.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize S3 store: %w", err)
		}
		logrus.WithField("bucket", cfg.S3.Bucket).Info("s3 store ready")
		return store, func() {}, nil

	case appConfig.BackendRedis:
		release := func() {}
		if redisClient == nil {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			client := redisClient
			release = func() { _ = client.Close() }
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			release()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisKVStore(redisClient, cfg.Store.KeyPrefix), release, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
