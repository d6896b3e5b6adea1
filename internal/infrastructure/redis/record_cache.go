// Package redis caches committed fraud records in Redis. Records are
// immutable, so cached entries never expire and are never invalidated.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

var _ port.RecordRepository = (*CachedRecordRepository)(nil)

const keyPrefix = "fraudledger:record:"

// CachedRecordRepository is a read-through cache in front of another
// RecordRepository. Cache failures are logged and reads fall back to the
// wrapped repository; the cache never decides whether a write succeeds.
type CachedRecordRepository struct {
	inner  port.RecordRepository
	client *redis.Client
	logger *slog.Logger
}

// NewClient creates a Redis client for the record cache.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewCachedRecordRepository wraps inner with a Redis cache.
func NewCachedRecordRepository(inner port.RecordRepository, client *redis.Client, logger *slog.Logger) *CachedRecordRepository {
	return &CachedRecordRepository{inner: inner, client: client, logger: logger}
}

// Create writes through to the wrapped repository and caches the encoded
// record once it is committed.
func (r *CachedRecordRepository) Create(ctx context.Context, record *model.FraudRecord) error {
	if err := r.inner.Create(ctx, record); err != nil {
		return err
	}

	raw, err := record.MarshalBinary()
	if err != nil {
		return nil
	}
	if err := r.client.Set(ctx, cacheKey(record.Address()), raw, 0).Err(); err != nil {
		r.logger.WarnContext(ctx, "record cache write failed",
			"address", record.Address().String(), "error", err)
	}
	return nil
}

// FindByAddress serves from the cache when possible.
func (r *CachedRecordRepository) FindByAddress(ctx context.Context, address valueobject.RecordAddress) (*model.FraudRecord, error) {
	key := cacheKey(address)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		record, decodeErr := model.UnmarshalFraudRecord(raw)
		if decodeErr == nil {
			return record, nil
		}
		r.logger.WarnContext(ctx, "discarding corrupt cached record",
			"address", address.String(), "error", decodeErr)
		r.client.Del(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		r.logger.WarnContext(ctx, "record cache read failed",
			"address", address.String(), "error", err)
	}

	record, err := r.inner.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	if raw, err := record.MarshalBinary(); err == nil {
		if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
			r.logger.DebugContext(ctx, "record cache fill failed",
				"address", address.String(), "error", err)
		}
	}
	return record, nil
}

// Ping reports whether Redis is reachable.
func (r *CachedRecordRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (r *CachedRecordRepository) Close() error {
	return r.client.Close()
}

func cacheKey(address valueobject.RecordAddress) string {
	return keyPrefix + address.String()
}
