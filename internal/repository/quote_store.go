// Package repository selects and wires the quote row store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"subsonic-backend/config"
	"subsonic-backend/internal/domain"
	mongorepo "subsonic-backend/internal/repository/mongo"
	"subsonic-backend/internal/repository/postgres"
	"subsonic-backend/internal/repository/s3store"
	"subsonic-backend/pkg/database"
)

// Kind names a row-store backend.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMongo    Kind = "mongodb"
	KindS3       Kind = "s3"
)

// ErrUnsupportedStorage is returned for connection strings with an unknown scheme.
var ErrUnsupportedStorage = errors.New("unsupported storage connection string")

// DetectKind picks the backend from the connection string scheme.
func DetectKind(connStr string) (Kind, error) {
	scheme, _, ok := strings.Cut(connStr, "://")
	if !ok {
		return "", ErrUnsupportedStorage
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "mongodb", "mongodb+srv":
		return KindMongo, nil
	case "s3":
		return KindS3, nil
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedStorage, scheme)
	}
}

// NewQuoteRepository opens the configured backend. Only unparseable settings are
// errors; reachability is left to each request. The returned close func is
// never nil. The repository is wrapped so EnsureTable only hits the backend
// until it first succeeds.
func NewQuoteRepository(ctx context.Context, cfg *config.Config) (domain.QuoteRepository, Kind, func(), error) {
	noop := func() {}

	kind, err := DetectKind(cfg.StorageConnectionString)
	if err != nil {
		return nil, "", noop, err
	}

	switch kind {
	case KindPostgres:
		pool, err := database.NewPostgresConnection(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, kind, noop, fmt.Errorf("postgres: %w", err)
		}
		return EnsureOnce(postgres.NewQuoteRepository(pool, cfg.StorageTableName)), kind, pool.Close, nil

	case KindMongo:
		client, db, err := database.NewMongoConnection(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, kind, noop, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return EnsureOnce(mongorepo.NewQuoteRepository(db, cfg.StorageTableName)), kind, closeFn, nil

	case KindS3:
		loc, err := database.ParseS3URL(cfg.StorageConnectionString)
		if err != nil {
			return nil, kind, noop, err
		}
		client, err := database.NewS3Client(ctx, database.S3ClientConfig{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return nil, kind, noop, err
		}
		repo := s3store.NewQuoteRepository(client, loc.Bucket, loc.Prefix, cfg.StorageTableName, cfg.S3Region)
		return EnsureOnce(repo), kind, noop, nil
	}

	return nil, kind, noop, ErrUnsupportedStorage
}

type ensureOnce struct {
	domain.QuoteRepository
	ensured atomic.Bool
}

// EnsureOnce makes EnsureTable a no-op after its first success. Failures are
// not cached, so the next request tries again. Until then concurrent callers
// each try; the DDL is idempotent and no caller waits on another.
func EnsureOnce(repo domain.QuoteRepository) domain.QuoteRepository {
	return &ensureOnce{QuoteRepository: repo}
}

func (e *ensureOnce) EnsureTable(ctx context.Context) error {
	if e.ensured.Load() {
		return nil
	}
	if err := e.QuoteRepository.EnsureTable(ctx); err != nil {
		return err
	}
	e.ensured.Store(true)
	return nil
}
