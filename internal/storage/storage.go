// Package storage opens a repository.Store from a connection string.
//
// The scheme picks the backend:
//
//	mongodb://, mongodb+srv://     -> MongoDB
//	postgres://, postgresql://     -> PostgreSQL
//	sqlite://<path> or a bare path -> SQLite
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/notekeeper/internal/repository"
	"github.com/sakif/notekeeper/internal/repository/mongo"
	"github.com/sakif/notekeeper/internal/repository/postgres"
	"github.com/sakif/notekeeper/internal/repository/sqlite"
)

type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Parse reports which backend dsn selects and the target string handed to
// that backend's constructor.
func Parse(dsn string) (Backend, string, error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("storage: empty connection string")
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return BackendMongo, dsn, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("storage: sqlite connection string has no path")
		}
		return BackendSQLite, path, nil
	case strings.Contains(dsn, "://"):
		scheme, _, _ := strings.Cut(dsn, "://")
		return "", "", fmt.Errorf("storage: unsupported scheme %q", scheme)
	default:
		return BackendSQLite, dsn, nil
	}
}

// Open connects to the backend named by dsn. database is only used by
// MongoDB.
func Open(ctx context.Context, dsn, database string) (repository.Store, error) {
	backend, target, err := Parse(dsn)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMongo:
		return mongo.New(ctx, target, database)
	case BackendPostgres:
		return postgres.New(ctx, target)
	default:
		return sqlite.New(ctx, target)
	}
}
