package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/persistence/file"
	"github.com/aaiaas/automation/pkg/persistence/postgresql"
)

// NewPersistence selects the storage backend from the database URL scheme.
// postgres:// and postgresql:// use PostgreSQL; file:// or a bare path uses JSON documents on disk.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, location := parsePersistenceProvider(databaseURL)

	switch provider {
	case "postgres", "postgresql":
		pg, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, err
		}

		return pg, nil
	case "file":
		if location == "" {
			return nil, fmt.Errorf("file persistence requires a directory, got %q", databaseURL)
		}

		return file.NewPersistence(location), nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider %q", provider)
	}
}

func parsePersistenceProvider(databaseURL string) (string, string) {
	provider, location, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", databaseURL
	}

	return strings.ToLower(provider), location
}
