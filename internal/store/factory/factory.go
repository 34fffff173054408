package factory

import (
	"strings"

	"github.com/loykin/sitekeeper/internal/store"
	"github.com/loykin/sitekeeper/internal/store/postgres"
	"github.com/loykin/sitekeeper/internal/store/sqlite"
)

// NewFromDSN selects a store backend from the DSN scheme.
// postgres:// and postgresql:// go to PostgreSQL; sqlite:// prefixes
// are stripped; anything else is treated as a SQLite file path.
func NewFromDSN(dsn string) (store.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.New(strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return sqlite.New(dsn)
	}
}
