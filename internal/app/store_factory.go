package app

import (
	"strings"

	"github.com/gfragi/attendance-app/internal/store"
	"github.com/gfragi/attendance-app/internal/store/postgres"
	"github.com/gfragi/attendance-app/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.AttendanceStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	default:
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	}
}
