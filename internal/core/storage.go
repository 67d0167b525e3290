package core

import (
	"fmt"
	"os"

	"broodcore/internal/infra/persistence/memory"
	"broodcore/internal/infra/persistence/postgres"
	"broodcore/internal/infra/persistence/sqlite"
	"broodcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPlanStore selects a backend using environment variables. Defaults to
// sqlite when unset.
//
//	BROODCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	BROODCORE_SQLITE_PATH: path to sqlite file (default ./broodcore.db)
//	BROODCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPlanStore() (domain.PlanStore, error) {
	driver := os.Getenv("BROODCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("BROODCORE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("BROODCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
