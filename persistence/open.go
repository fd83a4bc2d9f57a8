package persistence

import (
	"fmt"

	"github.com/wfunc/monopoly/config"
)

// Open connects the records database named by cfg.Driver. An empty driver
// disables records and returns a nil Database.
func Open(cfg config.StorageConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

// OpenSnapshots returns the snapshot store named by cfg.Backend. The "db"
// backend reuses db. An empty backend returns nil.
func OpenSnapshots(cfg config.SnapshotConfig, db Database) (SnapshotStore, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "file":
		return NewSnapshotFiles(cfg.Dir)
	case "redis":
		return NewRedisSnapshots(cfg.RedisAddr), nil
	case "db":
		if db == nil {
			return nil, fmt.Errorf("snapshot backend db needs a storage driver")
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
}
