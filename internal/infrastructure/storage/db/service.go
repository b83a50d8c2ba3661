package db

import (
	"fmt"
	"path/filepath"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	dbbadger "github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db/badger"
	dbsqlite "github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db/sqlite"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

const (
	BadgerDb = "badger"
	SqliteDb = "sqlite"

	badgerDir = "badger"
)

var storeTypes = map[string]func(dbDir string) (ports.RepoManager, error){
	BadgerDb: func(dbDir string) (ports.RepoManager, error) {
		var logger badger.Logger
		if log.GetLevel() >= log.DebugLevel {
			logger = log.StandardLogger()
		}
		return dbbadger.NewRepoManager(filepath.Join(dbDir, badgerDir), logger)
	},
	SqliteDb: dbsqlite.NewRepoManager,
}

// SupportedTypes returns the names of the available store backends.
func SupportedTypes() []string {
	return []string{BadgerDb, SqliteDb}
}

// NewRepoManager opens the store of the given type in dbDir.
func NewRepoManager(dbType, dbDir string) (ports.RepoManager, error) {
	factory, ok := storeTypes[dbType]
	if !ok {
		return nil, fmt.Errorf("invalid db type: %s", dbType)
	}
	repoManager, err := factory(dbDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", dbType, err)
	}
	return repoManager, nil
}
