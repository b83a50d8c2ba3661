package dbsqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	// DbFile is the name of the database file in the data directory.
	DbFile = "openbook.db"
)

//go:embed migration/*.sql
var migrations embed.FS

type ctxKey string

const txKey ctxKey = "tx"

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type repoManager struct {
	db *sql.DB

	blockRepository   domain.BlockRepository
	swapRepository    domain.SwapRepository
	listingRepository domain.ListingRepository
}

// NewRepoManager opens (or creates if not exists) the sqlite database in
// dbDir and brings its schema up to date.
func NewRepoManager(dbDir string) (ports.RepoManager, error) {
	db, err := OpenDb(filepath.Join(dbDir, DbFile))
	if err != nil {
		return nil, err
	}
	if err := migrateDb(db); err != nil {
		db.Close()
		return nil, err
	}

	return &repoManager{
		db:                db,
		blockRepository:   &blockRepository{db},
		swapRepository:    &swapRepository{db},
		listingRepository: &listingRepository{db},
	}, nil
}

// OpenDb opens the database file, creating its directory if needed.
func OpenDb(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// prevent concurrent writes
	db.SetMaxOpenConns(1)

	return db, nil
}

func migrateDb(db *sql.DB) error {
	source, err := iofs.New(migrations, "migration")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate up: %w", err)
	}
	return nil
}

func (m *repoManager) BlockRepository() domain.BlockRepository {
	return m.blockRepository
}

func (m *repoManager) SwapRepository() domain.SwapRepository {
	return m.swapRepository
}

func (m *repoManager) ListingRepository() domain.ListingRepository {
	return m.listingRepository
}

// RunTransaction runs handler with a sql transaction in its context, joined
// by every repository call made with that context.
func (m *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if txFromContext(ctx) != nil {
		return handler(ctx)
	}

	var res interface{}
	err := execTx(ctx, m.db, readOnly, func(tx *sql.Tx) error {
		var err error
		res, err = handler(context.WithValue(ctx, txKey, tx))
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *repoManager) Close() {
	if err := m.db.Close(); err != nil {
		log.WithError(err).Warn("failed to close sqlite db")
	}
}

func txFromContext(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// querierFor returns the transaction of ctx, if any, or the db.
func querierFor(ctx context.Context, db *sql.DB) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// withTx runs fn in the transaction of ctx, if any, otherwise in a new one.
func withTx(ctx context.Context, db *sql.DB, fn func(q querier) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(tx)
	}
	return execTx(ctx, db, false, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

func execTx(
	ctx context.Context, db *sql.DB, readOnly bool, txBody func(*sql.Tx) error,
) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.StorageError(fmt.Errorf("failed to start transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.WithError(rollbackErr).Warn("failed to rollback transaction")
			}
		}
	}()

	if err = txBody(tx); err != nil {
		return err
	}
	if readOnly {
		return tx.Rollback()
	}
	if err = tx.Commit(); err != nil {
		return domain.StorageError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}
