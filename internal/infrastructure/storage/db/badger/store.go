package dbbadger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxRetries = 5
	retryDelay = 100 * time.Millisecond

	gcInterval     = 30 * time.Minute
	gcDiscardRatio = 0.5
)

type ctxKey string

// txKey is the context key of the badger transaction shared by the
// repositories within RunTransaction.
const txKey ctxKey = "tx"

// db wraps the badgerhold store so that every repository operation runs
// either in the transaction found in the context or in a dedicated one.
type db struct {
	store *badgerhold.Store

	done chan struct{}
	once sync.Once
}

// createDb opens the store in dbDir, in memory if dbDir is empty. Stores on
// disk get their value log garbage collected periodically.
func createDb(dbDir string, logger badger.Logger) (*db, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	d := &db{store: store, done: make(chan struct{})}
	if !isInMemory {
		go d.runValueLogGC()
	}
	return d, nil
}

func (d *db) runValueLogGC() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			err := d.store.Badger().RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				log.WithError(err).Warn("badger value log gc failed")
			}
		}
	}
}

func (d *db) close() {
	d.once.Do(func() {
		close(d.done)
		if err := d.store.Close(); err != nil {
			log.WithError(err).Warn("failed to close badger store")
		}
	})
}

func txFromContext(ctx context.Context) *badger.Txn {
	if tx, ok := ctx.Value(txKey).(*badger.Txn); ok {
		return tx
	}
	return nil
}

func (d *db) view(ctx context.Context, fn func(tx *badger.Txn) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return storageError(fn(tx))
	}
	return storageError(d.store.Badger().View(fn))
}

// update runs fn in the transaction of ctx, if any, otherwise in a new one
// that is retried on conflicts.
func (d *db) update(ctx context.Context, fn func(tx *badger.Txn) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return storageError(fn(tx))
	}

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = d.store.Badger().Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		log.Debugf("badger transaction conflict, retrying (%d/%d)", attempt, maxRetries)
		time.Sleep(retryDelay)
	}
	return storageError(err)
}

// storageError wraps the failures of the store under domain.ErrStorage,
// leaving the not found errors of the domain as they are.
func storageError(err error) error {
	for _, notFound := range []error{
		domain.ErrBlockNotFound, domain.ErrSwapNotFound, domain.ErrListingNotFound,
	} {
		if errors.Is(err, notFound) {
			return err
		}
	}
	return domain.StorageError(err)
}

func find[T any](d *db, tx *badger.Txn, query *badgerhold.Query) ([]T, error) {
	var result []T
	if err := d.store.TxFind(tx, &result, query); err != nil {
		return nil, err
	}
	return result, nil
}

func count[T any](d *db, tx *badger.Txn, query *badgerhold.Query) (int, error) {
	var dataType T
	n, err := d.store.TxCount(tx, &dataType, query)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// findPage returns the page of the records matching the query built by
// newQuery, sorted by descending height, along with their total count.
func findPage[T any](
	ctx context.Context, d *db, page domain.Page,
	newQuery func() *badgerhold.Query, sortBy ...string,
) ([]T, int, error) {
	var items []T
	var total int
	err := d.view(ctx, func(tx *badger.Txn) error {
		var err error
		if total, err = count[T](d, tx, newQuery()); err != nil {
			return err
		}
		query := newQuery().
			SortBy(sortBy...).
			Reverse().
			Skip(page.Offset()).
			Limit(page.Size)
		items, err = find[T](d, tx, query)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// insertNew inserts the value unless the key exists, and returns whether
// it was inserted.
func insertNew(tx *badger.Txn, d *db, key, value interface{}) (bool, error) {
	if err := d.store.TxInsert(tx, key, value); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
