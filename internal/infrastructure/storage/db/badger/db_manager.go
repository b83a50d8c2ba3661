package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

type repoManager struct {
	db *db

	blockRepository   domain.BlockRepository
	swapRepository    domain.SwapRepository
	listingRepository domain.ListingRepository
}

// NewRepoManager opens (or creates if not exists) the badger store in
// dbDir. An empty dbDir opens an in-memory store.
func NewRepoManager(dbDir string, logger badger.Logger) (ports.RepoManager, error) {
	db, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}

	return &repoManager{
		db:                db,
		blockRepository:   newBlockRepository(db),
		swapRepository:    newSwapRepository(db),
		listingRepository: newListingRepository(db),
	}, nil
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

// RunTransaction runs handler with a badger transaction in its context. A
// handler called within another transaction joins it. Write transactions
// failing to commit because of conflicts are retried from scratch.
func (m *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if txFromContext(ctx) != nil {
		return handler(ctx)
	}

	var (
		res interface{}
		err error
	)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		res, err = m.runTransaction(ctx, readOnly, handler)
		if !errors.Is(err, badger.ErrConflict) {
			return res, err
		}
		log.Debugf("badger transaction conflict, retrying (%d/%d)", attempt, maxRetries)
		time.Sleep(retryDelay)
	}
	return nil, err
}

func (m *repoManager) runTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	tx := m.db.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, txKey, tx))
	if err != nil {
		return nil, err
	}
	if readOnly {
		return res, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, storageError(err)
	}
	return res, nil
}

func (m *repoManager) Close() {
	m.db.close()
}
