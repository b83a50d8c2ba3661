package dbbadger

import (
	"context"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

type blockRepository struct {
	db *db
}

func newBlockRepository(db *db) domain.BlockRepository {
	return &blockRepository{db}
}

func (r *blockRepository) AddBlock(ctx context.Context, block *domain.Block) error {
	record := newBlockRecord(*block)
	return r.db.update(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxUpsert(tx, block.BlockIndex, &record)
	})
}

func (r *blockRepository) GetBlock(
	ctx context.Context, height uint64,
) (*domain.Block, error) {
	var record blockRecord
	err := r.db.view(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxGet(tx, height, &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrBlockNotFound
		}
		return nil, err
	}
	block := record.toDomain()
	return &block, nil
}

func (r *blockRepository) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	var records []blockRecord
	err := r.db.view(ctx, func(tx *badger.Txn) error {
		var err error
		records, err = find[blockRecord](
			r.db, tx, (&badgerhold.Query{}).SortBy("BlockIndex").Reverse().Limit(1),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(records) <= 0 {
		return nil, domain.ErrBlockNotFound
	}
	block := records[0].toDomain()
	return &block, nil
}

func (r *blockRepository) GetBlocks(
	ctx context.Context, page domain.Page,
) ([]domain.Block, int, error) {
	records, total, err := findPage[blockRecord](
		ctx, r.db, page,
		func() *badgerhold.Query { return &badgerhold.Query{} },
		"BlockIndex",
	)
	if err != nil {
		return nil, 0, err
	}
	return toDomainList[blockRecord, domain.Block](records), total, nil
}
