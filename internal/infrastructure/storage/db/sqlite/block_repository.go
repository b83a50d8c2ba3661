package dbsqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

const blockColumns = "block_index, block_hash, block_time, transactions, events, nTxs"

type blockRepository struct {
	db *sql.DB
}

func (r *blockRepository) AddBlock(ctx context.Context, block *domain.Block) error {
	txs, err := toJSON(nonNil(block.Transactions))
	if err != nil {
		return domain.StorageError(err)
	}
	events, err := toJSON(domain.NewEventCounts(block.Events))
	if err != nil {
		return domain.StorageError(err)
	}

	_, err = querierFor(ctx, r.db).ExecContext(
		ctx,
		`INSERT OR REPLACE INTO blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		int64(block.BlockIndex), block.BlockHash, block.BlockTime,
		txs, events, block.NTxs,
	)
	return domain.StorageError(err)
}

func (r *blockRepository) GetBlock(
	ctx context.Context, height uint64,
) (*domain.Block, error) {
	row := querierFor(ctx, r.db).QueryRowContext(
		ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE block_index = ?`,
		int64(height),
	)
	return r.getBlock(row)
}

func (r *blockRepository) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	row := querierFor(ctx, r.db).QueryRowContext(
		ctx,
		`SELECT `+blockColumns+` FROM blocks ORDER BY block_index DESC LIMIT 1`,
	)
	return r.getBlock(row)
}

func (r *blockRepository) GetBlocks(
	ctx context.Context, page domain.Page,
) ([]domain.Block, int, error) {
	q := querierFor(ctx, r.db)

	var total int
	if err := q.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM blocks`,
	).Scan(&total); err != nil {
		return nil, 0, domain.StorageError(err)
	}

	blocks, err := queryAll(
		ctx, q, scanBlock,
		`SELECT `+blockColumns+` FROM blocks ORDER BY block_index DESC LIMIT ? OFFSET ?`,
		page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, domain.StorageError(err)
	}
	return blocks, total, nil
}

func (r *blockRepository) getBlock(row *sql.Row) (*domain.Block, error) {
	block, err := scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBlockNotFound
		}
		return nil, domain.StorageError(err)
	}
	return &block, nil
}

func scanBlock(s scanner) (domain.Block, error) {
	var (
		block       domain.Block
		height      int64
		txs, events string
	)
	if err := s.Scan(
		&height, &block.BlockHash, &block.BlockTime, &txs, &events, &block.NTxs,
	); err != nil {
		return domain.Block{}, err
	}
	block.BlockIndex = uint64(height)
	if err := fromJSON(txs, &block.Transactions); err != nil {
		return domain.Block{}, err
	}
	var counts map[string]uint64
	if err := fromJSON(events, &counts); err != nil {
		return domain.Block{}, err
	}
	block.Transactions = nonNil(block.Transactions)
	block.Events = domain.NewEventCounts(counts)
	return block, nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return make([]T, 0)
	}
	return list
}
