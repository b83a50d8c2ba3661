package dbbadger

import (
	"context"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

type swapRepository struct {
	db *db
}

func newSwapRepository(db *db) domain.SwapRepository {
	return &swapRepository{db}
}

func (r *swapRepository) AddSwaps(
	ctx context.Context, swaps ...domain.AtomicSwap,
) (int, error) {
	count := 0
	err := r.db.update(ctx, func(tx *badger.Txn) error {
		count = 0
		for _, swap := range swaps {
			record := newSwapRecord(swap)
			added, err := insertNew(tx, r.db, swap.Txid, &record)
			if err != nil {
				return err
			}
			if added {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *swapRepository) GetSwap(
	ctx context.Context, txid string,
) (*domain.AtomicSwap, error) {
	var record swapRecord
	err := r.db.view(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxGet(tx, txid, &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrSwapNotFound
		}
		return nil, err
	}
	swap := record.toDomain()
	return &swap, nil
}

func (r *swapRepository) GetSwaps(
	ctx context.Context, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	return r.findSwaps(ctx, page, func() *badgerhold.Query {
		return &badgerhold.Query{}
	})
}

func (r *swapRepository) GetSwapsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	return r.findSwaps(ctx, page, func() *badgerhold.Query {
		return badgerhold.Where("Assets").Contains(assetID)
	})
}

func (r *swapRepository) GetSwapsByAddress(
	ctx context.Context, address string, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	return r.findSwaps(ctx, page, func() *badgerhold.Query {
		return badgerhold.Where("Seller").Eq(address).
			Or(badgerhold.Where("Buyer").Eq(address))
	})
}

func (r *swapRepository) findSwaps(
	ctx context.Context, page domain.Page, newQuery func() *badgerhold.Query,
) ([]domain.AtomicSwap, int, error) {
	records, total, err := findPage[swapRecord](
		ctx, r.db, page, newQuery, "BlockIndex", "Txid",
	)
	if err != nil {
		return nil, 0, err
	}
	return toDomainList[swapRecord, domain.AtomicSwap](records), total, nil
}
