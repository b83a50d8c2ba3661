package dbsqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

const swapColumns = `txid, timestamp, block_hash, block_index, seller, buyer,
	total_price, unit_price, service_fees, utxo_balance`

type swapRepository struct {
	db *sql.DB
}

func (r *swapRepository) AddSwaps(
	ctx context.Context, swaps ...domain.AtomicSwap,
) (int, error) {
	argsList := make([][]interface{}, 0, len(swaps))
	for _, s := range swaps {
		fees, err := toJSON(nonNil(s.ServiceFees))
		if err != nil {
			return 0, domain.StorageError(err)
		}
		balance, err := toJSON(nonNil(s.UtxoBalance))
		if err != nil {
			return 0, domain.StorageError(err)
		}
		argsList = append(argsList, []interface{}{
			s.Txid, s.Timestamp, s.BlockHash, int64(s.BlockIndex), s.Seller, s.Buyer,
			int64(s.TotalPrice), int64(s.UnitPrice), fees, balance,
		})
	}

	var count int
	err := withTx(ctx, r.db, func(q querier) error {
		var err error
		count, err = insertCount(
			ctx, q,
			`INSERT OR IGNORE INTO atomic_swaps (`+swapColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			argsList,
		)
		return err
	})
	if err != nil {
		return 0, domain.StorageError(err)
	}
	return count, nil
}

func (r *swapRepository) GetSwap(
	ctx context.Context, txid string,
) (*domain.AtomicSwap, error) {
	row := querierFor(ctx, r.db).QueryRowContext(
		ctx, `SELECT `+swapColumns+` FROM atomic_swaps WHERE txid = ?`, txid,
	)
	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSwapNotFound
		}
		return nil, domain.StorageError(err)
	}
	return &swap, nil
}

func (r *swapRepository) GetSwaps(
	ctx context.Context, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	return r.findSwaps(ctx, "", page)
}

func (r *swapRepository) GetSwapsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	return r.findSwaps(ctx, assetFilter, page, assetID)
}

func (r *swapRepository) GetSwapsByAddress(
	ctx context.Context, address string, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	return r.findSwaps(ctx, "seller = ? OR buyer = ?", page, address, address)
}

func (r *swapRepository) findSwaps(
	ctx context.Context, where string, page domain.Page, args ...interface{},
) ([]domain.AtomicSwap, int, error) {
	return queryPage(
		ctx, querierFor(ctx, r.db), scanSwap,
		swapColumns, "atomic_swaps", where, page, args...,
	)
}

func scanSwap(s scanner) (domain.AtomicSwap, error) {
	var (
		swap                          domain.AtomicSwap
		height, totalPrice, unitPrice int64
		fees, balance                 string
	)
	if err := s.Scan(
		&swap.Txid, &swap.Timestamp, &swap.BlockHash, &height,
		&swap.Seller, &swap.Buyer, &totalPrice, &unitPrice, &fees, &balance,
	); err != nil {
		return domain.AtomicSwap{}, err
	}
	swap.BlockIndex = uint64(height)
	swap.TotalPrice = uint64(totalPrice)
	swap.UnitPrice = uint64(unitPrice)
	if err := fromJSON(fees, &swap.ServiceFees); err != nil {
		return domain.AtomicSwap{}, err
	}
	if err := fromJSON(balance, &swap.UtxoBalance); err != nil {
		return domain.AtomicSwap{}, err
	}
	swap.ServiceFees = nonNil(swap.ServiceFees)
	swap.UtxoBalance = nonNil(swap.UtxoBalance)
	return swap, nil
}
