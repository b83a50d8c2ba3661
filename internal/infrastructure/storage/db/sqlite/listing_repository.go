package dbsqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

const listingColumns = `txid, timestamp, block_index, utxo, price, seller,
	psbt, utxo_balance, status`

type listingRepository struct {
	db *sql.DB
}

func (r *listingRepository) AddListings(
	ctx context.Context, listings ...domain.Listing,
) (int, error) {
	argsList := make([][]interface{}, 0, len(listings))
	for _, l := range listings {
		args, err := listingArgs(l)
		if err != nil {
			return 0, domain.StorageError(err)
		}
		argsList = append(argsList, args)
	}

	var count int
	err := withTx(ctx, r.db, func(q querier) error {
		var err error
		count, err = insertCount(
			ctx, q,
			`INSERT OR IGNORE INTO openbook_listings (`+listingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			argsList,
		)
		return err
	})
	if err != nil {
		return 0, domain.StorageError(err)
	}
	return count, nil
}

func (r *listingRepository) GetListing(
	ctx context.Context, txid string,
) (*domain.Listing, error) {
	return getListing(ctx, querierFor(ctx, r.db), txid)
}

func (r *listingRepository) GetListings(
	ctx context.Context, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, "", page)
}

func (r *listingRepository) GetListingsByStatus(
	ctx context.Context, status domain.ListingStatus, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, "status = ?", page, string(status))
}

func (r *listingRepository) GetListingsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, assetFilter, page, assetID)
}

func (r *listingRepository) GetListingsBySeller(
	ctx context.Context, seller string, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, "seller = ?", page, seller)
}

func (r *listingRepository) GetActiveListings(
	ctx context.Context,
) ([]domain.Listing, error) {
	listings, err := queryAll(
		ctx, querierFor(ctx, r.db), scanListing,
		`SELECT `+listingColumns+` FROM openbook_listings
		WHERE status = ? ORDER BY block_index ASC, txid ASC`,
		string(domain.ListingStatusActive),
	)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return listings, nil
}

func (r *listingRepository) UpdateListing(
	ctx context.Context,
	txid string,
	updateFn func(l *domain.Listing) (*domain.Listing, error),
) error {
	return withTx(ctx, r.db, func(q querier) error {
		listing, err := getListing(ctx, q, txid)
		if err != nil {
			return err
		}
		updated, err := updateFn(listing)
		if err != nil {
			return err
		}
		balance, err := toJSON(nonNil(updated.UtxoBalance))
		if err != nil {
			return domain.StorageError(err)
		}
		_, err = q.ExecContext(
			ctx,
			`UPDATE openbook_listings
			SET timestamp = ?, block_index = ?, utxo = ?, price = ?, seller = ?,
				psbt = ?, utxo_balance = ?, status = ?
			WHERE txid = ?`,
			updated.Timestamp, int64(updated.BlockIndex), updated.Utxo,
			int64(updated.Price), updated.Seller, updated.Psbt, balance,
			string(updated.Status), txid,
		)
		return domain.StorageError(err)
	})
}

func (r *listingRepository) findListings(
	ctx context.Context, where string, page domain.Page, args ...interface{},
) ([]domain.Listing, int, error) {
	return queryPage(
		ctx, querierFor(ctx, r.db), scanListing,
		listingColumns, "openbook_listings", where, page, args...,
	)
}

func getListing(ctx context.Context, q querier, txid string) (*domain.Listing, error) {
	row := q.QueryRowContext(
		ctx, `SELECT `+listingColumns+` FROM openbook_listings WHERE txid = ?`, txid,
	)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, domain.StorageError(err)
	}
	return &listing, nil
}

func listingArgs(l domain.Listing) ([]interface{}, error) {
	balance, err := toJSON(nonNil(l.UtxoBalance))
	if err != nil {
		return nil, err
	}
	status := l.Status
	if status == "" {
		status = domain.ListingStatusActive
	}
	return []interface{}{
		l.Txid, l.Timestamp, int64(l.BlockIndex), l.Utxo, int64(l.Price),
		l.Seller, l.Psbt, balance, string(status),
	}, nil
}

func scanListing(s scanner) (domain.Listing, error) {
	var (
		listing       domain.Listing
		height, price int64
		balance       string
		status        string
	)
	if err := s.Scan(
		&listing.Txid, &listing.Timestamp, &height, &listing.Utxo, &price,
		&listing.Seller, &listing.Psbt, &balance, &status,
	); err != nil {
		return domain.Listing{}, err
	}
	listing.BlockIndex = uint64(height)
	listing.Price = uint64(price)
	listing.Status = domain.ListingStatus(status)
	if err := fromJSON(balance, &listing.UtxoBalance); err != nil {
		return domain.Listing{}, err
	}
	listing.UtxoBalance = nonNil(listing.UtxoBalance)
	return listing, nil
}
