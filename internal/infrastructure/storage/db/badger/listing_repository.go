package dbbadger

import (
	"context"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

type listingRepository struct {
	db *db
}

func newListingRepository(db *db) domain.ListingRepository {
	return &listingRepository{db}
}

func (r *listingRepository) AddListings(
	ctx context.Context, listings ...domain.Listing,
) (int, error) {
	count := 0
	err := r.db.update(ctx, func(tx *badger.Txn) error {
		count = 0
		for _, listing := range listings {
			record := newListingRecord(listing)
			added, err := insertNew(tx, r.db, listing.Txid, &record)
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

func (r *listingRepository) GetListing(
	ctx context.Context, txid string,
) (*domain.Listing, error) {
	var listing *domain.Listing
	err := r.db.view(ctx, func(tx *badger.Txn) error {
		var err error
		listing, err = r.getListing(tx, txid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *listingRepository) GetListings(
	ctx context.Context, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, page, func() *badgerhold.Query {
		return &badgerhold.Query{}
	})
}

func (r *listingRepository) GetListingsByStatus(
	ctx context.Context, status domain.ListingStatus, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, page, func() *badgerhold.Query {
		return badgerhold.Where("Status").Eq(string(status))
	})
}

func (r *listingRepository) GetListingsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, page, func() *badgerhold.Query {
		return badgerhold.Where("Assets").Contains(assetID)
	})
}

func (r *listingRepository) GetListingsBySeller(
	ctx context.Context, seller string, page domain.Page,
) ([]domain.Listing, int, error) {
	return r.findListings(ctx, page, func() *badgerhold.Query {
		return badgerhold.Where("Seller").Eq(seller)
	})
}

func (r *listingRepository) GetActiveListings(
	ctx context.Context,
) ([]domain.Listing, error) {
	var records []listingRecord
	err := r.db.view(ctx, func(tx *badger.Txn) error {
		var err error
		records, err = find[listingRecord](
			r.db, tx,
			badgerhold.Where("Status").Eq(string(domain.ListingStatusActive)).
				SortBy("BlockIndex"),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toDomainList[listingRecord, domain.Listing](records), nil
}

func (r *listingRepository) UpdateListing(
	ctx context.Context,
	txid string,
	updateFn func(l *domain.Listing) (*domain.Listing, error),
) error {
	return r.db.update(ctx, func(tx *badger.Txn) error {
		listing, err := r.getListing(tx, txid)
		if err != nil {
			return err
		}
		updated, err := updateFn(listing)
		if err != nil {
			return err
		}
		record := newListingRecord(*updated)
		return r.db.store.TxUpdate(tx, txid, &record)
	})
}

func (r *listingRepository) getListing(
	tx *badger.Txn, txid string,
) (*domain.Listing, error) {
	var record listingRecord
	if err := r.db.store.TxGet(tx, txid, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	listing := record.toDomain()
	return &listing, nil
}

func (r *listingRepository) findListings(
	ctx context.Context, page domain.Page, newQuery func() *badgerhold.Query,
) ([]domain.Listing, int, error) {
	records, total, err := findPage[listingRecord](
		ctx, r.db, page, newQuery, "BlockIndex", "Txid",
	)
	if err != nil {
		return nil, 0, err
	}
	return toDomainList[listingRecord, domain.Listing](records), total, nil
}
