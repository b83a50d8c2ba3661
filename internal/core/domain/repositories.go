package domain

import "context"

// BlockRepository is the abstraction for any kind of database intended to
// persist the index of processed blocks.
type BlockRepository interface {
	// AddBlock stores the index entry of a processed height.
	AddBlock(ctx context.Context, block *Block) error
	// GetBlock returns the entry of the given height.
	GetBlock(ctx context.Context, height uint64) (*Block, error)
	// GetLatestBlock returns the entry with the highest height, or
	// ErrBlockNotFound if the repository is empty.
	GetLatestBlock(ctx context.Context) (*Block, error)
	// GetBlocks returns a page of blocks sorted by descending height along
	// with the total number of blocks.
	GetBlocks(ctx context.Context, page Page) ([]Block, int, error)
}

// SwapRepository is the abstraction for any kind of database intended to
// persist AtomicSwaps.
type SwapRepository interface {
	// AddSwaps stores the given swaps, skipping those already known, and
	// returns the number of swaps added.
	AddSwaps(ctx context.Context, swaps ...AtomicSwap) (int, error)
	// GetSwap returns the swap settled by the given tx.
	GetSwap(ctx context.Context, txid string) (*AtomicSwap, error)
	// GetSwaps returns a page of swaps sorted by descending height.
	GetSwaps(ctx context.Context, page Page) ([]AtomicSwap, int, error)
	// GetSwapsByAsset returns a page of the swaps moving the given asset.
	GetSwapsByAsset(ctx context.Context, assetID string, page Page) ([]AtomicSwap, int, error)
	// GetSwapsByAddress returns a page of the swaps where the given address
	// is either seller or buyer.
	GetSwapsByAddress(ctx context.Context, address string, page Page) ([]AtomicSwap, int, error)
}

// ListingRepository is the abstraction for any kind of database intended to
// persist Listings.
type ListingRepository interface {
	// AddListings stores the given listings, skipping those already known,
	// and returns the number of listings added.
	AddListings(ctx context.Context, listings ...Listing) (int, error)
	// GetListing returns the listing published with the given tx.
	GetListing(ctx context.Context, txid string) (*Listing, error)
	// GetListings returns a page of listings sorted by descending height.
	GetListings(ctx context.Context, page Page) ([]Listing, int, error)
	// GetListingsByStatus returns a page of the listings in the given status.
	GetListingsByStatus(ctx context.Context, status ListingStatus, page Page) ([]Listing, int, error)
	// GetListingsByAsset returns a page of the listings of the given asset.
	GetListingsByAsset(ctx context.Context, assetID string, page Page) ([]Listing, int, error)
	// GetListingsBySeller returns a page of the listings of the given seller.
	GetListingsBySeller(ctx context.Context, seller string, page Page) ([]Listing, int, error)
	// GetActiveListings returns all the active listings.
	GetActiveListings(ctx context.Context) ([]Listing, error)
	// UpdateListing allows to commit multiple changes to the same listing in
	// a transactional way.
	UpdateListing(
		ctx context.Context,
		txid string,
		updateFn func(l *Listing) (*Listing, error),
	) error
}
