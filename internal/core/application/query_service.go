package application

import (
	"context"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
)

// QueryService reads the indexed swaps, listings and blocks.
type QueryService interface {
	GetListings(ctx context.Context, page domain.Page) (*domain.PageResult[domain.Listing], error)
	GetListing(ctx context.Context, txid string) (*domain.Listing, error)
	GetListingsByStatus(
		ctx context.Context, status string, page domain.Page,
	) (*domain.PageResult[domain.Listing], error)
	GetListingsByAsset(
		ctx context.Context, assetID string, page domain.Page,
	) (*domain.PageResult[domain.Listing], error)
	GetListingsBySeller(
		ctx context.Context, seller string, page domain.Page,
	) (*domain.PageResult[domain.Listing], error)

	GetSwaps(ctx context.Context, page domain.Page) (*domain.PageResult[domain.AtomicSwap], error)
	GetSwap(ctx context.Context, txid string) (*domain.AtomicSwap, error)
	GetSwapsByAsset(
		ctx context.Context, assetID string, page domain.Page,
	) (*domain.PageResult[domain.AtomicSwap], error)
	GetSwapsByAddress(
		ctx context.Context, address string, page domain.Page,
	) (*domain.PageResult[domain.AtomicSwap], error)

	GetBlocks(ctx context.Context, page domain.Page) (*domain.PageResult[domain.Block], error)
	GetBlock(ctx context.Context, height uint64) (*domain.Block, error)
	GetLatestBlock(ctx context.Context) (*domain.Block, error)
}

type queryService struct {
	repoManager ports.RepoManager
}

// NewQueryService ...
func NewQueryService(repoManager ports.RepoManager) QueryService {
	return &queryService{repoManager}
}

func paginate[T any](
	page domain.Page, fn func(page domain.Page) ([]T, int, error),
) (*domain.PageResult[T], error) {
	items, total, err := fn(page)
	if err != nil {
		return nil, err
	}
	res := domain.NewPageResult(items, total, page)
	return &res, nil
}

func (s *queryService) GetListings(
	ctx context.Context, page domain.Page,
) (*domain.PageResult[domain.Listing], error) {
	return paginate(page, func(p domain.Page) ([]domain.Listing, int, error) {
		return s.repoManager.ListingRepository().GetListings(ctx, p)
	})
}

func (s *queryService) GetListing(
	ctx context.Context, txid string,
) (*domain.Listing, error) {
	return s.repoManager.ListingRepository().GetListing(ctx, txid)
}

func (s *queryService) GetListingsByStatus(
	ctx context.Context, status string, page domain.Page,
) (*domain.PageResult[domain.Listing], error) {
	listingStatus, err := domain.ParseListingStatus(status)
	if err != nil {
		return nil, err
	}
	return paginate(page, func(p domain.Page) ([]domain.Listing, int, error) {
		return s.repoManager.ListingRepository().GetListingsByStatus(ctx, listingStatus, p)
	})
}

func (s *queryService) GetListingsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) (*domain.PageResult[domain.Listing], error) {
	return paginate(page, func(p domain.Page) ([]domain.Listing, int, error) {
		return s.repoManager.ListingRepository().GetListingsByAsset(ctx, assetID, p)
	})
}

func (s *queryService) GetListingsBySeller(
	ctx context.Context, seller string, page domain.Page,
) (*domain.PageResult[domain.Listing], error) {
	return paginate(page, func(p domain.Page) ([]domain.Listing, int, error) {
		return s.repoManager.ListingRepository().GetListingsBySeller(ctx, seller, p)
	})
}

func (s *queryService) GetSwaps(
	ctx context.Context, page domain.Page,
) (*domain.PageResult[domain.AtomicSwap], error) {
	return paginate(page, func(p domain.Page) ([]domain.AtomicSwap, int, error) {
		return s.repoManager.SwapRepository().GetSwaps(ctx, p)
	})
}

func (s *queryService) GetSwap(
	ctx context.Context, txid string,
) (*domain.AtomicSwap, error) {
	return s.repoManager.SwapRepository().GetSwap(ctx, txid)
}

func (s *queryService) GetSwapsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) (*domain.PageResult[domain.AtomicSwap], error) {
	return paginate(page, func(p domain.Page) ([]domain.AtomicSwap, int, error) {
		return s.repoManager.SwapRepository().GetSwapsByAsset(ctx, assetID, p)
	})
}

func (s *queryService) GetSwapsByAddress(
	ctx context.Context, address string, page domain.Page,
) (*domain.PageResult[domain.AtomicSwap], error) {
	return paginate(page, func(p domain.Page) ([]domain.AtomicSwap, int, error) {
		return s.repoManager.SwapRepository().GetSwapsByAddress(ctx, address, p)
	})
}

func (s *queryService) GetBlocks(
	ctx context.Context, page domain.Page,
) (*domain.PageResult[domain.Block], error) {
	return paginate(page, func(p domain.Page) ([]domain.Block, int, error) {
		return s.repoManager.BlockRepository().GetBlocks(ctx, p)
	})
}

func (s *queryService) GetBlock(
	ctx context.Context, height uint64,
) (*domain.Block, error) {
	return s.repoManager.BlockRepository().GetBlock(ctx, height)
}

func (s *queryService) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.repoManager.BlockRepository().GetLatestBlock(ctx)
}
