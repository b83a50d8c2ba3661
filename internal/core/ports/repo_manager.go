package ports

import (
	"context"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

// RepoManager interface defines the methods for blocks, swaps and listings.
type RepoManager interface {
	BlockRepository() domain.BlockRepository
	SwapRepository() domain.SwapRepository
	ListingRepository() domain.ListingRepository

	// RunTransaction executes handler in a single store transaction, that is
	// committed if handler returns no error and discarded otherwise.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}
