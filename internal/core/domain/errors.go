package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage is the root of every error returned by a repository because
	// of the underlying store.
	ErrStorage = errors.New("storage error")
	// ErrBlockNotFound ...
	ErrBlockNotFound = errors.New("block not found")
	// ErrSwapNotFound ...
	ErrSwapNotFound = errors.New("atomic swap not found")
	// ErrListingNotFound ...
	ErrListingNotFound = errors.New("listing not found")
	// ErrListingInvalidStatus is returned for unknown listing statuses.
	ErrListingInvalidStatus = errors.New("invalid listing status")
	// ErrListingNotActive is returned when an operation requires an active
	// listing.
	ErrListingNotActive = errors.New("listing is not active")
	// ErrInvalidSwapRoles is returned for swaps whose seller and buyer do not
	// both fund and receive from the transaction.
	ErrInvalidSwapRoles = errors.New("invalid atomic swap roles")
)

// StorageError wraps err under ErrStorage.
func StorageError(err error) error {
	if err == nil || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
