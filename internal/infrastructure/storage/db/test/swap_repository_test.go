package db_test

import (
	"context"
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

func TestSwapRepositoryImplementations(t *testing.T) {
	for _, repo := range createRepoManagers(t) {
		repo := repo

		t.Run(repo.Name, func(t *testing.T) {
			t.Run("add_and_get_swaps", func(t *testing.T) {
				testAddAndGetSwaps(t, repo.Manager.SwapRepository())
			})
		})
	}
}

func testAddAndGetSwaps(t *testing.T, repo domain.SwapRepository) {
	ctx := context.Background()
	assets := [2]string{"PEPECASH", "RAREPEPE"}
	swaps := makeSwaps(6, assets)

	allSwaps, total, err := repo.GetSwaps(ctx, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Empty(t, allSwaps)
	require.Zero(t, total)

	count, err := repo.AddSwaps(ctx, swaps...)
	require.NoError(t, err)
	require.Equal(t, 6, count)

	count, err = repo.AddSwaps(ctx, swaps...)
	require.NoError(t, err)
	require.Zero(t, count)

	swap, err := repo.GetSwap(ctx, swaps[0].Txid)
	require.NoError(t, err)
	require.Exactly(t, swaps[0], *swap)

	_, err = repo.GetSwap(ctx, randstr.Hex(32))
	require.ErrorIs(t, err, domain.ErrSwapNotFound)

	allSwaps, total, err = repo.GetSwaps(ctx, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Equal(t, 6, total)
	require.Len(t, allSwaps, 6)
	require.Equal(t, swaps[5].Txid, allSwaps[0].Txid)

	// The concatenation of all pages must match the non-paginated list item
	// per item.
	allPagedSwaps := make([]domain.AtomicSwap, 0)
	for i := 1; i <= 3; i++ {
		pagedSwaps, total, err := repo.GetSwaps(ctx, domain.NewPage(i, 2))
		require.NoError(t, err)
		require.Equal(t, 6, total)
		require.Len(t, pagedSwaps, 2)
		allPagedSwaps = append(allPagedSwaps, pagedSwaps...)
	}
	require.Exactly(t, allSwaps, allPagedSwaps)

	swapsByAsset, total, err := repo.GetSwapsByAsset(ctx, assets[0], domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Equal(t, 3, total)
	for _, s := range swapsByAsset {
		require.True(t, s.HasAsset(assets[0]))
	}

	swapsByAsset, total, err = repo.GetSwapsByAsset(ctx, "XCP", domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, swapsByAsset)

	for _, address := range []string{swaps[2].Seller, swaps[2].Buyer} {
		swapsByAddress, total, err := repo.GetSwapsByAddress(
			ctx, address, domain.NewPage(1, 10),
		)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, swaps[2].Txid, swapsByAddress[0].Txid)
	}
}
