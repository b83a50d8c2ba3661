package application_test

import (
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/application"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetListingsByStatus(t *testing.T) {
	repoManager := newMockRepoManager()
	svc := application.NewQueryService(repoManager)
	page := domain.NewPage(2, 1)
	active := newTestListing(domain.ListingStatusActive)

	repoManager.listingRepository.On(
		"GetListingsByStatus", mock.Anything, domain.ListingStatusActive, page,
	).Return([]domain.Listing{active}, 3, nil)

	res, err := svc.GetListingsByStatus(ctx, "active", page)
	require.NoError(t, err)
	assert.Equal(t, []domain.Listing{active}, res.Result)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 1, res.Limit)

	_, err = svc.GetListingsByStatus(ctx, "sold", page)
	assert.ErrorIs(t, err, domain.ErrListingInvalidStatus)
}

func TestGetSwapsByAsset(t *testing.T) {
	repoManager := newMockRepoManager()
	svc := application.NewQueryService(repoManager)
	page := domain.NewPage(0, 0)

	repoManager.swapRepository.On("GetSwapsByAsset", mock.Anything, "PEPECASH", page).
		Return(nil, 0, nil)
	repoManager.swapRepository.On("GetSwapsByAsset", mock.Anything, "BROKEN", page).
		Return(nil, 0, domain.ErrStorage)

	res, err := svc.GetSwapsByAsset(ctx, "PEPECASH", page)
	require.NoError(t, err)
	assert.NotNil(t, res.Result)
	assert.Empty(t, res.Result)
	assert.Equal(t, domain.DefaultPageSize, res.Limit)

	_, err = svc.GetSwapsByAsset(ctx, "BROKEN", page)
	assert.ErrorIs(t, err, domain.ErrStorage)
}
