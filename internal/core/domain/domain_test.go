package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		number, size   int
		expected       domain.Page
		expectedOffset int
	}{
		{0, 0, domain.Page{Number: 1, Size: 10}, 0},
		{-1, -5, domain.Page{Number: 1, Size: 10}, 0},
		{3, 25, domain.Page{Number: 3, Size: 25}, 50},
	}

	for _, tt := range tests {
		page := domain.NewPage(tt.number, tt.size)
		assert.Equal(t, tt.expected, page)
		assert.Equal(t, tt.expectedOffset, page.Offset())
	}

	res := domain.NewPageResult[domain.Block](nil, 0, domain.NewPage(0, 0))
	assert.NotNil(t, res.Result)
	assert.Empty(t, res.Result)
}

func TestListingDeactivate(t *testing.T) {
	listing := domain.NewListing("txid", "utxo:0", 1000, "seller", "psbt", nil, 0, 1)
	require.True(t, listing.IsActive())

	assert.True(t, listing.Deactivate())
	assert.Equal(t, domain.ListingStatusInactive, listing.Status)

	// inactive is terminal
	assert.False(t, listing.Deactivate())
	assert.False(t, listing.IsActive())

	pending := domain.Listing{Status: domain.ListingStatusPending}
	assert.True(t, pending.Deactivate())
}

func TestParseListingStatus(t *testing.T) {
	for _, s := range []string{"active", "inactive", "pending"} {
		status, err := domain.ParseListingStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(status))
	}
	_, err := domain.ParseListingStatus("sold")
	assert.ErrorIs(t, err, domain.ErrListingInvalidStatus)
}

func TestSwapValidate(t *testing.T) {
	tests := []struct {
		name    string
		seller  string
		buyer   string
		ins     []string
		outs    []string
		isValid bool
	}{
		{"valid", "s", "b", []string{"s", "b"}, []string{"b", "s", "fee"}, true},
		{"same address", "s", "s", []string{"s"}, []string{"s"}, false},
		{"missing seller", "", "b", []string{"b"}, []string{"b"}, false},
		{"missing buyer", "s", "", []string{"s"}, []string{"s"}, false},
		{"seller not in inputs", "s", "b", []string{"b"}, []string{"b", "s"}, false},
		{"buyer not in outputs", "s", "b", []string{"s", "b"}, []string{"s"}, false},
		{"seller not in outputs", "s", "b", []string{"s", "b"}, []string{"b", "fee"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swap := domain.AtomicSwap{Seller: tt.seller, Buyer: tt.buyer}
			err := swap.Validate(tt.ins, tt.outs)
			if tt.isValid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidSwapRoles)
		})
	}
}

func TestNewEventCounts(t *testing.T) {
	events := domain.NewEventCounts(map[string]uint64{domain.UtxoMoveEvent: 3})
	assert.Len(t, events, len(domain.EventNames))
	for _, name := range domain.EventNames {
		_, ok := events[name]
		assert.True(t, ok, name)
	}

	block := domain.Block{Events: events}
	assert.Equal(t, uint64(3), block.EventCount(domain.UtxoMoveEvent))
	assert.Zero(t, block.EventCount("DISPENSE"))
	assert.Zero(t, (&domain.Block{}).EventCount(domain.UtxoMoveEvent))
}

func TestHasAsset(t *testing.T) {
	balance := []domain.UtxoBalance{domain.NewUtxoBalance("PEPECASH", "10")}
	swap := domain.AtomicSwap{UtxoBalance: balance}
	listing := domain.Listing{UtxoBalance: balance}

	assert.True(t, swap.HasAsset("PEPECASH"))
	assert.False(t, swap.HasAsset("XCP"))
	assert.True(t, listing.HasAsset("PEPECASH"))
	assert.Equal(t, "COUNTERPARTY", balance[0].ProtocolName)
}

func TestStorageError(t *testing.T) {
	assert.Nil(t, domain.StorageError(nil))

	cause := errors.New("disk full")
	err := domain.StorageError(cause)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("commit: %w", err)
	assert.Equal(t, wrapped, domain.StorageError(wrapped))
}
