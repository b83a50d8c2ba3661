package db_test

import (
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	dbbadger "github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db/badger"
	dbsqlite "github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerDBManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(badgerDBManager.Close)

	sqliteDBManager, err := dbsqlite.NewRepoManager(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(sqliteDBManager.Close)

	return []repoManager{
		{Name: "badger", Manager: badgerDBManager},
		{Name: "sqlite", Manager: sqliteDBManager},
	}
}

func makeBlocks(from uint64, num int) []domain.Block {
	blocks := make([]domain.Block, 0, num)
	for i := 0; i < num; i++ {
		blocks = append(blocks, domain.Block{
			BlockIndex:   from + uint64(i),
			BlockHash:    randstr.Hex(32),
			BlockTime:    1700000000 + int64(i)*600,
			Transactions: []string{randstr.Hex(32)},
			Events:       domain.NewEventCounts(map[string]uint64{domain.UtxoMoveEvent: 2}),
			NTxs:         3000 + i,
		})
	}
	return blocks
}

// makeSwaps returns swaps at increasing heights, moving the first asset at
// even positions and the second one at odd positions.
func makeSwaps(num int, assets [2]string) []domain.AtomicSwap {
	swaps := make([]domain.AtomicSwap, 0, num)
	for i := 0; i < num; i++ {
		swaps = append(swaps, domain.AtomicSwap{
			Txid:        randstr.Hex(32),
			Seller:      randstr.Hex(16),
			Buyer:       randstr.Hex(16),
			TotalPrice:  20000,
			UnitPrice:   2000,
			Timestamp:   1700000000 + int64(i),
			BlockIndex:  10 + uint64(i),
			BlockHash:   randstr.Hex(32),
			UtxoBalance: []domain.UtxoBalance{domain.NewUtxoBalance(assets[i%2], "10")},
			ServiceFees: []domain.ServiceFee{{Address: randstr.Hex(16), Fee: 500}},
		})
	}
	return swaps
}

func makeListings(num int, seller string, assets [2]string) []domain.Listing {
	listings := make([]domain.Listing, 0, num)
	for i := 0; i < num; i++ {
		txid := randstr.Hex(32)
		listings = append(listings, *domain.NewListing(
			txid, randstr.Hex(32)+":0", 100000+uint64(i), seller, randstr.Hex(64),
			[]domain.UtxoBalance{domain.NewUtxoBalance(assets[i%2], "1")},
			1700000000+int64(i), 20+uint64(i),
		))
	}
	return listings
}
