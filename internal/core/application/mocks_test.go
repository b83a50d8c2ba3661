package application_test

import (
	"context"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
)

// **** Node ****

type mockNode struct {
	mock.Mock
}

func (m *mockNode) GetBlockCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockNode) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	args := m.Called(ctx, height)
	return args.String(0), args.Error(1)
}

func (m *mockNode) GetBlock(ctx context.Context, hash string) (*ports.BlockInfo, error) {
	args := m.Called(ctx, hash)

	var res *ports.BlockInfo
	if a := args.Get(0); a != nil {
		res = a.(*ports.BlockInfo)
	}
	return res, args.Error(1)
}

func (m *mockNode) GetTransaction(ctx context.Context, txid string) (*wire.MsgTx, error) {
	args := m.Called(ctx, txid)

	var res *wire.MsgTx
	if a := args.Get(0); a != nil {
		res = a.(*wire.MsgTx)
	}
	return res, args.Error(1)
}

func (m *mockNode) GetRawTransaction(ctx context.Context, txid string) (string, error) {
	args := m.Called(ctx, txid)
	return args.String(0), args.Error(1)
}

func (m *mockNode) SendRawTransaction(ctx context.Context, txhex string) (string, error) {
	args := m.Called(ctx, txhex)
	return args.String(0), args.Error(1)
}

func (m *mockNode) IsUnspent(ctx context.Context, txid string, vout uint32) (bool, error) {
	args := m.Called(ctx, txid, vout)
	return args.Bool(0), args.Error(1)
}

func (m *mockNode) GetUnspents(ctx context.Context, address string) ([]explorer.Utxo, error) {
	args := m.Called(ctx, address)

	var res []explorer.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]explorer.Utxo)
	}
	return res, args.Error(1)
}

// **** Ledger ****

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetEventCounts(ctx context.Context, height uint64) (map[string]uint64, error) {
	args := m.Called(ctx, height)

	var res map[string]uint64
	if a := args.Get(0); a != nil {
		res = a.(map[string]uint64)
	}
	return res, args.Error(1)
}

func (m *mockLedger) GetBlockEvents(
	ctx context.Context, height uint64, event string,
) ([]ports.LedgerEvent, error) {
	args := m.Called(ctx, height, event)

	var res []ports.LedgerEvent
	if a := args.Get(0); a != nil {
		res = a.([]ports.LedgerEvent)
	}
	return res, args.Error(1)
}

func (m *mockLedger) GetTxEvents(
	ctx context.Context, txid string, events ...string,
) ([]ports.LedgerEvent, error) {
	args := m.Called(ctx, txid, events)

	var res []ports.LedgerEvent
	if a := args.Get(0); a != nil {
		res = a.([]ports.LedgerEvent)
	}
	return res, args.Error(1)
}

func (m *mockLedger) GetUtxoBalances(ctx context.Context, utxo string) ([]domain.UtxoBalance, error) {
	args := m.Called(ctx, utxo)

	var res []domain.UtxoBalance
	if a := args.Get(0); a != nil {
		res = a.([]domain.UtxoBalance)
	}
	return res, args.Error(1)
}

func (m *mockLedger) GetUtxosWithBalances(ctx context.Context, utxos []string) (map[string]bool, error) {
	args := m.Called(ctx, utxos)

	var res map[string]bool
	if a := args.Get(0); a != nil {
		res = a.(map[string]bool)
	}
	return res, args.Error(1)
}

func (m *mockLedger) GetVersion(ctx context.Context) (*ports.LedgerVersion, error) {
	args := m.Called(ctx)

	var res *ports.LedgerVersion
	if a := args.Get(0); a != nil {
		res = a.(*ports.LedgerVersion)
	}
	return res, args.Error(1)
}

func (m *mockLedger) ComposeAttach(ctx context.Context, req ports.AttachRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockLedger) ComposeDetach(ctx context.Context, req ports.DetachRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// **** Repositories ****

type mockBlockRepository struct {
	mock.Mock
}

func (m *mockBlockRepository) AddBlock(ctx context.Context, block *domain.Block) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *mockBlockRepository) GetBlock(ctx context.Context, height uint64) (*domain.Block, error) {
	args := m.Called(ctx, height)

	var res *domain.Block
	if a := args.Get(0); a != nil {
		res = a.(*domain.Block)
	}
	return res, args.Error(1)
}

func (m *mockBlockRepository) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	args := m.Called(ctx)

	var res *domain.Block
	if a := args.Get(0); a != nil {
		res = a.(*domain.Block)
	}
	return res, args.Error(1)
}

func (m *mockBlockRepository) GetBlocks(
	ctx context.Context, page domain.Page,
) ([]domain.Block, int, error) {
	args := m.Called(ctx, page)

	var res []domain.Block
	if a := args.Get(0); a != nil {
		res = a.([]domain.Block)
	}
	return res, args.Int(1), args.Error(2)
}

type mockSwapRepository struct {
	mock.Mock
}

func (m *mockSwapRepository) AddSwaps(ctx context.Context, swaps ...domain.AtomicSwap) (int, error) {
	args := m.Called(ctx, swaps)
	return args.Int(0), args.Error(1)
}

func (m *mockSwapRepository) GetSwap(ctx context.Context, txid string) (*domain.AtomicSwap, error) {
	args := m.Called(ctx, txid)

	var res *domain.AtomicSwap
	if a := args.Get(0); a != nil {
		res = a.(*domain.AtomicSwap)
	}
	return res, args.Error(1)
}

func (m *mockSwapRepository) GetSwaps(
	ctx context.Context, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	args := m.Called(ctx, page)

	var res []domain.AtomicSwap
	if a := args.Get(0); a != nil {
		res = a.([]domain.AtomicSwap)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *mockSwapRepository) GetSwapsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	args := m.Called(ctx, assetID, page)

	var res []domain.AtomicSwap
	if a := args.Get(0); a != nil {
		res = a.([]domain.AtomicSwap)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *mockSwapRepository) GetSwapsByAddress(
	ctx context.Context, address string, page domain.Page,
) ([]domain.AtomicSwap, int, error) {
	args := m.Called(ctx, address, page)

	var res []domain.AtomicSwap
	if a := args.Get(0); a != nil {
		res = a.([]domain.AtomicSwap)
	}
	return res, args.Int(1), args.Error(2)
}

type mockListingRepository struct {
	mock.Mock
}

func (m *mockListingRepository) AddListings(
	ctx context.Context, listings ...domain.Listing,
) (int, error) {
	args := m.Called(ctx, listings)
	return args.Int(0), args.Error(1)
}

func (m *mockListingRepository) GetListing(ctx context.Context, txid string) (*domain.Listing, error) {
	args := m.Called(ctx, txid)

	var res *domain.Listing
	if a := args.Get(0); a != nil {
		res = a.(*domain.Listing)
	}
	return res, args.Error(1)
}

func (m *mockListingRepository) GetListings(
	ctx context.Context, page domain.Page,
) ([]domain.Listing, int, error) {
	args := m.Called(ctx, page)

	var res []domain.Listing
	if a := args.Get(0); a != nil {
		res = a.([]domain.Listing)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *mockListingRepository) GetListingsByStatus(
	ctx context.Context, status domain.ListingStatus, page domain.Page,
) ([]domain.Listing, int, error) {
	args := m.Called(ctx, status, page)

	var res []domain.Listing
	if a := args.Get(0); a != nil {
		res = a.([]domain.Listing)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *mockListingRepository) GetListingsByAsset(
	ctx context.Context, assetID string, page domain.Page,
) ([]domain.Listing, int, error) {
	args := m.Called(ctx, assetID, page)

	var res []domain.Listing
	if a := args.Get(0); a != nil {
		res = a.([]domain.Listing)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *mockListingRepository) GetListingsBySeller(
	ctx context.Context, seller string, page domain.Page,
) ([]domain.Listing, int, error) {
	args := m.Called(ctx, seller, page)

	var res []domain.Listing
	if a := args.Get(0); a != nil {
		res = a.([]domain.Listing)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *mockListingRepository) GetActiveListings(ctx context.Context) ([]domain.Listing, error) {
	args := m.Called(ctx)

	var res []domain.Listing
	if a := args.Get(0); a != nil {
		res = a.([]domain.Listing)
	}
	return res, args.Error(1)
}

func (m *mockListingRepository) UpdateListing(
	ctx context.Context,
	txid string,
	updateFn func(l *domain.Listing) (*domain.Listing, error),
) error {
	args := m.Called(ctx, txid, updateFn)
	return args.Error(0)
}

// **** RepoManager ****

type mockRepoManager struct {
	blockRepository   *mockBlockRepository
	swapRepository    *mockSwapRepository
	listingRepository *mockListingRepository
	transactions      int
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		blockRepository:   &mockBlockRepository{},
		swapRepository:    &mockSwapRepository{},
		listingRepository: &mockListingRepository{},
	}
}

func (m *mockRepoManager) BlockRepository() domain.BlockRepository {
	return m.blockRepository
}

func (m *mockRepoManager) SwapRepository() domain.SwapRepository {
	return m.swapRepository
}

func (m *mockRepoManager) ListingRepository() domain.ListingRepository {
	return m.listingRepository
}

func (m *mockRepoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	m.transactions++
	return handler(ctx)
}

func (m *mockRepoManager) Close() {}

// **** Scheduler ****

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Start() {
	m.Called()
}

func (m *mockScheduler) Stop() {
	m.Called()
}

func (m *mockScheduler) ScheduleCron(spec string, job func(ctx context.Context)) error {
	args := m.Called(spec, job)
	return args.Error(0)
}
