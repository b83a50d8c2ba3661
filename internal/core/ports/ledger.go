package ports

import (
	"context"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

// LedgerEvent is an asset movement reported by the asset ledger.
type LedgerEvent struct {
	Event       string
	Txid        string
	BlockIndex  uint64
	BlockTime   int64
	Source      string
	Destination string
	Asset       string
	Quantity    uint64
	// QtyNormalized is the quantity expressed in units as a decimal string.
	QtyNormalized string
}

// LedgerVersion is the status of the asset ledger.
type LedgerVersion struct {
	Version          string `json:"version"`
	Network          string `json:"network"`
	ServerReady      bool   `json:"server_ready"`
	LedgerBlockIndex uint64 `json:"ledger_block_index"`
	BackendHeight    uint64 `json:"backend_height"`
}

// AttachRequest is the set of args to compose a tx attaching an asset to a
// new coin of the given address.
type AttachRequest struct {
	Address  string
	Asset    string
	Quantity uint64
	FeeRate  uint64
}

// DetachRequest is the set of args to compose a tx detaching the assets of
// a coin to the given address.
type DetachRequest struct {
	Address string
	Utxo    string
	FeeRate uint64
}

// Ledger is the abstraction of the asset ledger api.
type Ledger interface {
	// GetEventCounts returns the number of events per kind of a block.
	GetEventCounts(ctx context.Context, height uint64) (map[string]uint64, error)
	// GetBlockEvents returns the events of the given kind in a block.
	GetBlockEvents(ctx context.Context, height uint64, event string) ([]LedgerEvent, error)
	// GetTxEvents returns the events of the given kinds emitted by a tx.
	GetTxEvents(ctx context.Context, txid string, events ...string) ([]LedgerEvent, error)
	// GetUtxoBalances returns the assets attached to a coin.
	GetUtxoBalances(ctx context.Context, utxo string) ([]domain.UtxoBalance, error)
	// GetUtxosWithBalances tells which of the given coins carry assets.
	GetUtxosWithBalances(ctx context.Context, utxos []string) (map[string]bool, error)
	// GetVersion returns the ledger status.
	GetVersion(ctx context.Context) (*LedgerVersion, error)
	// ComposeAttach returns the hex of the unsigned attach tx.
	ComposeAttach(ctx context.Context, req AttachRequest) (string, error)
	// ComposeDetach returns the hex of the unsigned detach tx.
	ComposeDetach(ctx context.Context, req DetachRequest) (string, error)
}
