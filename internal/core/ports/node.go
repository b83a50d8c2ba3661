package ports

import (
	"context"
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrRpcTransient marks failures of remote calls that are worth retrying,
	// like connection errors or overloaded services.
	ErrRpcTransient = errors.New("transient rpc failure")
	// ErrTxNotFound is returned when the node does not know a transaction.
	ErrTxNotFound = errors.New("transaction not found")
)

// BlockInfo is the header of a block along with the ids of its txs.
type BlockInfo struct {
	Hash   string
	Height uint64
	Time   int64
	Txids  []string
}

// Node is the abstraction of the trusted bitcoin node, enriched with an
// explorer to list the coins of an address.
type Node interface {
	GetBlockCount(ctx context.Context) (uint64, error)
	GetBlockHash(ctx context.Context, height uint64) (string, error)
	GetBlock(ctx context.Context, hash string) (*BlockInfo, error)
	// GetTransaction returns the decoded tx or ErrTxNotFound.
	GetTransaction(ctx context.Context, txid string) (*wire.MsgTx, error)
	// GetRawTransaction returns the tx in hex format or ErrTxNotFound.
	GetRawTransaction(ctx context.Context, txid string) (string, error)
	SendRawTransaction(ctx context.Context, txhex string) (string, error)
	// IsUnspent returns whether the output is in the utxo set, mempool
	// included.
	IsUnspent(ctx context.Context, txid string, vout uint32) (bool, error)
	// GetUnspents lists the coins locked by the given address.
	GetUnspents(ctx context.Context, address string) ([]explorer.Utxo, error)
}
