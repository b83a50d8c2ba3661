// Package explorer defines the types shared by the chain data sources used
// to look up spendable coins: a bitcoind JSON-RPC node and esplora-like
// block explorers.
package explorer

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds is returned when the given coins cannot cover the
	// requested amount.
	ErrInsufficientFunds = errors.New(
		"insufficient funds: total utxo amount does not cover target amount",
	)
	// ErrNotFound is returned when the requested resource is unknown to the
	// data source.
	ErrNotFound = errors.New("not found")
)

// Service is the representation of an explorer able to list the unspents
// locked by an address or an output script and to relay transactions.
type Service interface {
	// GetUnspents returns the utxos locked by the given address.
	GetUnspents(ctx context.Context, addr string) ([]Utxo, error)
	// GetUnspentsForScript returns the utxos locked by the given output script,
	// looked up by its electrum-style script hash.
	GetUnspentsForScript(ctx context.Context, script []byte) ([]Utxo, error)
	// GetTransactionHex fetches the transaction in hex format given its hash.
	GetTransactionHex(ctx context.Context, txid string) (string, error)
	// BroadcastTransaction adds the given tx in hex format to the mempool and
	// returns its hash.
	BroadcastTransaction(ctx context.Context, txhex string) (string, error)
	// GetBlockHeight returns the height of the chain tip.
	GetBlockHeight(ctx context.Context) (uint64, error)
}
