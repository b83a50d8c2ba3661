// Package node implements ports.Node on top of a bitcoind JSON-RPC endpoint,
// using esplora-like explorers to list the coins of an address.
package node

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/circuitbreaker"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer/bitcoind"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer/esplora"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/stats"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

// rpcInWarmup is returned by bitcoind while loading the chain state.
const rpcInWarmup = -28

var (
	// ErrNoUnspentsSource is returned when neither an esplora nor an explorer
	// endpoint is configured.
	ErrNoUnspentsSource = errors.New("no explorer configured to list unspents")
)

// Config holds the endpoints and the policies of the node adapter.
type Config struct {
	RPCURL      string
	RPCUser     string
	RPCPassword string
	// RateLimit is the max number of rpc calls per second, unlimited if 0.
	RateLimit int
	// EsploraURL is the endpoint of an esplora api supporting the scripthash
	// routes, guarded by a circuit breaker.
	EsploraURL string
	// ExplorerURL is the public explorer used as fallback.
	ExplorerURL   string
	Network       *chaincfg.Params
	RetryAttempts int
	RetryDelay    time.Duration
}

type service struct {
	rpc      *bitcoind.Client
	limiter  ratelimit.Limiter
	esplora  explorer.Service
	explorer explorer.Service
	breaker  *gobreaker.CircuitBreaker
	network  *chaincfg.Params
	retry    util.RetryOpts
}

// NewService returns the node adapter for the given config.
func NewService(cfg Config) (ports.Node, error) {
	rpc, err := bitcoind.NewClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return nil, err
	}
	if cfg.Network == nil {
		return nil, fmt.Errorf("missing network")
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RateLimit > 0 {
		limiter = ratelimit.New(cfg.RateLimit)
	}

	svc := &service{
		rpc:     rpc,
		limiter: limiter,
		network: cfg.Network,
		breaker: circuitbreaker.NewCircuitBreaker("esplora"),
		retry: util.RetryOpts{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
			Backoff:  true,
		},
	}
	if cfg.EsploraURL != "" {
		if svc.esplora, err = esplora.NewService(cfg.EsploraURL); err != nil {
			return nil, err
		}
	}
	if cfg.ExplorerURL != "" {
		if svc.explorer, err = esplora.NewService(cfg.ExplorerURL); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func (s *service) GetBlockCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.call(ctx, "getblockcount", func(ctx context.Context) error {
		var err error
		count, err = s.rpc.GetBlockCount(ctx)
		return err
	})
	return count, err
}

func (s *service) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	var hash string
	err := s.call(ctx, "getblockhash", func(ctx context.Context) error {
		var err error
		hash, err = s.rpc.GetBlockHash(ctx, height)
		return err
	})
	return hash, err
}

func (s *service) GetBlock(ctx context.Context, hash string) (*ports.BlockInfo, error) {
	var block *bitcoind.Block
	err := s.call(ctx, "getblock", func(ctx context.Context) error {
		var err error
		block, err = s.rpc.GetBlock(ctx, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ports.BlockInfo{
		Hash:   block.Hash,
		Height: block.Height,
		Time:   block.Time,
		Txids:  block.Tx,
	}, nil
}

func (s *service) GetTransaction(ctx context.Context, txid string) (*wire.MsgTx, error) {
	txhex, err := s.GetRawTransaction(ctx, txid)
	if err != nil {
		return nil, err
	}
	buf, err := hex.DecodeString(txhex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex of tx %s: %w", txid, err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("failed to deserialize tx %s: %w", txid, err)
	}
	return tx, nil
}

// GetRawTransaction looks the tx up in the node first, then in the public
// explorer, if any, to support nodes without a tx index.
func (s *service) GetRawTransaction(ctx context.Context, txid string) (string, error) {
	var txhex string
	err := s.call(ctx, "getrawtransaction", func(ctx context.Context) error {
		var err error
		txhex, err = s.rpc.GetRawTransaction(ctx, txid)
		return err
	})
	if err == nil {
		return txhex, nil
	}
	if !errors.Is(err, ports.ErrTxNotFound) || s.explorer == nil {
		return "", err
	}

	txhex, err = s.explorer.GetTransactionHex(ctx, txid)
	if err != nil {
		if errors.Is(err, explorer.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ports.ErrTxNotFound, txid)
		}
		return "", fmt.Errorf("%w: %s", ports.ErrRpcTransient, err)
	}
	return txhex, nil
}

// SendRawTransaction is never retried.
func (s *service) SendRawTransaction(ctx context.Context, txhex string) (string, error) {
	s.limiter.Take()
	txid, err := s.rpc.SendRawTransaction(ctx, txhex)
	if err != nil {
		return "", wrapError("sendrawtransaction", err)
	}
	return txid, nil
}

func (s *service) IsUnspent(ctx context.Context, txid string, vout uint32) (bool, error) {
	var out *bitcoind.TxOut
	err := s.call(ctx, "gettxout", func(ctx context.Context) error {
		var err error
		out, err = s.rpc.GetTxOut(ctx, txid, vout, true)
		return err
	})
	if err != nil {
		return false, err
	}
	return out != nil, nil
}

// GetUnspents lists the coins of the address with the esplora scripthash
// api, falling back to the public explorer if it fails or is not set.
func (s *service) GetUnspents(ctx context.Context, address string) ([]explorer.Utxo, error) {
	addr, err := btcutil.DecodeAddress(address, s.network)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", address, err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", address, err)
	}

	if s.esplora != nil {
		iUtxos, err := s.breaker.Execute(func() (interface{}, error) {
			return s.esplora.GetUnspentsForScript(ctx, script)
		})
		if err == nil {
			return iUtxos.([]explorer.Utxo), nil
		}
		if s.explorer == nil {
			return nil, fmt.Errorf("%w: %s", ports.ErrRpcTransient, err)
		}
		log.WithError(err).Debug("esplora unspents lookup failed, using explorer")
	}

	if s.explorer == nil {
		return nil, ErrNoUnspentsSource
	}
	utxos, err := s.explorer.GetUnspents(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrRpcTransient, err)
	}
	return utxos, nil
}

// call paces and retries the given rpc call on transient failures.
func (s *service) call(
	ctx context.Context, method string, fn func(ctx context.Context) error,
) error {
	attempt := 0
	err := util.Retry(ctx, s.retry, isTransient, func(ctx context.Context) error {
		if attempt > 0 {
			stats.RpcRetries.WithLabelValues("node").Inc()
			log.Debugf("retrying %s (attempt %d)", method, attempt+1)
		}
		attempt++
		s.limiter.Take()
		return fn(ctx)
	})
	if err != nil {
		return wrapError(method, err)
	}
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, bitcoind.ErrConnectionFailed) {
		return true
	}
	var rpcErr *bitcoind.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == rpcInWarmup
}

func wrapError(method string, err error) error {
	if bitcoind.IsNotFound(err) {
		return fmt.Errorf("%w: %s: %s", ports.ErrTxNotFound, method, err)
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %s: %s", ports.ErrRpcTransient, method, err)
	}
	return fmt.Errorf("%s: %w", method, err)
}
