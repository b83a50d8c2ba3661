package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

// AssetService lists the coins carrying assets and crafts the txs moving
// assets in and out of coins through the asset ledger.
type AssetService interface {
	// GetUtxosWithBalances lists the coins of the address along with the
	// assets attached to each of them.
	GetUtxosWithBalances(ctx context.Context, address string) ([]UtxoWithBalance, error)
	// Attach returns the unsigned psbt attaching an asset to a new coin.
	Attach(ctx context.Context, req AttachRequest) (*TxResult, error)
	// Detach returns the unsigned psbt detaching the assets of a coin.
	Detach(ctx context.Context, req DetachRequest) (*TxResult, error)
	// Health reports the status of the node, the ledger and the indexer.
	Health(ctx context.Context) Health
}

type assetService struct {
	repoManager ports.RepoManager
	node        ports.Node
	ledger      ports.Ledger
	builder     *txBuilder
	net         *chaincfg.Params
}

// NewAssetService ...
func NewAssetService(
	repoManager ports.RepoManager,
	node ports.Node,
	ledger ports.Ledger,
	net *chaincfg.Params,
) AssetService {
	return &assetService{
		repoManager: repoManager,
		node:        node,
		ledger:      ledger,
		builder:     newTxBuilder(node, ledger, net),
		net:         net,
	}
}

func (s *assetService) GetUtxosWithBalances(
	ctx context.Context, address string,
) ([]UtxoWithBalance, error) {
	if _, err := wallet.ScriptFromAddress(address, s.net); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	utxos, err := s.node.GetUnspents(ctx, address)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(utxos))
	for _, u := range utxos {
		keys = append(keys, u.Key())
	}
	withBalances, err := utxosWithBalances(ctx, s.ledger, keys)
	if err != nil {
		return nil, err
	}

	result := make([]UtxoWithBalance, 0, len(utxos))
	for _, u := range utxos {
		balances := make([]domain.UtxoBalance, 0)
		if withBalances[u.Key()] {
			if balances, err = s.ledger.GetUtxoBalances(ctx, u.Key()); err != nil {
				return nil, err
			}
		}
		result = append(result, UtxoWithBalance{Utxo: u, Balances: balances})
	}
	return result, nil
}

func (s *assetService) Attach(
	ctx context.Context, req AttachRequest,
) (*TxResult, error) {
	if req.FeeRate == 0 {
		return nil, ErrInvalidFeeRate
	}
	script, err := wallet.ScriptFromAddress(req.Address, s.net)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	txhex, err := s.ledger.ComposeAttach(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.composedTxToPsbt(ctx, txhex, script, req.FeeRate)
}

func (s *assetService) Detach(
	ctx context.Context, req DetachRequest,
) (*TxResult, error) {
	if req.FeeRate == 0 {
		return nil, ErrInvalidFeeRate
	}
	if _, _, err := explorer.ParseUtxoKey(req.Utxo); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUtxo, req.Utxo)
	}
	script, err := wallet.ScriptFromAddress(req.Address, s.net)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	txhex, err := s.ledger.ComposeDetach(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.composedTxToPsbt(ctx, txhex, script, req.FeeRate)
}

// composedTxToPsbt turns an unsigned tx composed by the ledger into a psbt
// whose inputs, all to be signed with SIGHASH_ALL, carry their previous txs.
// The outputs other than dust paying back to ownerScript are accounted as
// change.
func (s *assetService) composedTxToPsbt(
	ctx context.Context, txhex string, ownerScript []byte, feeRate uint64,
) (*TxResult, error) {
	tx, err := wallet.ParseTx(txhex)
	if err != nil {
		return nil, err
	}

	inputs := make([]wallet.Input, 0, len(tx.TxIn))
	prevTxs := make(map[string]*wire.MsgTx)
	for _, in := range tx.TxIn {
		txid := in.PreviousOutPoint.Hash.String()
		prevTx, ok := prevTxs[txid]
		if !ok {
			if prevTx, err = s.builder.prevTx(ctx, txid); err != nil {
				return nil, err
			}
			prevTxs[txid] = prevTx
		}
		inputs = append(inputs, wallet.Input{
			PrevTx:      prevTx,
			Vout:        in.PreviousOutPoint.Index,
			SighashType: txscript.SigHashAll,
			Sequence:    in.Sequence,
		})
	}

	change := uint64(0)
	for _, out := range tx.TxOut {
		if bytes.Equal(out.PkScript, ownerScript) && uint64(out.Value) != domain.Dust {
			change += uint64(out.Value)
		}
	}

	ptx, err := wallet.NewPsbt(inputs, tx.TxOut, tx.LockTime)
	if err != nil {
		return nil, err
	}
	return newTxResult(
		ptx, feeRate, change,
		inputsToSign(indexRange(0, len(inputs)), txscript.SigHashAll),
	)
}

func (s *assetService) Health(ctx context.Context) Health {
	health := Health{ServicesHealthy: true}

	height, err := s.node.GetBlockCount(ctx)
	if err != nil {
		health.NodeError = err.Error()
		health.ServicesHealthy = false
	}
	health.NodeHeight = height

	version, err := s.ledger.GetVersion(ctx)
	if err != nil {
		health.LedgerError = err.Error()
		health.ServicesHealthy = false
	} else {
		health.Ledger = version
		health.ServicesHealthy = health.ServicesHealthy && version.ServerReady
	}

	block, err := s.repoManager.BlockRepository().GetLatestBlock(ctx)
	if err != nil && !errors.Is(err, domain.ErrBlockNotFound) {
		log.WithError(err).Warn("failed to get latest indexed block")
	}
	if block != nil {
		health.IndexedHeight = block.BlockIndex
	}
	return health
}
