package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/mathutil"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

const (
	// maxFundingRounds bounds the coin selection rounds run while waiting for
	// the fee estimate to settle.
	maxFundingRounds = 10
	// ledgerChunkSize is the max number of coins asked to the ledger at once.
	ledgerChunkSize = 10
)

// fundingRequest describes the fixed part of a tx to be funded with the
// coins of owner.
type fundingRequest struct {
	owner       string
	ownerScript []byte
	// base holds the fixed inputs and outputs and the fee rate.
	base wallet.TxComposition
	// amountIn is the value of the fixed inputs, amountOut the value of the
	// fixed outputs.
	amountIn  uint64
	amountOut uint64
	// exclude lists the coins that must not be spent.
	exclude map[string]bool
}

type funding struct {
	coins  []explorer.Utxo
	inputs []wallet.Input
	fee    uint64
	change uint64
}

type txBuilder struct {
	node   ports.Node
	ledger ports.Ledger
	net    *chaincfg.Params
}

func newTxBuilder(
	node ports.Node, ledger ports.Ledger, net *chaincfg.Params,
) *txBuilder {
	return &txBuilder{node, ledger, net}
}

// fund selects the coins of the owner covering the fixed outputs plus the
// mining fee. The selection is repeated until the fee estimate, which grows
// with the number of coins, is covered by the selected coins. The estimate
// always accounts for a change output.
func (b *txBuilder) fund(
	ctx context.Context, req fundingRequest,
) (*funding, error) {
	utxos, err := b.spendableCoins(ctx, req.owner, req.exclude)
	if err != nil {
		return nil, err
	}

	legacy, segwit := wallet.InputKinds(req.ownerScript)
	composition := func(numOfCoins int) wallet.TxComposition {
		c := req.base
		c.LegacyInputs += legacy * numOfCoins
		c.SegwitInputs += segwit * numOfCoins
		c.AddOutput(req.ownerScript)
		return c
	}

	fee := wallet.EstimateTx(composition(1)).Fee
	var coins []explorer.Utxo
	for i := 0; i < maxFundingRounds; i++ {
		target := req.amountOut + fee
		missing := uint64(0)
		if target > req.amountIn {
			missing = target - req.amountIn
		}

		coins, _, err = explorer.SelectUnspents(utxos, missing)
		if err != nil {
			return nil, err
		}

		nextFee := wallet.EstimateTx(composition(len(coins))).Fee
		if nextFee <= fee {
			break
		}
		fee = nextFee
	}

	totalIn := req.amountIn + explorer.TotalValue(coins)
	if totalIn < req.amountOut+fee {
		return nil, ErrInsufficientFunds
	}

	inputs, err := b.inputsForCoins(ctx, coins)
	if err != nil {
		return nil, err
	}

	return &funding{
		coins:  coins,
		inputs: inputs,
		fee:    fee,
		change: totalIn - req.amountOut - fee,
	}, nil
}

// spendableCoins returns the coins of the address that are not excluded and
// carry no assets.
func (b *txBuilder) spendableCoins(
	ctx context.Context, address string, exclude map[string]bool,
) ([]explorer.Utxo, error) {
	utxos, err := b.node.GetUnspents(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to list coins of %s: %w", address, err)
	}

	candidates := make([]explorer.Utxo, 0, len(utxos))
	keys := make([]string, 0, len(utxos))
	for _, u := range utxos {
		if exclude[u.Key()] {
			continue
		}
		candidates = append(candidates, u)
		keys = append(keys, u.Key())
	}

	withBalances, err := utxosWithBalances(ctx, b.ledger, keys)
	if err != nil {
		return nil, err
	}

	spendable := make([]explorer.Utxo, 0, len(candidates))
	for _, u := range candidates {
		if withBalances[u.Key()] {
			log.Debugf("skipping coin %s with assets attached", u.Key())
			continue
		}
		spendable = append(spendable, u)
	}
	return spendable, nil
}

func (b *txBuilder) inputsForCoins(
	ctx context.Context, coins []explorer.Utxo,
) ([]wallet.Input, error) {
	prevTxs := make(map[string]*wire.MsgTx)
	inputs := make([]wallet.Input, 0, len(coins))
	for _, c := range coins {
		prevTx, ok := prevTxs[c.Txid]
		if !ok {
			var err error
			if prevTx, err = b.prevTx(ctx, c.Txid); err != nil {
				return nil, err
			}
			prevTxs[c.Txid] = prevTx
		}
		inputs = append(inputs, wallet.Input{
			PrevTx:      prevTx,
			Vout:        c.Vout,
			SighashType: txscript.SigHashAll,
			Sequence:    wallet.FinalSequence,
		})
	}
	return inputs, nil
}

func (b *txBuilder) prevTx(ctx context.Context, txid string) (*wire.MsgTx, error) {
	tx, err := b.node.GetTransaction(ctx, txid)
	if err != nil {
		if errors.Is(err, ports.ErrTxNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUtxoNotFound, txid)
		}
		return nil, err
	}
	return tx, nil
}

// serviceFeeOutputs returns the outputs paying the given fees for a trade
// of the given price, along with their total. Fees amounting to zero are
// skipped.
func (b *txBuilder) serviceFeeOutputs(
	price uint64, fees []ServiceFeeRequest,
) ([]*wire.TxOut, uint64, error) {
	outputs := make([]*wire.TxOut, 0, len(fees))
	total := uint64(0)
	for _, f := range fees {
		script, err := wallet.ScriptFromAddress(f.Address, b.net)
		if err != nil {
			return nil, 0, fmt.Errorf(
				"%w: %s: invalid address %q", ErrInvalidServiceFee, f.Concept, f.Address,
			)
		}
		if f.Percentage < 0 {
			return nil, 0, fmt.Errorf(
				"%w: %s: negative percentage", ErrInvalidServiceFee, f.Concept,
			)
		}

		amount := f.Amount
		if f.IsPercentage() {
			amount = mathutil.PercentageFee(price, f.Percentage, f.Threshold)
		}
		if amount == 0 {
			continue
		}
		outputs = append(outputs, wire.NewTxOut(int64(amount), script))
		total += amount
	}
	return outputs, total, nil
}

// newSellPsbt returns the 1-in/1-out psbt spending the listed coin to the
// seller for the price. The seller signs it with SINGLE|ANYONECANPAY so that
// the buyer can add inputs and outputs around it.
func newSellPsbt(
	prevTx *wire.MsgTx, sellerScript []byte, price uint64,
) (*psbt.Packet, error) {
	return wallet.NewPsbt(
		[]wallet.Input{{
			PrevTx:      prevTx,
			Vout:        0,
			SighashType: wallet.SigHashSingleAnyoneCanPay,
			Sequence:    wallet.FinalSequence,
		}},
		[]*wire.TxOut{wire.NewTxOut(int64(price), sellerScript)},
		0,
	)
}

func inputsToSign(
	indexes []int, sighashType txscript.SigHashType,
) []wallet.InputToSign {
	list := make([]wallet.InputToSign, 0, len(indexes))
	for _, i := range indexes {
		list = append(list, wallet.InputToSign{
			Index:        i,
			SighashTypes: []txscript.SigHashType{sighashType},
		})
	}
	return list
}

func indexRange(from, to int) []int {
	indexes := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		indexes = append(indexes, i)
	}
	return indexes
}

func newTxResult(
	ptx *psbt.Packet, feeRate, change uint64, toSign []wallet.InputToSign,
) (*TxResult, error) {
	btcIn := uint64(0)
	for i := range ptx.Inputs {
		prevout, err := wallet.PrevoutOf(ptx, i)
		if err != nil {
			return nil, err
		}
		btcIn += uint64(prevout.Value)
	}
	btcOut := uint64(0)
	for _, out := range ptx.UnsignedTx.TxOut {
		btcOut += uint64(out.Value)
	}
	fee := uint64(0)
	if btcIn > btcOut {
		fee = btcIn - btcOut
	}

	composition, err := wallet.Composition(ptx, feeRate)
	if err != nil {
		return nil, err
	}
	estimation := wallet.EstimateTx(composition)

	str, err := wallet.SerializePsbt(ptx)
	if err != nil {
		return nil, err
	}

	return &TxResult{
		Psbt:          str,
		InputsToSign:  toSign,
		Fee:           fee,
		BtcIn:         btcIn,
		BtcOut:        btcOut,
		BtcChange:     change,
		VSize:         estimation.VSize,
		AdjustedVSize: estimation.AdjustedVSize,
		Weight:        estimation.Weight,
	}, nil
}

// utxosWithBalances tells which of the given coins carry assets, asking the
// ledger for ledgerChunkSize coins at a time.
func utxosWithBalances(
	ctx context.Context, ledger ports.Ledger, utxos []string,
) (map[string]bool, error) {
	result := make(map[string]bool, len(utxos))
	for start := 0; start < len(utxos); start += ledgerChunkSize {
		end := start + ledgerChunkSize
		if end > len(utxos) {
			end = len(utxos)
		}
		chunk, err := ledger.GetUtxosWithBalances(ctx, utxos[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to get coins with balances: %w", err)
		}
		for utxo, hasBalance := range chunk {
			result[utxo] = hasBalance
		}
	}
	return result, nil
}

func changeOutput(
	change, threshold uint64, script []byte,
) (*wire.TxOut, uint64) {
	if change <= threshold {
		return nil, 0
	}
	return wire.NewTxOut(int64(change), script), change
}
