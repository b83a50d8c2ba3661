package application

import (
	"context"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/mathutil"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

type swapRole int

const (
	roleBuyer swapRole = iota
	roleSeller
)

// classifyRole tells who spent a coin of a swap tx: the seller spends the
// dust coin the assets are attached to, the buyer spends everything else.
func classifyRole(prevoutValue uint64) swapRole {
	if prevoutValue == domain.Dust {
		return roleSeller
	}
	return roleBuyer
}

type swapParser struct {
	node ports.Node
	net  *chaincfg.Params
}

// parse returns the valid swaps among the txs moving assets between coins
// in a block. Moves are grouped by tx, preserving the order of the ledger.
func (p *swapParser) parse(
	ctx context.Context, block *ports.BlockInfo, moves []ports.LedgerEvent,
) ([]domain.AtomicSwap, error) {
	txids := make([]string, 0)
	movesByTx := make(map[string][]ports.LedgerEvent)
	for _, m := range moves {
		if _, ok := movesByTx[m.Txid]; !ok {
			txids = append(txids, m.Txid)
		}
		movesByTx[m.Txid] = append(movesByTx[m.Txid], m)
	}

	swaps := make([]domain.AtomicSwap, 0)
	for _, txid := range txids {
		swap, err := p.parseSwap(ctx, block, txid, movesByTx[txid])
		if err != nil {
			return nil, err
		}
		if swap != nil {
			swaps = append(swaps, *swap)
		}
	}
	return swaps, nil
}

func (p *swapParser) parseSwap(
	ctx context.Context,
	block *ports.BlockInfo,
	txid string,
	moves []ports.LedgerEvent,
) (*domain.AtomicSwap, error) {
	tx, err := p.node.GetTransaction(ctx, txid)
	if err != nil {
		return nil, err
	}

	swap := &domain.AtomicSwap{
		Txid:        txid,
		Timestamp:   moves[0].BlockTime,
		BlockIndex:  block.Height,
		BlockHash:   block.Hash,
		UtxoBalance: make([]domain.UtxoBalance, 0, len(moves)),
		ServiceFees: make([]domain.ServiceFee, 0),
	}
	if swap.Timestamp == 0 {
		swap.Timestamp = block.Time
	}
	for _, m := range moves {
		swap.UtxoBalance = append(
			swap.UtxoBalance, domain.NewUtxoBalance(m.Asset, m.QtyNormalized),
		)
	}

	inputAddresses, err := p.inputAddresses(ctx, tx, swap)
	if err != nil {
		return nil, err
	}

	outputAddresses := make([]string, 0, len(tx.TxOut))
	for _, out := range tx.TxOut {
		addr, err := wallet.AddressFromScript(out.PkScript, p.net)
		if err != nil {
			continue
		}
		outputAddresses = append(outputAddresses, addr)
		switch addr {
		case swap.Seller:
			swap.TotalPrice = uint64(out.Value)
		case swap.Buyer:
		default:
			swap.ServiceFees = append(swap.ServiceFees, domain.ServiceFee{
				Address: addr,
				Fee:     uint64(out.Value),
			})
		}
	}

	if err := swap.Validate(inputAddresses, outputAddresses); err != nil {
		log.Debugf("skipping tx %s: %s", txid, err)
		return nil, nil
	}

	unitPrice, err := mathutil.UnitPrice(swap.TotalPrice, moves[0].QtyNormalized)
	if err != nil {
		log.WithError(err).Warnf("failed to compute unit price of swap %s", txid)
	}
	swap.UnitPrice = unitPrice

	return swap, nil
}

// inputAddresses returns the addresses spending the coins of tx and assigns
// the seller and buyer roles to swap. When several coins share a role, the
// last one wins.
func (p *swapParser) inputAddresses(
	ctx context.Context, tx *wire.MsgTx, swap *domain.AtomicSwap,
) ([]string, error) {
	prevTxs := make(map[chainhash.Hash]*wire.MsgTx)
	addresses := make([]string, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		outpoint := in.PreviousOutPoint
		if outpoint.Hash == (chainhash.Hash{}) {
			continue
		}

		prevTx, ok := prevTxs[outpoint.Hash]
		if !ok {
			var err error
			prevTx, err = p.node.GetTransaction(ctx, outpoint.Hash.String())
			if err != nil {
				return nil, err
			}
			prevTxs[outpoint.Hash] = prevTx
		}
		if int(outpoint.Index) >= len(prevTx.TxOut) {
			continue
		}
		prevout := prevTx.TxOut[outpoint.Index]

		addr, err := wallet.AddressFromScript(prevout.PkScript, p.net)
		if err != nil {
			continue
		}
		addresses = append(addresses, addr)

		switch classifyRole(uint64(prevout.Value)) {
		case roleSeller:
			swap.Seller = addr
		default:
			swap.Buyer = addr
		}
	}
	return addresses, nil
}
