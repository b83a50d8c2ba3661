package application

import (
	"context"
	"fmt"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/carrier"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/message"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// IsListingCandidate returns whether the tx has the shape of a listing: the
// listing locktime and a null-data output.
func IsListingCandidate(tx *wire.MsgTx) bool {
	if tx.LockTime != message.ListingTimelock {
		return false
	}
	_, ok := findTag(tx)
	return ok
}

func findTag(tx *wire.MsgTx) ([]byte, bool) {
	for _, out := range tx.TxOut {
		if !txscript.IsNullData(out.PkScript) {
			continue
		}
		pushes, err := txscript.PushedData(out.PkScript)
		if err != nil {
			continue
		}
		payload := make([]byte, 0, len(out.PkScript))
		for _, p := range pushes {
			payload = append(payload, p...)
		}
		return payload, true
	}
	return nil, false
}

// decodeListingTx recovers the listing published by tx. The seller is the
// owner of the listed coin and its signature, carried by the P2WSH outputs,
// is attached to the rebuilt sell psbt along with the public key found in
// the first input of the listing tx.
func decodeListingTx(
	ctx context.Context, node ports.Node, net *chaincfg.Params, tx *wire.MsgTx,
) (*DecodedListing, error) {
	tag, ok := findTag(tx)
	if !ok {
		return nil, ErrNoTagFound
	}
	listing, err := message.DecodeListing(tag)
	if err != nil {
		return nil, err
	}

	carriers := make([][]byte, 0)
	for _, out := range tx.TxOut {
		if carrier.IsCarrierScript(out.PkScript) {
			carriers = append(carriers, out.PkScript)
		}
	}
	if len(carriers) == 0 {
		return nil, ErrNoCarrierFound
	}
	sig, err := carrier.DecodeSignatureScripts(carriers)
	if err != nil {
		return nil, err
	}

	if len(tx.TxIn) == 0 {
		return nil, ErrMissingPubKey
	}
	pubkey, err := wallet.PubKeyFromTxIn(tx.TxIn[0])
	if err != nil {
		return nil, err
	}

	prevTx, err := node.GetTransaction(ctx, listing.Txid())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUtxoNotFound, listing.Utxo, err)
	}
	if len(prevTx.TxOut) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUtxoNotFound, listing.Utxo)
	}
	sellerScript := prevTx.TxOut[0].PkScript
	seller, err := wallet.AddressFromScript(sellerScript, net)
	if err != nil {
		return nil, err
	}

	ptx, err := newSellPsbt(prevTx, sellerScript, listing.Price)
	if err != nil {
		return nil, err
	}
	if err := wallet.AttachPartialSignature(ptx, 0, pubkey, sig); err != nil {
		return nil, err
	}
	str, err := wallet.SerializePsbt(ptx)
	if err != nil {
		return nil, err
	}

	return &DecodedListing{
		Txid:   tx.TxHash().String(),
		Utxo:   listing.Utxo,
		Price:  listing.Price,
		Seller: seller,
		Psbt:   str,
	}, nil
}
