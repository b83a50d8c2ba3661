package application_test

import (
	"fmt"
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/carrier"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/message"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

var net = &chaincfg.RegressionNetParams

type testKey struct {
	key     *btcec.PrivateKey
	script  []byte
	p2pkh   []byte
	address string
}

func newTestKey(t *testing.T) testKey {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pkHash := btcutil.Hash160(key.PubKey().SerializeCompressed())

	addr, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, net)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	pkh, err := btcutil.NewAddressPubKeyHash(pkHash, net)
	require.NoError(t, err)
	p2pkh, err := txscript.PayToAddrScript(pkh)
	require.NoError(t, err)

	return testKey{key, script, p2pkh, addr.EncodeAddress()}
}

func (k testKey) pubkey() []byte {
	return k.key.PubKey().SerializeCompressed()
}

func randomHash(t *testing.T) chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(randstr.Hex(32))
	require.NoError(t, err)
	return *hash
}

// newPrevTx returns a tx funding the given outputs from a random outpoint.
func newPrevTx(t *testing.T, outs ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wallet.TxVersion)
	hash := randomHash(t)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&hash, 0), nil, nil))
	for _, out := range outs {
		tx.AddTxOut(out)
	}
	return tx
}

func utxoOf(tx *wire.MsgTx, vout uint32) explorer.Utxo {
	return explorer.Utxo{
		Txid:  tx.TxHash().String(),
		Vout:  vout,
		Value: uint64(tx.TxOut[vout].Value),
	}
}

func utxoKey(tx *wire.MsgTx, vout uint32) string {
	return fmt.Sprintf("%s:%d", tx.TxHash(), vout)
}

// signSellPsbt returns the sell psbt of the coin at output 0 of prevTx,
// signed by the owner with SINGLE|ANYONECANPAY, along with the signature.
func signSellPsbt(
	t *testing.T, seller testKey, prevTx *wire.MsgTx, price uint64,
) (*psbt.Packet, []byte) {
	ptx, err := wallet.NewPsbt(
		[]wallet.Input{{
			PrevTx:      prevTx,
			SighashType: wallet.SigHashSingleAnyoneCanPay,
			Sequence:    wallet.FinalSequence,
		}},
		[]*wire.TxOut{wire.NewTxOut(int64(price), seller.script)},
		0,
	)
	require.NoError(t, err)

	prevout := prevTx.TxOut[0]
	fetcher := txscript.NewCannedPrevOutputFetcher(prevout.PkScript, prevout.Value)
	sig, err := txscript.RawTxInWitnessSignature(
		ptx.UnsignedTx, txscript.NewTxSigHashes(ptx.UnsignedTx, fetcher), 0,
		prevout.Value, seller.p2pkh, wallet.SigHashSingleAnyoneCanPay, seller.key,
	)
	require.NoError(t, err)
	require.NoError(t, wallet.AttachPartialSignature(ptx, 0, seller.pubkey(), sig))
	return ptx, sig
}

func serializePsbt(t *testing.T, ptx *psbt.Packet) string {
	str, err := wallet.SerializePsbt(ptx)
	require.NoError(t, err)
	return str
}

// newListingTx returns a signed-looking listing tx for the coin at output 0
// of listedTx, funded by a coin of the seller.
func newListingTx(
	t *testing.T, seller testKey, listedTx *wire.MsgTx, price uint64, sig []byte,
) *wire.MsgTx {
	msg, err := message.EncodeListing(utxoKey(listedTx, 0), price)
	require.NoError(t, err)
	tag, err := txscript.NullDataScript(msg)
	require.NoError(t, err)
	carriers, err := carrier.EncodeScripts(sig, net)
	require.NoError(t, err)

	tx := wire.NewMsgTx(wallet.TxVersion)
	tx.LockTime = message.ListingTimelock
	hash := randomHash(t)
	tx.AddTxIn(wire.NewTxIn(
		wire.NewOutPoint(&hash, 1), nil, wire.TxWitness{sig, seller.pubkey()},
	))
	tx.TxIn[0].Sequence = wallet.NonFinalSequence
	tx.AddTxOut(wire.NewTxOut(0, tag))
	for _, script := range carriers {
		tx.AddTxOut(wire.NewTxOut(546, script))
	}
	tx.AddTxOut(wire.NewTxOut(10000, seller.script))
	return tx
}
