package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SigHashSingleAnyoneCanPay lets a signer commit only to its own input and
// to the output at the same index.
const SigHashSingleAnyoneCanPay = txscript.SigHashSingle | txscript.SigHashAnyOneCanPay

// ExtractPartialSignature returns the first partial signature of the i-th
// input.
func ExtractPartialSignature(ptx *psbt.Packet, i int) (*psbt.PartialSig, error) {
	if ptx == nil {
		return nil, ErrNullPsbt
	}
	if i < 0 || i >= len(ptx.Inputs) {
		return nil, ErrInputIndexOutOfRange
	}
	sigs := ptx.Inputs[i].PartialSigs
	if len(sigs) <= 0 || len(sigs[0].Signature) <= 0 {
		return nil, fmt.Errorf("input %d: %w", i, ErrMissingSignature)
	}
	return sigs[0], nil
}

// AttachPartialSignature adds a partial signature to the i-th input.
func AttachPartialSignature(
	ptx *psbt.Packet, i int, pubkey, signature []byte,
) error {
	if ptx == nil {
		return ErrNullPsbt
	}
	if i < 0 || i >= len(ptx.Inputs) {
		return ErrInputIndexOutOfRange
	}
	if _, err := btcec.ParsePubKey(pubkey); err != nil {
		return fmt.Errorf("invalid pubkey: %w", err)
	}
	ptx.Inputs[i].PartialSigs = append(ptx.Inputs[i].PartialSigs, &psbt.PartialSig{
		PubKey:    pubkey,
		Signature: signature,
	})
	return nil
}

// PubKeyFromTxIn returns the public key revealed by a signed input, either
// as second witness element or as last push of the script sig.
func PubKeyFromTxIn(txIn *wire.TxIn) ([]byte, error) {
	if len(txIn.Witness) >= 2 {
		pubkey := txIn.Witness[1]
		if _, err := btcec.ParsePubKey(pubkey); err == nil {
			return pubkey, nil
		}
	}

	if len(txIn.SignatureScript) > 0 {
		pushes, err := txscript.PushedData(txIn.SignatureScript)
		if err == nil && len(pushes) > 0 {
			pubkey := pushes[len(pushes)-1]
			if _, err := btcec.ParsePubKey(pubkey); err == nil {
				return pubkey, nil
			}
		}
	}

	return nil, ErrMissingPubKey
}

// AddressFromScript returns the address encoded by an output script.
func AddressFromScript(script []byte, net *chaincfg.Params) (string, error) {
	if net == nil {
		return "", ErrNullNetwork
	}
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, net)
	if err != nil || len(addrs) != 1 {
		return "", ErrUnknownAddress
	}
	return addrs[0].EncodeAddress(), nil
}

// ScriptFromAddress returns the output script paying to addr, checking it
// belongs to the given network.
func ScriptFromAddress(addr string, net *chaincfg.Params) ([]byte, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	decoded, err := btcutil.DecodeAddress(addr, net)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", addr, err)
	}
	if !decoded.IsForNet(net) {
		return nil, fmt.Errorf("address %s is not for network %s", addr, net.Name)
	}
	return txscript.PayToAddrScript(decoded)
}
