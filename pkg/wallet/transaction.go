package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// TxVersion is the version of every crafted transaction.
	TxVersion = 2
	// FinalSequence disables both locktime and rbf for an input.
	FinalSequence = wire.MaxTxInSequenceNum
	// NonFinalSequence keeps the locktime enforced while still opting out of
	// rbf signaling.
	NonFinalSequence = wire.MaxTxInSequenceNum - 2
)

// InputToSign describes an input of a crafted transaction that the owner
// of the coin still has to sign, with the sighash types allowed.
type InputToSign struct {
	Index        int                    `json:"index"`
	SighashTypes []txscript.SigHashType `json:"sighashTypes"`
}

// Input is a coin to be added to a PSBT with the full previous transaction.
type Input struct {
	PrevTx      *wire.MsgTx
	Vout        uint32
	SighashType txscript.SigHashType
	Sequence    uint32
}

// Prevout returns the output spent by the input.
func (i Input) Prevout() (*wire.TxOut, error) {
	if i.PrevTx == nil || int(i.Vout) >= len(i.PrevTx.TxOut) {
		return nil, ErrPrevoutNotFound
	}
	return i.PrevTx.TxOut[i.Vout], nil
}

// NewPsbt crafts a partial transaction spending the given inputs. Every
// input is decorated with its previous tx, its previous output for segwit
// coins and its sighash type.
func NewPsbt(
	inputs []Input, outputs []*wire.TxOut, locktime uint32,
) (*psbt.Packet, error) {
	outpoints := make([]*wire.OutPoint, 0, len(inputs))
	sequences := make([]uint32, 0, len(inputs))
	for _, in := range inputs {
		if _, err := in.Prevout(); err != nil {
			return nil, err
		}
		hash := in.PrevTx.TxHash()
		outpoints = append(outpoints, wire.NewOutPoint(&hash, in.Vout))
		sequences = append(sequences, in.Sequence)
	}

	ptx, err := psbt.New(outpoints, outputs, TxVersion, locktime, sequences)
	if err != nil {
		return nil, err
	}

	updater, err := psbt.NewUpdater(ptx)
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		if err := updater.AddInNonWitnessUtxo(in.PrevTx, i); err != nil {
			return nil, err
		}
		prevout, _ := in.Prevout()
		if txscript.IsWitnessProgram(prevout.PkScript) {
			if err := updater.AddInWitnessUtxo(prevout, i); err != nil {
				return nil, err
			}
		}
		if err := updater.AddInSighashType(in.SighashType, i); err != nil {
			return nil, err
		}
	}
	return ptx, nil
}

// PrevoutOf returns the output spent by the i-th input of the partial tx.
func PrevoutOf(ptx *psbt.Packet, i int) (*wire.TxOut, error) {
	if ptx == nil {
		return nil, ErrNullPsbt
	}
	if i < 0 || i >= len(ptx.Inputs) {
		return nil, ErrInputIndexOutOfRange
	}
	in := ptx.Inputs[i]
	if in.WitnessUtxo != nil {
		return in.WitnessUtxo, nil
	}
	if in.NonWitnessUtxo != nil {
		vout := ptx.UnsignedTx.TxIn[i].PreviousOutPoint.Index
		if int(vout) < len(in.NonWitnessUtxo.TxOut) {
			return in.NonWitnessUtxo.TxOut[vout], nil
		}
	}
	return nil, ErrPrevoutNotFound
}

// Composition counts inputs and outputs of the partial tx by kind.
func Composition(ptx *psbt.Packet, feeRate uint64) (TxComposition, error) {
	c := TxComposition{FeeRate: feeRate}
	for i := range ptx.Inputs {
		prevout, err := PrevoutOf(ptx, i)
		if err != nil {
			return TxComposition{}, err
		}
		c.AddInput(prevout.PkScript)
	}
	for _, out := range ptx.UnsignedTx.TxOut {
		c.AddOutput(out.PkScript)
	}
	return c, nil
}

// AddInput counts a coin locked by prevoutScript.
func (c *TxComposition) AddInput(prevoutScript []byte) {
	if txscript.IsWitnessProgram(prevoutScript) {
		c.SegwitInputs++
		return
	}
	c.LegacyInputs++
}

// AddOutput counts an output locked by script.
func (c *TxComposition) AddOutput(script []byte) {
	switch {
	case txscript.IsNullData(script):
		c.OpReturnSize += len(script)
	case txscript.IsPayToWitnessScriptHash(script):
		c.P2WSHOutputs++
	default:
		c.P2PKHOutputs++
	}
}

// InputKinds returns the counts of legacy and segwit coins among scripts.
func InputKinds(prevoutScripts ...[]byte) (legacy, segwit int) {
	c := TxComposition{}
	for _, s := range prevoutScripts {
		c.AddInput(s)
	}
	return c.LegacyInputs, c.SegwitInputs
}

// SerializePsbt returns the hex encoding of the partial tx.
func SerializePsbt(ptx *psbt.Packet) (string, error) {
	if ptx == nil {
		return "", ErrNullPsbt
	}
	var buf bytes.Buffer
	if err := ptx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// ParsePsbt accepts either the hex or the base64 encoding of a partial tx.
func ParsePsbt(str string) (*psbt.Packet, error) {
	if raw, err := hex.DecodeString(str); err == nil {
		ptx, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
		if err != nil {
			return nil, fmt.Errorf("invalid psbt: %w", err)
		}
		return ptx, nil
	}
	ptx, err := psbt.NewFromRawBytes(bytes.NewReader([]byte(str)), true)
	if err != nil {
		return nil, fmt.Errorf("invalid psbt: %w", err)
	}
	return ptx, nil
}

// ParseTx decodes a transaction in hex format.
func ParseTx(txhex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txhex)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hex: %w", err)
	}
	tx := wire.NewMsgTx(TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("invalid tx: %w", err)
	}
	return tx, nil
}

// SerializeTx returns the hex encoding of the transaction.
func SerializeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}
