// Package carrier transports arbitrary bytes, typically a detached DER
// signature, as a sequence of witness-v0 script hash outputs. Every 32-byte
// chunk of the payload is used as the witness program of a P2WSH address.
// Such outputs are never meant to be spent.
package carrier

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ChunkSize is the size of a witness v0 script hash program.
const ChunkSize = 32

var (
	// ErrEmptyPayload ...
	ErrEmptyPayload = errors.New("carrier payload must not be empty")
	// ErrNotCarrierAddress is returned when decoding an address or script
	// that is not a witness v0 script hash.
	ErrNotCarrierAddress = errors.New("not a p2wsh carrier address")
	// ErrInvalidSignatureEncoding is returned when the decoded payload does
	// not start with a DER sequence header or is shorter than it declares.
	ErrInvalidSignatureEncoding = errors.New("carrier payload is not a der signature")
)

// Chunks splits data into zero padded 32-byte chunks.
func Chunks(data []byte) [][]byte {
	count := (len(data) + ChunkSize - 1) / ChunkSize
	chunks := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		chunk := make([]byte, ChunkSize)
		copy(chunk, data[i*ChunkSize:])
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Encode renders data as an ordered list of bech32 P2WSH addresses for the
// given network.
func Encode(data []byte, net *chaincfg.Params) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	chunks := Chunks(data)
	addresses := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		addr, err := btcutil.NewAddressWitnessScriptHash(chunk, net)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr.EncodeAddress())
	}
	return addresses, nil
}

// EncodeScripts is like Encode but returns the output scripts.
func EncodeScripts(data []byte, net *chaincfg.Params) ([][]byte, error) {
	addresses, err := Encode(data, net)
	if err != nil {
		return nil, err
	}

	scripts := make([][]byte, 0, len(addresses))
	for _, a := range addresses {
		addr, err := btcutil.DecodeAddress(a, net)
		if err != nil {
			return nil, err
		}
		script, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// Decode concatenates the witness programs of the given addresses. The
// result keeps the zero padding of the last chunk since the carrier itself
// does not record the payload length.
func Decode(addresses []string, net *chaincfg.Params) ([]byte, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyPayload
	}

	payload := make([]byte, 0, len(addresses)*ChunkSize)
	for _, a := range addresses {
		addr, err := btcutil.DecodeAddress(a, net)
		if err != nil {
			return nil, err
		}
		wsh, ok := addr.(*btcutil.AddressWitnessScriptHash)
		if !ok {
			return nil, ErrNotCarrierAddress
		}
		payload = append(payload, wsh.WitnessProgram()...)
	}
	return payload, nil
}

// DecodeScripts is like Decode but works on P2WSH output scripts.
func DecodeScripts(scripts [][]byte) ([]byte, error) {
	if len(scripts) == 0 {
		return nil, ErrEmptyPayload
	}

	payload := make([]byte, 0, len(scripts)*ChunkSize)
	for _, script := range scripts {
		if !IsCarrierScript(script) {
			return nil, ErrNotCarrierAddress
		}
		payload = append(payload, script[2:]...)
	}
	return payload, nil
}

// IsCarrierScript returns whether the script is shaped like a carrier output.
func IsCarrierScript(script []byte) bool {
	return txscript.IsPayToWitnessScriptHash(script)
}
