package carrier

import "github.com/btcsuite/btcd/chaincfg"

const derSequenceTag = 0x30

// TrimSignature cuts the zero padding off a decoded payload holding a DER
// signature followed by its sighash type byte. The DER header declares the
// length of the sequence, so trailing zero bytes that belong to the
// signature are never lost.
func TrimSignature(payload []byte) ([]byte, error) {
	if len(payload) < 2 || payload[0] != derSequenceTag {
		return nil, ErrInvalidSignatureEncoding
	}

	// tag + length byte + sequence + sighash type
	size := int(payload[1]) + 2 + 1
	if len(payload) < size {
		return nil, ErrInvalidSignatureEncoding
	}
	return payload[:size], nil
}

// EncodeSignature renders a signature (DER with trailing sighash type) as
// carrier addresses.
func EncodeSignature(sig []byte, net *chaincfg.Params) ([]string, error) {
	return Encode(sig, net)
}

// DecodeSignature recovers a signature from carrier addresses.
func DecodeSignature(addresses []string, net *chaincfg.Params) ([]byte, error) {
	payload, err := Decode(addresses, net)
	if err != nil {
		return nil, err
	}
	return TrimSignature(payload)
}

// DecodeSignatureScripts recovers a signature from carrier output scripts.
func DecodeSignatureScripts(scripts [][]byte) ([]byte, error) {
	payload, err := DecodeScripts(scripts)
	if err != nil {
		return nil, err
	}
	return TrimSignature(payload)
}
