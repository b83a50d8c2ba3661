package message

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

const txidSize = 32

// Listing is the content of the null-data output of a listing transaction.
// The output index of the listed coin is not part of the wire format and is
// always 0.
type Listing struct {
	Utxo  string
	Price uint64
}

// Txid returns the txid part of the listed utxo.
func (l Listing) Txid() string {
	txid, _, _ := strings.Cut(l.Utxo, ":")
	return txid
}

// EncodeListing serializes the listing message as
// prefix || txid (32 bytes, display order) || uleb128(price).
func EncodeListing(utxo string, price uint64) ([]byte, error) {
	txid, _, _ := strings.Cut(utxo, ":")
	txidBytes, err := hex.DecodeString(txid)
	if err != nil || len(txidBytes) != txidSize {
		return nil, ErrInvalidTxid
	}

	msg := make([]byte, 0, len(Prefix)+txidSize+10)
	msg = append(msg, Prefix...)
	msg = append(msg, txidBytes...)
	msg = append(msg, EncodeULEB128(price)...)
	return msg, nil
}

// DecodeListing parses a listing message.
func DecodeListing(msg []byte) (*Listing, error) {
	if !bytes.HasPrefix(msg, []byte(Prefix)) {
		return nil, ErrInvalidPrefix
	}
	body := msg[len(Prefix):]
	if len(body) < txidSize+1 {
		return nil, ErrMalformedMessage
	}

	price, _, err := DecodeULEB128(body[txidSize:])
	if err != nil {
		return nil, err
	}

	return &Listing{
		Utxo:  fmt.Sprintf("%s:0", hex.EncodeToString(body[:txidSize])),
		Price: price,
	}, nil
}
