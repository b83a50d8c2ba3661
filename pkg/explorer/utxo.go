package explorer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UtxoStatus is the confirmation status of a coin.
type UtxoStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height,omitempty"`
	BlockHash   string `json:"block_hash,omitempty"`
	BlockTime   int64  `json:"block_time,omitempty"`
}

// Utxo is a spendable transaction output.
type Utxo struct {
	Txid   string     `json:"txid"`
	Vout   uint32     `json:"vout"`
	Value  uint64     `json:"value"`
	Status UtxoStatus `json:"status"`
}

// Key returns the "txid:vout" representation of the coin.
func (u Utxo) Key() string {
	return fmt.Sprintf("%s:%d", u.Txid, u.Vout)
}

// Outpoint returns the wire outpoint spending the coin.
func (u Utxo) Outpoint() (*wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(u.Txid)
	if err != nil {
		return nil, fmt.Errorf("invalid utxo txid %s: %w", u.Txid, err)
	}
	return wire.NewOutPoint(hash, u.Vout), nil
}

// ParseUtxoKey splits a "txid:vout" string into its components.
func ParseUtxoKey(key string) (string, uint32, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid utxo %q: expected txid:vout", key)
	}
	if _, err := chainhash.NewHashFromStr(parts[0]); err != nil || len(parts[0]) != 64 {
		return "", 0, fmt.Errorf("invalid utxo %q: malformed txid", key)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid utxo %q: malformed vout", key)
	}
	return parts[0], uint32(vout), nil
}

// ScriptHash returns the electrum-style hash of an output script, that is
// the reversed sha256 of the script, hex encoded.
func ScriptHash(script []byte) string {
	hash := sha256.Sum256(script)
	for i, j := 0, len(hash)-1; i < j; i, j = i+1, j-1 {
		hash[i], hash[j] = hash[j], hash[i]
	}
	return hex.EncodeToString(hash[:])
}
