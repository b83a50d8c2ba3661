package bitcoind

import (
	"context"
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil"
)

// Block is the verbosity 1 representation of a block.
type Block struct {
	Hash              string   `json:"hash"`
	Height            uint64   `json:"height"`
	Time              int64    `json:"time"`
	NTx               int      `json:"nTx"`
	Tx                []string `json:"tx"`
	PreviousBlockHash string   `json:"previousblockhash"`
}

// ScriptSig is the unlocking script of an input.
type ScriptSig struct {
	Asm string `json:"asm"`
	Hex string `json:"hex"`
}

// Vin is an input of a verbose transaction.
type Vin struct {
	Txid        string    `json:"txid"`
	Vout        uint32    `json:"vout"`
	Coinbase    string    `json:"coinbase,omitempty"`
	ScriptSig   ScriptSig `json:"scriptSig"`
	TxInWitness []string  `json:"txinwitness,omitempty"`
	Sequence    uint32    `json:"sequence"`
}

// ScriptPubKey is the locking script of an output.
type ScriptPubKey struct {
	Asm     string `json:"asm"`
	Hex     string `json:"hex"`
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

// Vout is an output of a verbose transaction.
type Vout struct {
	Value        Amount       `json:"value"`
	N            uint32       `json:"n"`
	ScriptPubKey ScriptPubKey `json:"scriptPubKey"`
}

// Transaction is the verbose representation of a transaction.
type Transaction struct {
	Txid          string `json:"txid"`
	Hash          string `json:"hash"`
	Hex           string `json:"hex"`
	Version       int32  `json:"version"`
	Locktime      uint32 `json:"locktime"`
	Vin           []Vin  `json:"vin"`
	Vout          []Vout `json:"vout"`
	BlockHash     string `json:"blockhash,omitempty"`
	Confirmations int64  `json:"confirmations,omitempty"`
	BlockTime     int64  `json:"blocktime,omitempty"`
}

// TxOut is the result of gettxout for an unspent output.
type TxOut struct {
	BestBlock     string       `json:"bestblock"`
	Confirmations int64        `json:"confirmations"`
	Value         Amount       `json:"value"`
	ScriptPubKey  ScriptPubKey `json:"scriptPubKey"`
	Coinbase      bool         `json:"coinbase"`
}

// Amount is a btc denominated json number decoded into satoshis.
type Amount uint64

func (a *Amount) UnmarshalJSON(b []byte) error {
	var btc float64
	if err := json.Unmarshal(b, &btc); err != nil {
		return err
	}
	amount, err := btcutil.NewAmount(btc)
	if err != nil {
		return err
	}
	*a = Amount(amount)
	return nil
}

func (c *Client) GetBlockCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.Call(ctx, "getblockcount", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	var hash string
	if err := c.Call(ctx, "getblockhash", []interface{}{height}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (c *Client) GetBlock(ctx context.Context, hash string) (*Block, error) {
	block := &Block{}
	if err := c.Call(ctx, "getblock", []interface{}{hash, 1}, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (c *Client) GetRawTransaction(ctx context.Context, txid string) (string, error) {
	var txhex string
	if err := c.Call(
		ctx, "getrawtransaction", []interface{}{txid, false}, &txhex,
	); err != nil {
		return "", err
	}
	return txhex, nil
}

func (c *Client) GetRawTransactionVerbose(
	ctx context.Context, txid string,
) (*Transaction, error) {
	tx := &Transaction{}
	if err := c.Call(
		ctx, "getrawtransaction", []interface{}{txid, true}, tx,
	); err != nil {
		return nil, err
	}
	return tx, nil
}

func (c *Client) SendRawTransaction(ctx context.Context, txhex string) (string, error) {
	var txid string
	if err := c.Call(
		ctx, "sendrawtransaction", []interface{}{txhex}, &txid,
	); err != nil {
		return "", err
	}
	return txid, nil
}

// GetTxOut returns nil without error if the output is spent or unknown.
func (c *Client) GetTxOut(
	ctx context.Context, txid string, vout uint32, includeMempool bool,
) (*TxOut, error) {
	var out *TxOut
	if err := c.Call(
		ctx, "gettxout", []interface{}{txid, vout, includeMempool}, &out,
	); err != nil {
		return nil, err
	}
	return out, nil
}
