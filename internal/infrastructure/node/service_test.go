package node_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/node"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

var ctx = context.Background()

type rpcRequest struct {
	ID     int64         `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type rpcHandler func(params []interface{}) (result interface{}, rpcErr map[string]interface{})

// newNode returns a fake bitcoind answering with the given handlers. A nil
// handler makes the server fail with 503.
func newNode(t *testing.T, handlers map[string]rpcHandler) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h := handlers[req.Method]
		if h == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		result, rpcErr := h(req.Params)
		if rpcErr != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": req.ID, "result": result, "error": rpcErr,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newService(t *testing.T, nodeURL, esploraURL, explorerURL string) ports.Node {
	svc, err := node.NewService(node.Config{
		RPCURL:        nodeURL,
		RPCUser:       "user",
		RPCPassword:   "pass",
		EsploraURL:    esploraURL,
		ExplorerURL:   explorerURL,
		Network:       &chaincfg.RegressionNetParams,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})
	require.NoError(t, err)
	return svc
}

func makeTx(t *testing.T) (string, string) {
	prevHash, err := chainhash.NewHashFromStr(randstr.Hex(32))
	require.NoError(t, err)
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prevHash, 1), nil, nil))
	tx.AddTxOut(wire.NewTxOut(546, []byte{txscript.OP_TRUE}))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return tx.TxHash().String(), hex.EncodeToString(buf.Bytes())
}

func notFound() map[string]interface{} {
	return map[string]interface{}{
		"code": -5, "message": "No such mempool or blockchain transaction",
	}
}

func TestBlocks(t *testing.T) {
	blockHash, txid := randstr.Hex(32), randstr.Hex(32)
	server := newNode(t, map[string]rpcHandler{
		"getblockcount": func([]interface{}) (interface{}, map[string]interface{}) {
			return 840000, nil
		},
		"getblockhash": func([]interface{}) (interface{}, map[string]interface{}) {
			return blockHash, nil
		},
		"getblock": func(params []interface{}) (interface{}, map[string]interface{}) {
			return map[string]interface{}{
				"hash": params[0], "height": 840000, "time": 1713571767,
				"nTx": 1, "tx": []string{txid},
			}, nil
		},
	})
	svc := newService(t, server.URL, "", "")

	count, err := svc.GetBlockCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(840000), count)

	hash, err := svc.GetBlockHash(ctx, 840000)
	require.NoError(t, err)
	require.Equal(t, blockHash, hash)

	block, err := svc.GetBlock(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, &ports.BlockInfo{
		Hash: blockHash, Height: 840000, Time: 1713571767, Txids: []string{txid},
	}, block)
}

func TestTransactions(t *testing.T) {
	txid, txhex := makeTx(t)
	explorerTxid, explorerTxhex := makeTx(t)

	server := newNode(t, map[string]rpcHandler{
		"getrawtransaction": func(params []interface{}) (interface{}, map[string]interface{}) {
			if params[0] != txid {
				return nil, notFound()
			}
			return txhex, nil
		},
		"gettxout": func(params []interface{}) (interface{}, map[string]interface{}) {
			if params[1].(float64) != 0 {
				return nil, nil
			}
			return map[string]interface{}{
				"bestblock": randstr.Hex(32), "confirmations": 1, "value": 0.00000546,
			}, nil
		},
		"sendrawtransaction": func(params []interface{}) (interface{}, map[string]interface{}) {
			return txid, nil
		},
	})
	explorerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == fmt.Sprintf("/tx/%s/hex", explorerTxid) {
			w.Write([]byte(explorerTxhex))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Transaction not found"))
	}))
	defer explorerServer.Close()

	t.Run("node only", func(t *testing.T) {
		svc := newService(t, server.URL, "", "")

		tx, err := svc.GetTransaction(ctx, txid)
		require.NoError(t, err)
		require.Equal(t, txid, tx.TxHash().String())

		_, err = svc.GetTransaction(ctx, explorerTxid)
		require.ErrorIs(t, err, ports.ErrTxNotFound)

		unspent, err := svc.IsUnspent(ctx, txid, 0)
		require.NoError(t, err)
		require.True(t, unspent)

		unspent, err = svc.IsUnspent(ctx, txid, 1)
		require.NoError(t, err)
		require.False(t, unspent)

		sentTxid, err := svc.SendRawTransaction(ctx, txhex)
		require.NoError(t, err)
		require.Equal(t, txid, sentTxid)
	})

	t.Run("explorer fallback", func(t *testing.T) {
		svc := newService(t, server.URL, "", explorerServer.URL)

		rawTx, err := svc.GetRawTransaction(ctx, explorerTxid)
		require.NoError(t, err)
		require.Equal(t, explorerTxhex, rawTx)

		_, err = svc.GetRawTransaction(ctx, randstr.Hex(32))
		require.ErrorIs(t, err, ports.ErrTxNotFound)
	})
}

func TestRetry(t *testing.T) {
	var calls atomic.Int32
	flaky := newNode(t, map[string]rpcHandler{
		"getblockcount": func([]interface{}) (interface{}, map[string]interface{}) {
			if calls.Add(1) < 3 {
				return nil, map[string]interface{}{"code": -28, "message": "Loading block index..."}
			}
			return 100, nil
		},
	})
	svc := newService(t, flaky.URL, "", "")

	count, err := svc.GetBlockCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100), count)
	require.Equal(t, int32(3), calls.Load())

	down := newNode(t, map[string]rpcHandler{})
	svc = newService(t, down.URL, "", "")

	_, err = svc.GetBlockCount(ctx)
	require.ErrorIs(t, err, ports.ErrRpcTransient)

	_, err = svc.SendRawTransaction(ctx, "00")
	require.ErrorIs(t, err, ports.ErrRpcTransient)
}

func TestGetUnspents(t *testing.T) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		make([]byte, 20), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	utxos := []explorer.Utxo{
		{Txid: randstr.Hex(32), Vout: 0, Value: 546, Status: explorer.UtxoStatus{Confirmed: true}},
		{Txid: randstr.Hex(32), Vout: 2, Value: 100000},
	}

	var esploraCalls, explorerCalls atomic.Int32
	esploraServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		esploraCalls.Add(1)
		if r.URL.Path != fmt.Sprintf("/scripthash/%s/utxo", explorer.ScriptHash(script)) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(utxos)
	}))
	defer esploraServer.Close()

	failingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failingServer.Close()

	explorerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		explorerCalls.Add(1)
		if r.URL.Path != fmt.Sprintf("/address/%s/utxo", addr.EncodeAddress()) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(utxos[:1])
	}))
	defer explorerServer.Close()

	nodeServer := newNode(t, map[string]rpcHandler{})

	t.Run("esplora", func(t *testing.T) {
		svc := newService(t, nodeServer.URL, esploraServer.URL, explorerServer.URL)

		got, err := svc.GetUnspents(ctx, addr.EncodeAddress())
		require.NoError(t, err)
		require.Equal(t, utxos, got)
		require.Zero(t, explorerCalls.Load())
	})

	t.Run("explorer fallback", func(t *testing.T) {
		svc := newService(t, nodeServer.URL, failingServer.URL, explorerServer.URL)

		got, err := svc.GetUnspents(ctx, addr.EncodeAddress())
		require.NoError(t, err)
		require.Equal(t, utxos[:1], got)
		require.Equal(t, int32(1), explorerCalls.Load())
	})

	t.Run("failing", func(t *testing.T) {
		svc := newService(t, nodeServer.URL, "", "")
		_, err := svc.GetUnspents(ctx, addr.EncodeAddress())
		require.ErrorIs(t, err, node.ErrNoUnspentsSource)

		svc = newService(t, nodeServer.URL, failingServer.URL, "")
		_, err = svc.GetUnspents(ctx, addr.EncodeAddress())
		require.ErrorIs(t, err, ports.ErrRpcTransient)

		_, err = svc.GetUnspents(ctx, "not an address")
		require.Error(t, err)
	})
	require.Equal(t, int32(1), esploraCalls.Load())
}
