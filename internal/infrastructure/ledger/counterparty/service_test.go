package counterparty_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/ledger/counterparty"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

var ctx = context.Background()

func init() {
	counterparty.DefaultRetry = util.RetryOpts{Attempts: 3, Delay: 1}
}

func newLedger(t *testing.T, handler http.HandlerFunc) ports.Ledger {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ledger, err := counterparty.NewService(server.URL + "/")
	require.NoError(t, err)
	return ledger
}

func writeResult(w http.ResponseWriter, result interface{}, nextCursor interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": result, "next_cursor": nextCursor,
	})
}

func moveEvent(txid, asset string) map[string]interface{} {
	return map[string]interface{}{
		"event":   domain.UtxoMoveEvent,
		"tx_hash": txid,
		"params": map[string]interface{}{
			"asset":               asset,
			"block_index":         840000,
			"block_time":          1713571767,
			"source":              txid + ":0",
			"destination":         randstr.Hex(32) + ":0",
			"quantity":            1000000000,
			"quantity_normalized": "10.00000000",
		},
	}
}

func TestGetEventCounts(t *testing.T) {
	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/blocks/840000/events/counts", r.URL.Path)
		writeResult(w, []map[string]interface{}{
			{"event": domain.UtxoMoveEvent, "event_count": 3},
			{"event": "CREDIT", "event_count": 7},
		}, nil)
	})

	counts, err := ledger.GetEventCounts(ctx, 840000)
	require.NoError(t, err)
	require.Len(t, counts, len(domain.EventNames))
	require.Equal(t, uint64(3), counts[domain.UtxoMoveEvent])
	require.Equal(t, uint64(7), counts["CREDIT"])
	require.Zero(t, counts["DEBIT"])
}

func TestGetBlockEvents(t *testing.T) {
	txids := []string{randstr.Hex(32), randstr.Hex(32), randstr.Hex(32)}

	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/blocks/840000/events", r.URL.Path)
		require.Equal(t, domain.UtxoMoveEvent, r.URL.Query().Get("event_name"))
		require.Equal(t, "5000", r.URL.Query().Get("limit"))

		switch r.URL.Query().Get("cursor") {
		case "":
			writeResult(w, []interface{}{
				moveEvent(txids[0], "PEPECASH"), moveEvent(txids[1], "PEPECASH"),
			}, 12)
		case "12":
			writeResult(w, []interface{}{moveEvent(txids[2], "RAREPEPE")}, nil)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	events, err := ledger.GetBlockEvents(ctx, 840000, domain.UtxoMoveEvent)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		require.Equal(t, txids[i], e.Txid)
		require.Equal(t, domain.UtxoMoveEvent, e.Event)
		require.Equal(t, uint64(840000), e.BlockIndex)
		require.Equal(t, int64(1713571767), e.BlockTime)
		require.Equal(t, uint64(1000000000), e.Quantity)
		require.Equal(t, "10", e.QtyNormalized)
	}
	require.Equal(t, "RAREPEPE", events[2].Asset)
}

func TestGetTxEvents(t *testing.T) {
	txid := randstr.Hex(32)
	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/transactions/"+txid+"/events", r.URL.Path)
		require.Equal(t, "UTXO_MOVE,ATTACH_TO_UTXO", r.URL.Query().Get("event_name"))
		writeResult(w, []interface{}{moveEvent(txid, "XCP")}, nil)
	})

	events, err := ledger.GetTxEvents(ctx, txid, domain.UtxoMoveEvent, domain.AttachToUtxoEvent)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "XCP", events[0].Asset)
}

func TestBalances(t *testing.T) {
	utxo := randstr.Hex(32) + ":0"
	other := randstr.Hex(32) + ":1"

	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/utxos/" + utxo + "/balances":
			writeResult(w, []map[string]interface{}{
				{"asset": "PEPECASH", "quantity": 150000000, "quantity_normalized": "1.50000000"},
			}, nil)
		case "/v2/utxos/withbalances":
			require.Equal(t, utxo+","+other, r.URL.Query().Get("utxos"))
			writeResult(w, map[string]bool{utxo: true, other: false}, nil)
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
		}
	})

	balances, err := ledger.GetUtxoBalances(ctx, utxo)
	require.NoError(t, err)
	require.Equal(t, []domain.UtxoBalance{domain.NewUtxoBalance("PEPECASH", "1.5")}, balances)

	withBalances, err := ledger.GetUtxosWithBalances(ctx, []string{utxo, other})
	require.NoError(t, err)
	require.Equal(t, map[string]bool{utxo: true, other: false}, withBalances)

	withBalances, err = ledger.GetUtxosWithBalances(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, withBalances)

	_, err = ledger.GetUtxoBalances(ctx, "unknown:0")
	require.ErrorIs(t, err, counterparty.ErrLedger)
	require.NotErrorIs(t, err, ports.ErrRpcTransient)
}

func TestGetVersion(t *testing.T) {
	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2", r.URL.Path)
		writeResult(w, map[string]interface{}{
			"server_ready": true, "network": "mainnet", "version": "10.6.1",
			"backend_height": 870000, "counterparty_height": 869999,
		}, nil)
	})

	version, err := ledger.GetVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, &ports.LedgerVersion{
		Version:          "10.6.1",
		Network:          "mainnet",
		ServerReady:      true,
		LedgerBlockIndex: 869999,
		BackendHeight:    870000,
	}, version)
}

func TestCompose(t *testing.T) {
	address := "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	utxo := randstr.Hex(32) + ":0"

	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		require.Equal(t, "546", query.Get("utxo_value"))
		require.Equal(t, "3", query.Get("sat_per_vbyte"))

		switch r.URL.Path {
		case "/v2/addresses/" + address + "/compose/attach":
			require.Equal(t, "PEPECASH", query.Get("asset"))
			require.Equal(t, "100", query.Get("quantity"))
			writeResult(w, map[string]string{"rawtransaction": "attach"}, nil)
		case "/v2/addresses/" + address + "/compose/detach":
			require.Equal(t, utxo, query.Get("utxo"))
			writeResult(w, map[string]string{"rawtransaction": ""}, nil)
		}
	})

	txhex, err := ledger.ComposeAttach(ctx, ports.AttachRequest{
		Address: address, Asset: "PEPECASH", Quantity: 100, FeeRate: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "attach", txhex)

	_, err = ledger.ComposeDetach(ctx, ports.DetachRequest{
		Address: address, Utxo: utxo, FeeRate: 3,
	})
	require.ErrorIs(t, err, counterparty.ErrLedger)
}

func TestRetry(t *testing.T) {
	var calls atomic.Int32
	ledger := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeResult(w, []interface{}{}, nil)
	})

	counts, err := ledger.GetEventCounts(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, counts[domain.UtxoMoveEvent])
	require.Equal(t, int32(3), calls.Load())

	down := newLedger(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = down.GetEventCounts(ctx, 1)
	require.ErrorIs(t, err, ports.ErrRpcTransient)
}
