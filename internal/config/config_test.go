package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func witnessAddress(t *testing.T, net *chaincfg.Params) string {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), net)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func setRequiredEnv(t *testing.T) string {
	datadir := t.TempDir()
	t.Setenv("OPENBOOK_DATADIR", datadir)
	t.Setenv("OPENBOOK_NODE_RPC_URL", "http://localhost:8332")
	t.Setenv("OPENBOOK_LEDGER_URL", "http://localhost:4000")
	return datadir
}

func TestInitConfig(t *testing.T) {
	datadir := setRequiredEnv(t)

	require.NoError(t, InitConfig())

	require.Equal(t, &chaincfg.MainNetParams, GetNetwork())
	require.Equal(t, "sqlite", GetString(DBTypeKey))
	require.Equal(t, "https://mempool.space/api", GetExplorerUrl())
	require.Equal(t, "*/10 * * * *", GetString(CheckOrdersCronKey))
	require.Equal(t, 16, GetInt(IndexerWorkersKey))
	require.Nil(t, GetPlatformFee())

	for _, dir := range []string{DbLocation, ProfilerLocation} {
		info, err := os.Stat(filepath.Join(datadir, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
	require.Equal(t, filepath.Join(datadir, DbLocation), GetDbDir())
}

func TestInitConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENBOOK_NETWORK", "regtest")
	t.Setenv("OPENBOOK_DB_TYPE", "badger")
	t.Setenv("OPENBOOK_EXPLORER_URL", "http://localhost:3000")
	feeAddress := witnessAddress(t, &chaincfg.RegressionNetParams)
	t.Setenv("OPENBOOK_SERVICE_FEE_ADDRESS", feeAddress)
	t.Setenv("OPENBOOK_SERVICE_FEE_PERCENTAGE", "1.5")

	require.NoError(t, InitConfig())

	require.Equal(t, &chaincfg.RegressionNetParams, GetNetwork())
	require.Equal(t, "badger", GetString(DBTypeKey))
	require.Equal(t, "http://localhost:3000", GetExplorerUrl())

	fee := GetPlatformFee()
	require.NotNil(t, fee)
	require.Equal(t, feeAddress, fee.Address)
	require.Equal(t, 1.5, fee.Percentage)
	require.Equal(t, uint64(546), fee.Threshold)
	require.True(t, fee.IsPercentage())
}

func TestInvalidConfig(t *testing.T) {
	mainnetAddress := witnessAddress(t, &chaincfg.MainNetParams)
	testnetAddress := witnessAddress(t, &chaincfg.TestNet3Params)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown network",
			env:  map[string]string{"OPENBOOK_NETWORK": "liquid"},
		},
		{
			name: "missing node rpc url",
			env:  map[string]string{"OPENBOOK_NODE_RPC_URL": ""},
		},
		{
			name: "unsupported db type",
			env:  map[string]string{"OPENBOOK_DB_TYPE": "postgres"},
		},
		{
			name: "no indexer workers",
			env:  map[string]string{"OPENBOOK_INDEXER_WORKERS": "0"},
		},
		{
			name: "negative rate limit",
			env:  map[string]string{"OPENBOOK_NODE_RPC_RATE_LIMIT": "-1"},
		},
		{
			name: "invalid fee address",
			env:  map[string]string{"OPENBOOK_SERVICE_FEE_ADDRESS": "not-an-address"},
		},
		{
			name: "fee address of another network",
			env: map[string]string{
				"OPENBOOK_SERVICE_FEE_ADDRESS": testnetAddress,
			},
		},
		{
			name: "fee percentage out of range",
			env: map[string]string{
				"OPENBOOK_SERVICE_FEE_ADDRESS":    mainnetAddress,
				"OPENBOOK_SERVICE_FEE_PERCENTAGE": "100",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			require.Error(t, InitConfig())
		})
	}
}
