package carrier_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/carrier"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

func TestEncodeDecode(t *testing.T) {
	nets := []*chaincfg.Params{
		&chaincfg.MainNetParams,
		&chaincfg.TestNet3Params,
		&chaincfg.RegressionNetParams,
	}

	for _, net := range nets {
		for size := 1; size <= 4*carrier.ChunkSize; size++ {
			data, _ := hex.DecodeString(randstr.Hex(size))

			addresses, err := carrier.Encode(data, net)
			require.NoError(t, err)
			require.Len(t, addresses, (size+carrier.ChunkSize-1)/carrier.ChunkSize)
			for _, addr := range addresses {
				assert.True(t, strings.HasPrefix(addr, net.Bech32HRPSegwit+"1q"))
			}

			payload, err := carrier.Decode(addresses, net)
			require.NoError(t, err)
			require.Len(t, payload, len(addresses)*carrier.ChunkSize)
			assert.Equal(t, data, payload[:size])
			assert.Equal(t, make([]byte, len(payload)-size), payload[size:])
		}
	}
}

func TestEncodeDecodeScripts(t *testing.T) {
	data, _ := hex.DecodeString(randstr.Hex(71))

	scripts, err := carrier.EncodeScripts(data, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Len(t, scripts, 3)
	for _, script := range scripts {
		assert.True(t, carrier.IsCarrierScript(script))
	}

	payload, err := carrier.DecodeScripts(scripts)
	require.NoError(t, err)
	assert.Equal(t, data, payload[:len(data)])
}

func TestEncodeEmpty(t *testing.T) {
	_, err := carrier.Encode(nil, &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, carrier.ErrEmptyPayload)

	_, err = carrier.Decode(nil, &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, carrier.ErrEmptyPayload)
}

func TestDecodeNonCarrierAddress(t *testing.T) {
	addresses := []string{"bc1q57y36a30vee07g8p3ra56svcrhean5rc0qr3vh"}
	_, err := carrier.Decode(addresses, &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, carrier.ErrNotCarrierAddress)

	script, _ := txscript.NullDataScript([]byte("OB"))
	_, err = carrier.DecodeScripts([][]byte{script})
	assert.ErrorIs(t, err, carrier.ErrNotCarrierAddress)
}

func TestSignatureRoundTrip(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	counts := make(map[int]struct{})
	for i := 0; i < 50; i++ {
		hash := chainhash.DoubleHashB([]byte(randstr.Hex(16)))
		sig := append(ecdsa.Sign(key, hash).Serialize(), byte(txscript.SigHashSingle|txscript.SigHashAnyOneCanPay))

		addresses, err := carrier.EncodeSignature(sig, &chaincfg.MainNetParams)
		require.NoError(t, err)
		counts[len(addresses)] = struct{}{}

		decoded, err := carrier.DecodeSignature(addresses, &chaincfg.MainNetParams)
		require.NoError(t, err)
		assert.Equal(t, sig, decoded)
	}

	assert.Len(t, counts, 1)
	_, ok := counts[3]
	assert.True(t, ok)
}

func TestTrimSignatureKeepsTrailingZeros(t *testing.T) {
	sig := []byte{0x30, 0x03, 0x02, 0x01, 0x00, 0x00}

	addresses, err := carrier.EncodeSignature(sig, &chaincfg.MainNetParams)
	require.NoError(t, err)

	decoded, err := carrier.DecodeSignature(addresses, &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)
}

func TestTrimSignatureInvalid(t *testing.T) {
	tests := [][]byte{
		nil,
		{0x30},
		{0x31, 0x01, 0x00, 0x00},
		{0x30, 0x45, 0x02},
	}

	for _, tt := range tests {
		_, err := carrier.TrimSignature(tt)
		assert.ErrorIs(t, err, carrier.ErrInvalidSignatureEncoding)
	}
}
