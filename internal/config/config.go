package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/application"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the bitcoin network, one of mainnet, testnet, regtest or signet
	NetworkKey = "NETWORK"
	// NodeRpcUrlKey is the url of the bitcoind JSON-RPC endpoint
	NodeRpcUrlKey = "NODE_RPC_URL"
	// NodeRpcUserKey is the basic auth user of the node
	NodeRpcUserKey = "NODE_RPC_USER"
	// NodeRpcPasswordKey is the basic auth password of the node
	NodeRpcPasswordKey = "NODE_RPC_PASSWORD"
	// NodeRpcRateLimitKey is the max number of node calls per second, 0 for unlimited
	NodeRpcRateLimitKey = "NODE_RPC_RATE_LIMIT"
	// EsploraUrlKey is the esplora endpoint used to list the coins of an
	// address by script hash
	EsploraUrlKey = "ESPLORA_URL"
	// ExplorerUrlKey is the public explorer used as fallback to list coins and
	// fetch txs unknown to the node
	ExplorerUrlKey = "EXPLORER_URL"
	// LedgerUrlKey is the base url of the Counterparty v2 api
	LedgerUrlKey = "LEDGER_URL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// StartBlockKey is the first height indexed on an empty store
	StartBlockKey = "START_BLOCK"
	// ListingsStartBlockKey is the first height scanned for listings
	ListingsStartBlockKey = "LISTINGS_START_BLOCK"
	// IndexerWorkersKey bounds the concurrent tx fetches of a block
	IndexerWorkersKey = "INDEXER_WORKERS"
	// IndexerIdleIntervalKey is the polling interval at chain tip
	IndexerIdleIntervalKey = "INDEXER_IDLE_INTERVAL"
	// RpcRetryAttemptsKey is the number of calls made to the node before
	// giving up on transient failures
	RpcRetryAttemptsKey = "RPC_RETRY_ATTEMPTS"
	// RpcRetryDelayKey is the delay before the first retry, doubled at every
	// attempt
	RpcRetryDelayKey = "RPC_RETRY_DELAY"
	// TipNotifierUrlKey is the mempool-like websocket pushing new blocks
	TipNotifierUrlKey = "TIP_NOTIFIER_URL"
	// CheckOrdersCronKey is the schedule of the listing monitor
	CheckOrdersCronKey = "CHECK_ORDERS_CRON"
	// MonitorRetryAttemptsKey bounds the node calls made for every listing
	// checked by the monitor
	MonitorRetryAttemptsKey = "MONITOR_RETRY_ATTEMPTS"
	// ServiceFeeAddressKey is the address receiving the platform fee of every
	// buy, disabled if empty
	ServiceFeeAddressKey = "SERVICE_FEE_ADDRESS"
	// ServiceFeePercentageKey is the platform fee in percent of the price
	ServiceFeePercentageKey = "SERVICE_FEE_PERCENTAGE"
	// ServiceFeeThresholdKey is the min platform fee in satoshis
	ServiceFeeThresholdKey = "SERVICE_FEE_THRESHOLD"
	// MetricsAddrKey is the address <host:port> serving the prometheus
	// metrics, disabled if empty
	MetricsAddrKey = "METRICS_ADDR"
	// StatsIntervalKey defines interval for printing basic openbook statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	platformFeeConcept = "platform"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("openbook", false)

var networks = map[string]*chaincfg.Params{
	"mainnet": &chaincfg.MainNetParams,
	"testnet": &chaincfg.TestNet3Params,
	"regtest": &chaincfg.RegressionNetParams,
	"signet":  &chaincfg.SigNetParams,
}

var defaultExplorerUrls = map[string]string{
	"mainnet": "https://mempool.space/api",
	"testnet": "https://mempool.space/testnet/api",
	"signet":  "https://mempool.space/signet/api",
}

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("OPENBOOK")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, "mainnet")
	vip.SetDefault(NodeRpcRateLimitKey, 50)
	vip.SetDefault(DBTypeKey, db.SqliteDb)
	vip.SetDefault(IndexerWorkersKey, 16)
	vip.SetDefault(IndexerIdleIntervalKey, 10*time.Second)
	vip.SetDefault(RpcRetryAttemptsKey, 5)
	vip.SetDefault(RpcRetryDelayKey, 500*time.Millisecond)
	vip.SetDefault(CheckOrdersCronKey, "*/10 * * * *")
	vip.SetDefault(MonitorRetryAttemptsKey, 5)
	vip.SetDefault(ServiceFeeThresholdKey, 546)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the store.
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetNetwork returns the params of the configured network.
func GetNetwork() *chaincfg.Params {
	return networks[strings.ToLower(GetString(NetworkKey))]
}

// GetExplorerUrl returns the configured public explorer, defaulting to
// mempool.space for public networks.
func GetExplorerUrl() string {
	if url := GetString(ExplorerUrlKey); url != "" {
		return url
	}
	return defaultExplorerUrls[strings.ToLower(GetString(NetworkKey))]
}

// GetPlatformFee returns the fee paid to the platform on every buy, or nil
// if no fee address is configured.
func GetPlatformFee() *application.ServiceFeeRequest {
	address := GetString(ServiceFeeAddressKey)
	if address == "" {
		return nil
	}
	return &application.ServiceFeeRequest{
		Concept:    platformFeeConcept,
		Address:    address,
		Percentage: GetFloat(ServiceFeePercentageKey),
		Threshold:  GetUint64(ServiceFeeThresholdKey),
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	net := GetNetwork()
	if net == nil {
		return fmt.Errorf(
			"unknown network %q, must be one of mainnet, testnet, regtest, signet",
			GetString(NetworkKey),
		)
	}

	if !vip.IsSet(NodeRpcUrlKey) {
		return fmt.Errorf("missing node rpc url")
	}
	if !vip.IsSet(LedgerUrlKey) {
		return fmt.Errorf("missing ledger url")
	}

	dbType := GetString(DBTypeKey)
	supported := false
	for _, t := range db.SupportedTypes() {
		if t == dbType {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf(
			"%s must be one of %s", DBTypeKey, strings.Join(db.SupportedTypes(), ", "),
		)
	}

	if GetInt(IndexerWorkersKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", IndexerWorkersKey)
	}
	if GetInt(RpcRetryAttemptsKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", RpcRetryAttemptsKey)
	}
	if GetInt(NodeRpcRateLimitKey) < 0 {
		return fmt.Errorf("%s must not be negative", NodeRpcRateLimitKey)
	}

	if address := GetString(ServiceFeeAddressKey); address != "" {
		addr, err := btcutil.DecodeAddress(address, net)
		if err != nil {
			return fmt.Errorf("invalid %s: %s", ServiceFeeAddressKey, err)
		}
		if !addr.IsForNet(net) {
			return fmt.Errorf("%s is not a %s address", ServiceFeeAddressKey, net.Name)
		}
		pct := GetFloat(ServiceFeePercentageKey)
		if pct < 0 || pct >= 100 {
			return fmt.Errorf("%s must be in range [0, 100)", ServiceFeePercentageKey)
		}
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
