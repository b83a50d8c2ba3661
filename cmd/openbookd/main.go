package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/config"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/application"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/ledger/counterparty"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/node"
	notifier "github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/notifier/websocket"
	scheduler "github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/scheduler/gocron"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/stats"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval := config.GetInt(config.StatsIntervalKey); interval > 0 {
		stats.EnableMemoryStatistics(
			ctx,
			time.Duration(interval)*time.Second,
			filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
	}
	if addr := config.GetString(config.MetricsAddrKey); addr != "" {
		go func() {
			if err := stats.ServeMetrics(ctx, addr); err != nil {
				log.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	repoManager, err := db.NewRepoManager(
		config.GetString(config.DBTypeKey), config.GetDbDir(),
	)
	if err != nil {
		log.WithError(err).Fatal("error while opening db")
	}
	defer repoManager.Close()

	nodeSvc, err := newNode()
	if err != nil {
		log.WithError(err).Fatal("error while setting up node client")
	}
	ledgerSvc, err := counterparty.NewService(config.GetString(config.LedgerUrlKey))
	if err != nil {
		log.WithError(err).Fatal("error while setting up ledger client")
	}

	var tipNotifier ports.TipNotifier
	if url := config.GetString(config.TipNotifierUrlKey); url != "" {
		if tipNotifier, err = notifier.NewTipNotifier(url); err != nil {
			log.WithError(err).Fatal("error while setting up tip notifier")
		}
	}

	indexerSvc := application.NewIndexerService(
		repoManager, nodeSvc, ledgerSvc, tipNotifier, config.GetNetwork(),
		application.IndexerConfig{
			StartBlock:         config.GetUint64(config.StartBlockKey),
			ListingsStartBlock: config.GetUint64(config.ListingsStartBlockKey),
			Workers:            config.GetInt(config.IndexerWorkersKey),
			IdleInterval:       config.GetDuration(config.IndexerIdleIntervalKey),
		},
	)
	monitor := application.NewListingMonitor(
		repoManager, nodeSvc, scheduler.NewScheduler(),
		application.MonitorConfig{
			Cron:          config.GetString(config.CheckOrdersCronKey),
			RetryAttempts: config.GetInt(config.MonitorRetryAttemptsKey),
			RetryDelay:    config.GetDuration(config.RpcRetryDelayKey),
		},
	)

	log.Debug("starting daemon")

	if err := indexerSvc.Start(ctx); err != nil {
		log.WithError(err).Fatal("error while starting indexer")
	}
	defer indexerSvc.Stop()

	if err := monitor.Start(); err != nil {
		log.WithError(err).Fatal("error while starting listing monitor")
	}
	defer monitor.Stop()

	log.Infof("openbook daemon running on %s", config.GetNetwork().Name)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Debug("exiting")
}

func newNode() (ports.Node, error) {
	return node.NewService(node.Config{
		RPCURL:        config.GetString(config.NodeRpcUrlKey),
		RPCUser:       config.GetString(config.NodeRpcUserKey),
		RPCPassword:   config.GetString(config.NodeRpcPasswordKey),
		RateLimit:     config.GetInt(config.NodeRpcRateLimitKey),
		EsploraURL:    config.GetString(config.EsploraUrlKey),
		ExplorerURL:   config.GetExplorerUrl(),
		Network:       config.GetNetwork(),
		RetryAttempts: config.GetInt(config.RpcRetryAttemptsKey),
		RetryDelay:    config.GetDuration(config.RpcRetryDelayKey),
	})
}
