package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/config"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/application"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/ledger/counterparty"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/node"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/infrastructure/storage/db"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "openbook"
	app.Usage = "Command line interface to list, buy and cancel the sale of Counterparty assets attached to bitcoin coins"
	app.Commands = append(
		app.Commands,
		&sell,
		&submit,
		&decode,
		&buy,
		&cancel,
		&broadcast,
		&listings,
		&swaps,
		&blocks,
		&utxos,
		&attach,
		&detach,
		&health,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

// services is the set of application services a command runs against.
// Stores are opened lazily, so commands not reading the index work while
// the daemon holds it.
type services struct {
	repoManager ports.RepoManager
	node        ports.Node
	ledger      ports.Ledger
}

func newServices(withStore bool) (*services, func(), error) {
	if err := config.InitConfig(); err != nil {
		return nil, nil, err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	log.SetOutput(os.Stderr)

	nodeSvc, err := node.NewService(node.Config{
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
	if err != nil {
		return nil, nil, err
	}
	ledgerSvc, err := counterparty.NewService(config.GetString(config.LedgerUrlKey))
	if err != nil {
		return nil, nil, err
	}

	svc := &services{node: nodeSvc, ledger: ledgerSvc}
	cleanup := func() {}
	if withStore {
		repoManager, err := db.NewRepoManager(
			config.GetString(config.DBTypeKey), config.GetDbDir(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open db: %w", err)
		}
		svc.repoManager = repoManager
		cleanup = repoManager.Close
	}
	return svc, cleanup, nil
}

func (s *services) orderbook() application.OrderbookService {
	return application.NewOrderbookService(
		s.repoManager, s.node, s.ledger, config.GetNetwork(), config.GetPlatformFee(),
	)
}

func (s *services) assets() application.AssetService {
	return application.NewAssetService(
		s.repoManager, s.node, s.ledger, config.GetNetwork(),
	)
}

func (s *services) queries() application.QueryService {
	return application.NewQueryService(s.repoManager)
}

func printRespJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		printRespJSON(map[string]string{"error": err.Error()})
	}
	os.Exit(1)
}
