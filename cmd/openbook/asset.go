package main

import (
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/application"
	"github.com/urfave/cli/v2"
)

var addressFlag = cli.StringFlag{
	Name:     "address",
	Usage:    "the bitcoin address",
	Required: true,
}

var utxos = cli.Command{
	Name:  "utxos",
	Usage: "list the coins of an address along with the assets attached",
	Flags: []cli.Flag{
		&addressFlag,
	},
	Action: utxosAction,
}

var attach = cli.Command{
	Name:  "attach",
	Usage: "create the psbt attaching a quantity of an asset to a new coin",
	Flags: []cli.Flag{
		&addressFlag,
		&cli.StringFlag{
			Name:     "asset",
			Usage:    "the asset to attach",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "quantity",
			Usage:    "the quantity to attach, in base units",
			Required: true,
		},
		&feeRateFlag,
	},
	Action: attachAction,
}

var detach = cli.Command{
	Name:  "detach",
	Usage: "create the psbt detaching the assets of a coin to an address",
	Flags: []cli.Flag{
		&addressFlag,
		&cli.StringFlag{
			Name:     "utxo",
			Usage:    "the coin to detach assets from, in the form txid:vout",
			Required: true,
		},
		&feeRateFlag,
	},
	Action: detachAction,
}

var health = cli.Command{
	Name:   "health",
	Usage:  "report the status of the node, the ledger and the index",
	Action: healthAction,
}

func utxosAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.assets().GetUtxosWithBalances(ctx.Context, ctx.String("address"))
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func attachAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.assets().Attach(ctx.Context, application.AttachRequest{
		Address:  ctx.String("address"),
		Asset:    ctx.String("asset"),
		Quantity: ctx.Uint64("quantity"),
		FeeRate:  ctx.Uint64("fee-rate"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func detachAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.assets().Detach(ctx.Context, application.DetachRequest{
		Address: ctx.String("address"),
		Utxo:    ctx.String("utxo"),
		FeeRate: ctx.Uint64("fee-rate"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func healthAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(true)
	if err != nil {
		return err
	}
	defer cleanup()

	printRespJSON(svc.assets().Health(ctx.Context))
	return nil
}
