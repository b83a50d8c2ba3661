package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/application"
	"github.com/urfave/cli/v2"
)

var (
	feeRateFlag = cli.Uint64Flag{
		Name:  "fee-rate",
		Usage: "the fee rate in sat/vbyte",
		Value: 1,
	}
	listingFlag = cli.StringFlag{
		Name:     "listing",
		Usage:    "the txid of the listing",
		Required: true,
	}
)

var sell = cli.Command{
	Name:  "sell",
	Usage: "create the psbt offering the assets of a coin for a price",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "utxo",
			Usage:    "the coin to sell, in the form txid:vout",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "seller",
			Usage:    "the address owning the coin and receiving the price",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "price",
			Usage:    "the price in satoshis",
			Required: true,
		},
	},
	Action: sellAction,
}

var submit = cli.Command{
	Name:  "submit",
	Usage: "create the tx publishing a sell psbt signed by the seller",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "psbt",
			Usage:    "the signed sell psbt in base64",
			Required: true,
		},
		&feeRateFlag,
	},
	Action: submitAction,
}

var decode = cli.Command{
	Name:  "decode",
	Usage: "recover the signed sell psbt from a listing tx",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "tx",
			Usage: "the listing tx in hex",
		},
		&cli.StringFlag{
			Name:  "txid",
			Usage: "the id of a listing tx known by the node",
		},
	},
	Action: decodeAction,
}

var buy = cli.Command{
	Name:  "buy",
	Usage: "create the tx filling an active listing",
	Flags: []cli.Flag{
		&listingFlag,
		&cli.StringFlag{
			Name:     "buyer",
			Usage:    "the address paying the price and receiving the assets",
			Required: true,
		},
		&feeRateFlag,
		&cli.StringSliceFlag{
			Name: "service-fee",
			Usage: "a fee paid to a third party, in the form <address>:<amount> " +
				"or <address>:<percentage>%, repeatable",
		},
	},
	Action: buyAction,
}

var cancel = cli.Command{
	Name:  "cancel",
	Usage: "create the tx spending a listed coin back to the seller",
	Flags: []cli.Flag{
		&listingFlag,
		&feeRateFlag,
	},
	Action: cancelAction,
}

var broadcast = cli.Command{
	Name:  "broadcast",
	Usage: "publish a finalized tx",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "tx",
			Usage:    "the finalized tx in hex",
			Required: true,
		},
	},
	Action: broadcastAction,
}

func sellAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.orderbook().SellOrder(ctx.Context, application.SellRequest{
		Utxo:   ctx.String("utxo"),
		Seller: ctx.String("seller"),
		Price:  ctx.Uint64("price"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func submitAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.orderbook().SubmitListing(ctx.Context, application.SubmitRequest{
		Psbt:    ctx.String("psbt"),
		FeeRate: ctx.Uint64("fee-rate"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func decodeAction(ctx *cli.Context) error {
	txhex, txid := ctx.String("tx"), ctx.String("txid")
	if (txhex == "") == (txid == "") {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	var resp *application.DecodedListing
	if txhex != "" {
		resp, err = svc.orderbook().DecodeListing(ctx.Context, txhex)
	} else {
		resp, err = svc.orderbook().DecodeListingByTxid(ctx.Context, txid)
	}
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func buyAction(ctx *cli.Context) error {
	serviceFees, err := parseServiceFees(ctx.StringSlice("service-fee"))
	if err != nil {
		return err
	}

	svc, cleanup, err := newServices(true)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.orderbook().BuyOrder(ctx.Context, application.BuyRequest{
		ListingID:   ctx.String("listing"),
		Buyer:       ctx.String("buyer"),
		FeeRate:     ctx.Uint64("fee-rate"),
		ServiceFees: serviceFees,
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func cancelAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(true)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.orderbook().CancelOrder(ctx.Context, application.CancelRequest{
		ListingID: ctx.String("listing"),
		FeeRate:   ctx.Uint64("fee-rate"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func broadcastAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(false)
	if err != nil {
		return err
	}
	defer cleanup()

	txid, err := svc.orderbook().Broadcast(ctx.Context, ctx.String("tx"))
	if err != nil {
		return err
	}

	printRespJSON(map[string]string{"txid": txid})
	return nil
}

// parseServiceFees parses fees in the form <address>:<amount> or
// <address>:<percentage>%.
func parseServiceFees(fees []string) ([]application.ServiceFeeRequest, error) {
	if len(fees) == 0 {
		return nil, nil
	}

	parsed := make([]application.ServiceFeeRequest, 0, len(fees))
	for _, fee := range fees {
		i := strings.LastIndex(fee, ":")
		if i <= 0 || i == len(fee)-1 {
			return nil, fmt.Errorf("invalid service fee %q", fee)
		}
		address, value := fee[:i], fee[i+1:]
		req := application.ServiceFeeRequest{Concept: "service", Address: address}

		if pct, ok := strings.CutSuffix(value, "%"); ok {
			percentage, err := strconv.ParseFloat(pct, 64)
			if err != nil || percentage <= 0 {
				return nil, fmt.Errorf("invalid service fee percentage %q", value)
			}
			req.Percentage = percentage
		} else {
			amount, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid service fee amount %q", value)
			}
			req.Amount = amount
		}
		parsed = append(parsed, req)
	}
	return parsed, nil
}
