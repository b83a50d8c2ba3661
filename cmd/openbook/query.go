package main

import (
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var pageFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "page",
		Usage: "the page number, starting from 1",
		Value: domain.DefaultPageNumber,
	},
	&cli.IntFlag{
		Name:  "limit",
		Usage: "the number of items per page",
		Value: domain.DefaultPageSize,
	},
}

var listings = cli.Command{
	Name:  "listings",
	Usage: "list the indexed listings, optionally filtered",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "txid",
			Usage: "get a single listing by the id of its tx",
		},
		&cli.StringFlag{
			Name:  "asset",
			Usage: "filter listings by asset",
		},
		&cli.StringFlag{
			Name:  "seller",
			Usage: "filter listings by seller address",
		},
		&cli.StringFlag{
			Name:  "status",
			Usage: "filter listings by status: active, inactive or pending",
		},
	}, pageFlags...),
	Action: listingsAction,
}

var swaps = cli.Command{
	Name:  "swaps",
	Usage: "list the indexed atomic swaps, optionally filtered",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "txid",
			Usage: "get a single swap by the id of its tx",
		},
		&cli.StringFlag{
			Name:  "asset",
			Usage: "filter swaps by asset",
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "filter swaps by seller or buyer address",
		},
	}, pageFlags...),
	Action: swapsAction,
}

var blocks = cli.Command{
	Name:  "blocks",
	Usage: "list the indexed blocks",
	Flags: append([]cli.Flag{
		&cli.Uint64Flag{
			Name:  "height",
			Usage: "get a single block by height",
		},
		&cli.BoolFlag{
			Name:  "latest",
			Usage: "get the last indexed block",
		},
	}, pageFlags...),
	Action: blocksAction,
}

func getPage(ctx *cli.Context) domain.Page {
	return domain.NewPage(ctx.Int("page"), ctx.Int("limit"))
}

func listingsAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(true)
	if err != nil {
		return err
	}
	defer cleanup()

	queries := svc.queries()
	page := getPage(ctx)

	var resp interface{}
	switch {
	case ctx.IsSet("txid"):
		resp, err = queries.GetListing(ctx.Context, ctx.String("txid"))
	case ctx.IsSet("asset"):
		resp, err = queries.GetListingsByAsset(ctx.Context, ctx.String("asset"), page)
	case ctx.IsSet("seller"):
		resp, err = queries.GetListingsBySeller(ctx.Context, ctx.String("seller"), page)
	case ctx.IsSet("status"):
		resp, err = queries.GetListingsByStatus(ctx.Context, ctx.String("status"), page)
	default:
		resp, err = queries.GetListings(ctx.Context, page)
	}
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func swapsAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(true)
	if err != nil {
		return err
	}
	defer cleanup()

	queries := svc.queries()
	page := getPage(ctx)

	var resp interface{}
	switch {
	case ctx.IsSet("txid"):
		resp, err = queries.GetSwap(ctx.Context, ctx.String("txid"))
	case ctx.IsSet("asset"):
		resp, err = queries.GetSwapsByAsset(ctx.Context, ctx.String("asset"), page)
	case ctx.IsSet("address"):
		resp, err = queries.GetSwapsByAddress(ctx.Context, ctx.String("address"), page)
	default:
		resp, err = queries.GetSwaps(ctx.Context, page)
	}
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func blocksAction(ctx *cli.Context) error {
	svc, cleanup, err := newServices(true)
	if err != nil {
		return err
	}
	defer cleanup()

	queries := svc.queries()

	var resp interface{}
	switch {
	case ctx.Bool("latest"):
		resp, err = queries.GetLatestBlock(ctx.Context)
	case ctx.IsSet("height"):
		resp, err = queries.GetBlock(ctx.Context, ctx.Uint64("height"))
	default:
		resp, err = queries.GetBlocks(ctx.Context, getPage(ctx))
	}
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
