package application

import (
	"bytes"
	"context"
	"fmt"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/carrier"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/message"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

// OrderbookService crafts the transactions to list, buy and cancel the sale
// of the assets attached to a coin. It never signs: every result lists the
// inputs the owners of the coins must sign.
type OrderbookService interface {
	// SellOrder returns the psbt the seller signs with SINGLE|ANYONECANPAY
	// to offer the listed coin for a price.
	SellOrder(ctx context.Context, req SellRequest) (*TxResult, error)
	// SubmitListing returns the tx publishing the signed sell psbt on chain.
	SubmitListing(ctx context.Context, req SubmitRequest) (*TxResult, error)
	// DecodeListing recovers the signed sell psbt from a listing tx.
	DecodeListing(ctx context.Context, txhex string) (*DecodedListing, error)
	// DecodeListingByTxid is like DecodeListing for a tx known by the node.
	DecodeListingByTxid(ctx context.Context, txid string) (*DecodedListing, error)
	// BuyOrder returns the tx filling an active listing.
	BuyOrder(ctx context.Context, req BuyRequest) (*TxResult, error)
	// CancelOrder returns the tx spending a listed coin back to the seller.
	CancelOrder(ctx context.Context, req CancelRequest) (*TxResult, error)
	// Broadcast publishes a finalized tx and returns its id.
	Broadcast(ctx context.Context, txhex string) (string, error)
}

type orderbookService struct {
	repoManager ports.RepoManager
	node        ports.Node
	builder     *txBuilder
	net         *chaincfg.Params
	platformFee *ServiceFeeRequest
}

// NewOrderbookService returns an OrderbookService for the given network.
// When platformFee is not nil, it is paid on top of the service fees of
// every buy.
func NewOrderbookService(
	repoManager ports.RepoManager,
	node ports.Node,
	ledger ports.Ledger,
	net *chaincfg.Params,
	platformFee *ServiceFeeRequest,
) OrderbookService {
	return newOrderbookService(repoManager, node, ledger, net, platformFee)
}

func newOrderbookService(
	repoManager ports.RepoManager,
	node ports.Node,
	ledger ports.Ledger,
	net *chaincfg.Params,
	platformFee *ServiceFeeRequest,
) *orderbookService {
	return &orderbookService{
		repoManager: repoManager,
		node:        node,
		builder:     newTxBuilder(node, ledger, net),
		net:         net,
		platformFee: platformFee,
	}
}

func (s *orderbookService) SellOrder(
	ctx context.Context, req SellRequest,
) (*TxResult, error) {
	txid, vout, err := explorer.ParseUtxoKey(req.Utxo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUtxo, req.Utxo)
	}
	sellerScript, err := wallet.ScriptFromAddress(req.Seller, s.net)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if req.Price == 0 {
		return nil, ErrInvalidPrice
	}

	balances, err := s.builder.ledger.GetUtxoBalances(ctx, req.Utxo)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances of %s: %w", req.Utxo, err)
	}
	if len(balances) <= 0 {
		return nil, ErrEmptyUtxo
	}
	if vout != 0 {
		return nil, ErrUnsupportedVout
	}

	prevTx, err := s.builder.prevTx(ctx, txid)
	if err != nil {
		return nil, err
	}
	if len(prevTx.TxOut) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUtxoNotFound, req.Utxo)
	}
	if !bytes.Equal(prevTx.TxOut[0].PkScript, sellerScript) {
		return nil, ErrSellerMismatch
	}

	ptx, err := newSellPsbt(prevTx, sellerScript, req.Price)
	if err != nil {
		return nil, err
	}

	return newTxResult(
		ptx, 0, 0, inputsToSign([]int{0}, wallet.SigHashSingleAnyoneCanPay),
	)
}

func (s *orderbookService) SubmitListing(
	ctx context.Context, req SubmitRequest,
) (*TxResult, error) {
	if req.FeeRate == 0 {
		return nil, ErrInvalidFeeRate
	}
	sellPtx, err := wallet.ParsePsbt(req.Psbt)
	if err != nil {
		return nil, err
	}
	if len(sellPtx.Inputs) != 1 || len(sellPtx.UnsignedTx.TxOut) != 1 {
		return nil, ErrInvalidSellPsbt
	}

	partialSig, err := wallet.ExtractPartialSignature(sellPtx, 0)
	if err != nil {
		return nil, err
	}
	sig := partialSig.Signature
	if txscript.SigHashType(sig[len(sig)-1]) != wallet.SigHashSingleAnyoneCanPay {
		return nil, ErrInvalidSighash
	}

	outpoint := sellPtx.UnsignedTx.TxIn[0].PreviousOutPoint
	if outpoint.Index != 0 {
		return nil, ErrUnsupportedVout
	}
	prevout, err := wallet.PrevoutOf(sellPtx, 0)
	if err != nil {
		return nil, err
	}
	seller, err := wallet.AddressFromScript(prevout.PkScript, s.net)
	if err != nil {
		return nil, err
	}
	utxo := fmt.Sprintf("%s:%d", outpoint.Hash, outpoint.Index)
	price := uint64(sellPtx.UnsignedTx.TxOut[0].Value)

	msg, err := message.EncodeListing(utxo, price)
	if err != nil {
		return nil, err
	}
	tagScript, err := txscript.NullDataScript(msg)
	if err != nil {
		return nil, err
	}
	carrierScripts, err := carrier.EncodeScripts(sig, s.net)
	if err != nil {
		return nil, err
	}

	outputs := []*wire.TxOut{wire.NewTxOut(0, tagScript)}
	for _, script := range carrierScripts {
		outputs = append(outputs, wire.NewTxOut(int64(domain.Dust), script))
	}

	base := wallet.TxComposition{FeeRate: req.FeeRate}
	for _, out := range outputs {
		base.AddOutput(out.PkScript)
	}
	funds, err := s.builder.fund(ctx, fundingRequest{
		owner:       seller,
		ownerScript: prevout.PkScript,
		base:        base,
		amountOut:   domain.Dust * uint64(len(carrierScripts)),
		exclude:     map[string]bool{utxo: true},
	})
	if err != nil {
		return nil, err
	}

	inputs := funds.inputs
	for i := range inputs {
		inputs[i].Sequence = wallet.NonFinalSequence
	}
	out, change := changeOutput(funds.change, domain.ChangeThreshold, prevout.PkScript)
	if out != nil {
		outputs = append(outputs, out)
	}

	ptx, err := wallet.NewPsbt(inputs, outputs, message.ListingTimelock)
	if err != nil {
		return nil, err
	}

	log.Debugf(
		"crafted listing of %s for %d sats with %d carrier outputs",
		utxo, price, len(carrierScripts),
	)
	return newTxResult(
		ptx, req.FeeRate, change,
		inputsToSign(indexRange(0, len(inputs)), txscript.SigHashAll),
	)
}

func (s *orderbookService) DecodeListing(
	ctx context.Context, txhex string,
) (*DecodedListing, error) {
	tx, err := wallet.ParseTx(txhex)
	if err != nil {
		return nil, err
	}
	return decodeListingTx(ctx, s.node, s.net, tx)
}

func (s *orderbookService) DecodeListingByTxid(
	ctx context.Context, txid string,
) (*DecodedListing, error) {
	tx, err := s.node.GetTransaction(ctx, txid)
	if err != nil {
		return nil, err
	}
	return decodeListingTx(ctx, s.node, s.net, tx)
}

func (s *orderbookService) BuyOrder(
	ctx context.Context, req BuyRequest,
) (*TxResult, error) {
	if req.FeeRate == 0 {
		return nil, ErrInvalidFeeRate
	}
	buyerScript, err := wallet.ScriptFromAddress(req.Buyer, s.net)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	listing, err := s.repoManager.ListingRepository().GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive() {
		return nil, ErrListingNotActive
	}

	sellPtx, err := wallet.ParsePsbt(listing.Psbt)
	if err != nil {
		return nil, err
	}
	if len(sellPtx.Inputs) != 1 || len(sellPtx.UnsignedTx.TxOut) != 1 {
		return nil, ErrInvalidSellPsbt
	}
	if _, err := wallet.ExtractPartialSignature(sellPtx, 0); err != nil {
		return nil, err
	}
	sellerIn := sellPtx.Inputs[0]
	if sellerIn.NonWitnessUtxo == nil {
		return nil, wallet.ErrPrevoutNotFound
	}
	sellerPrevout, err := wallet.PrevoutOf(sellPtx, 0)
	if err != nil {
		return nil, err
	}
	sellerOut := sellPtx.UnsignedTx.TxOut[0]

	fees := req.ServiceFees
	if s.platformFee != nil {
		fees = append(append([]ServiceFeeRequest{}, fees...), *s.platformFee)
	}
	feeOutputs, totalFees, err := s.builder.serviceFeeOutputs(listing.Price, fees)
	if err != nil {
		return nil, err
	}

	outputs := []*wire.TxOut{
		wire.NewTxOut(int64(domain.Dust), buyerScript),
		wire.NewTxOut(sellerOut.Value, sellerOut.PkScript),
	}
	outputs = append(outputs, feeOutputs...)

	base := wallet.TxComposition{FeeRate: req.FeeRate}
	base.AddInput(sellerPrevout.PkScript)
	for _, out := range outputs {
		base.AddOutput(out.PkScript)
	}
	funds, err := s.builder.fund(ctx, fundingRequest{
		owner:       req.Buyer,
		ownerScript: buyerScript,
		base:        base,
		amountIn:    uint64(sellerPrevout.Value),
		amountOut:   domain.Dust + uint64(sellerOut.Value) + totalFees,
	})
	if err != nil {
		return nil, err
	}

	sellerInput := wallet.Input{
		PrevTx:      sellerIn.NonWitnessUtxo,
		Vout:        sellPtx.UnsignedTx.TxIn[0].PreviousOutPoint.Index,
		SighashType: wallet.SigHashSingleAnyoneCanPay,
		Sequence:    sellPtx.UnsignedTx.TxIn[0].Sequence,
	}
	inputs := make([]wallet.Input, 0, len(funds.inputs)+1)
	inputs = append(inputs, funds.inputs[0], sellerInput)
	inputs = append(inputs, funds.inputs[1:]...)

	out, change := changeOutput(
		funds.change, domain.Dust+domain.BuyChangeMargin, buyerScript,
	)
	if out != nil {
		outputs = append(outputs, out)
	}

	ptx, err := wallet.NewPsbt(inputs, outputs, 0)
	if err != nil {
		return nil, err
	}
	ptx.Inputs[1].PartialSigs = sellerIn.PartialSigs

	toSign := append([]int{0}, indexRange(2, len(inputs))...)
	log.Debugf(
		"crafted buy of listing %s for %d sats plus %d sats of service fees",
		listing.Txid, listing.Price, totalFees,
	)
	return newTxResult(
		ptx, req.FeeRate, change, inputsToSign(toSign, txscript.SigHashAll),
	)
}

func (s *orderbookService) CancelOrder(
	ctx context.Context, req CancelRequest,
) (*TxResult, error) {
	if req.FeeRate == 0 {
		return nil, ErrInvalidFeeRate
	}
	listing, err := s.repoManager.ListingRepository().GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive() {
		return nil, ErrListingNotActive
	}

	txid, vout, err := explorer.ParseUtxoKey(listing.Utxo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUtxo, listing.Utxo)
	}
	prevTx, err := s.builder.prevTx(ctx, txid)
	if err != nil {
		return nil, err
	}
	listed := wallet.Input{
		PrevTx:      prevTx,
		Vout:        vout,
		SighashType: txscript.SigHashAll,
		Sequence:    wallet.FinalSequence,
	}
	prevout, err := listed.Prevout()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUtxoNotFound, listing.Utxo)
	}
	sellerScript, err := wallet.ScriptFromAddress(listing.Seller, s.net)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	outputs := []*wire.TxOut{wire.NewTxOut(int64(domain.Dust), sellerScript)}
	base := wallet.TxComposition{FeeRate: req.FeeRate}
	base.AddInput(prevout.PkScript)
	base.AddOutput(sellerScript)

	funds, err := s.builder.fund(ctx, fundingRequest{
		owner:       listing.Seller,
		ownerScript: sellerScript,
		base:        base,
		amountIn:    uint64(prevout.Value),
		amountOut:   domain.Dust,
		exclude:     map[string]bool{listing.Utxo: true},
	})
	if err != nil {
		return nil, err
	}

	inputs := append([]wallet.Input{listed}, funds.inputs...)
	out, change := changeOutput(funds.change, domain.ChangeThreshold, sellerScript)
	if out != nil {
		outputs = append(outputs, out)
	}

	ptx, err := wallet.NewPsbt(inputs, outputs, 0)
	if err != nil {
		return nil, err
	}

	return newTxResult(
		ptx, req.FeeRate, change,
		inputsToSign(indexRange(0, len(inputs)), txscript.SigHashAll),
	)
}

func (s *orderbookService) Broadcast(
	ctx context.Context, txhex string,
) (string, error) {
	if _, err := wallet.ParseTx(txhex); err != nil {
		return "", err
	}
	txid, err := s.node.SendRawTransaction(ctx, txhex)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast tx: %w", err)
	}
	log.Infof("broadcasted tx %s", txid)
	return txid, nil
}
