package application

import (
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
)

// TxResult is a crafted psbt along with the info the owners of the coins
// need to review it before signing.
type TxResult struct {
	Psbt          string               `json:"psbt"`
	InputsToSign  []wallet.InputToSign `json:"inputsToSign"`
	Fee           uint64               `json:"fee"`
	BtcIn         uint64               `json:"btc_in"`
	BtcOut        uint64               `json:"btc_out"`
	BtcChange     uint64               `json:"btc_change"`
	VSize         int                  `json:"vsize"`
	AdjustedVSize int                  `json:"adjusted_vsize"`
	Weight        int                  `json:"weight"`
}

// SellRequest is the set of args to create the sell psbt of a coin.
type SellRequest struct {
	Utxo   string
	Seller string
	Price  uint64
}

// SubmitRequest is the set of args to build the tx publishing a listing
// from a sell psbt signed by the seller.
type SubmitRequest struct {
	Psbt    string
	FeeRate uint64
}

// BuyRequest is the set of args to build the tx filling an active listing.
type BuyRequest struct {
	ListingID   string
	Buyer       string
	FeeRate     uint64
	ServiceFees []ServiceFeeRequest
}

// CancelRequest is the set of args to build the tx spending a listed coin
// back to the seller.
type CancelRequest struct {
	ListingID string
	FeeRate   uint64
}

// AttachRequest is the set of args to attach a quantity of an asset to a
// new coin of the given address.
type AttachRequest = ports.AttachRequest

// DetachRequest is the set of args to detach the assets of a coin to the
// given address.
type DetachRequest = ports.DetachRequest

// ServiceFeeRequest is an amount paid to a third party by the buyer. A fee
// with a positive Percentage (ie. 2.5 for 2.5%) is computed on the price of
// the listing and floored to Threshold, otherwise Amount is paid as is.
type ServiceFeeRequest struct {
	Concept    string  `json:"concept"`
	Address    string  `json:"address"`
	Amount     uint64  `json:"amount,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
	Threshold  uint64  `json:"threshold,omitempty"`
}

// IsPercentage ...
func (r ServiceFeeRequest) IsPercentage() bool {
	return r.Percentage > 0
}

// DecodedListing is the content of a listing tx, with the sell psbt rebuilt
// and signed with the signature found in the carrier outputs.
type DecodedListing struct {
	Txid   string `json:"txid,omitempty"`
	Utxo   string `json:"utxo"`
	Price  uint64 `json:"price"`
	Seller string `json:"seller"`
	Psbt   string `json:"psbt"`
}

// UtxoWithBalance is a coin of an address along with the assets attached.
type UtxoWithBalance struct {
	explorer.Utxo
	Balances []domain.UtxoBalance `json:"balances"`
}

// Health is the status of the upstream services.
type Health struct {
	NodeHeight      uint64               `json:"node_height"`
	IndexedHeight   uint64               `json:"indexed_height"`
	Ledger          *ports.LedgerVersion `json:"ledger,omitempty"`
	LedgerError     string               `json:"ledger_error,omitempty"`
	NodeError       string               `json:"node_error,omitempty"`
	ServicesHealthy bool                 `json:"healthy"`
}
