package application

import (
	"errors"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/wallet"
)

var (
	// ErrInvalidUtxo ...
	ErrInvalidUtxo = errors.New("utxo must be in the form txid:vout")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid bitcoin address")
	// ErrInvalidPrice ...
	ErrInvalidPrice = errors.New("price must be greater than zero")
	// ErrInvalidFeeRate ...
	ErrInvalidFeeRate = errors.New("fee rate must be greater than zero")
	// ErrInvalidServiceFee is returned for service fees without a payee or
	// whose amount would create a dust output.
	ErrInvalidServiceFee = errors.New("invalid service fee")
	// ErrEmptyUtxo is returned when listing a coin with no assets attached.
	ErrEmptyUtxo = errors.New("utxo has no assets attached")
	// ErrUtxoNotFound is returned when the node does not know the tx of a
	// coin or the coin is missing from it.
	ErrUtxoNotFound = errors.New("utxo not found")
	// ErrUnsupportedVout is returned when listing a coin with an output index
	// other than 0, which the listing message cannot represent.
	ErrUnsupportedVout = errors.New("only coins at output index 0 can be listed")
	// ErrSellerMismatch is returned when the listed coin is not owned by the
	// seller.
	ErrSellerMismatch = errors.New("utxo is not owned by the seller")
	// ErrInvalidSighash is returned when the seller signed the listed coin
	// with a sighash type other than SINGLE|ANYONECANPAY.
	ErrInvalidSighash = errors.New("sell psbt must be signed with SINGLE|ANYONECANPAY")
	// ErrInvalidSellPsbt is returned for sell psbts that are not made of one
	// input and one output.
	ErrInvalidSellPsbt = errors.New("sell psbt must have exactly 1 input and 1 output")
	// ErrNoTagFound is returned when a tx has no null-data output.
	ErrNoTagFound = errors.New("no openbook tag found in transaction")
	// ErrNoCarrierFound is returned when a listing tx has no signature
	// carrier outputs.
	ErrNoCarrierFound = errors.New("no signature carrier found in transaction")
	// ErrNotListingTx is returned when decoding a tx that is not a listing.
	ErrNotListingTx = errors.New("transaction is not a listing")

	ErrMissingSignature  = wallet.ErrMissingSignature
	ErrMissingPubKey     = wallet.ErrMissingPubKey
	ErrInsufficientFunds = explorer.ErrInsufficientFunds
	ErrListingNotFound   = domain.ErrListingNotFound
	ErrListingNotActive  = domain.ErrListingNotActive
)
