package domain

const (
	// Dust is the value of the coins carrying assets, of the carrier outputs
	// and of the output receiving the asset in a buy transaction.
	Dust = uint64(546)
	// ChangeThreshold is the minimum change returned to the seller when
	// funding a listing or a cancellation.
	ChangeThreshold = uint64(456)
	// BuyChangeMargin is added to Dust to get the minimum change returned to
	// the buyer.
	BuyChangeMargin = uint64(100)

	// UtxoMoveEvent is the ledger event emitted when assets attached to a
	// coin move along with it.
	UtxoMoveEvent = "UTXO_MOVE"
	// AttachToUtxoEvent is the ledger event emitted when assets get attached
	// to a coin.
	AttachToUtxoEvent = "ATTACH_TO_UTXO"

	// LedgerProtocol is the protocol number of the asset ledger.
	LedgerProtocol = 0
	// LedgerProtocolName ...
	LedgerProtocolName = "COUNTERPARTY"
)

// EventNames lists every event kind counted for a block.
var EventNames = []string{
	"NEW_BLOCK",
	"NEW_TRANSACTION",
	"NEW_TRANSACTION_OUTPUT",
	"BLOCK_PARSED",
	"TRANSACTION_PARSED",
	"DEBIT",
	"CREDIT",
	"ENHANCED_SEND",
	"MPMA_SEND",
	"SEND",
	"ASSET_TRANSFER",
	"SWEEP",
	"ASSET_DIVIDEND",
	"RESET_ISSUANCE",
	"ASSET_CREATION",
	"ASSET_ISSUANCE",
	"ASSET_DESTRUCTION",
	"OPEN_ORDER",
	"ORDER_MATCH",
	"ORDER_UPDATE",
	"ORDER_FILLED",
	"ORDER_MATCH_UPDATE",
	"BTC_PAY",
	"CANCEL_ORDER",
	"ORDER_EXPIRATION",
	"ORDER_MATCH_EXPIRATION",
	"OPEN_DISPENSER",
	"DISPENSER_UPDATE",
	"REFILL_DISPENSER",
	"DISPENSE",
	"BROADCAST",
	"NEW_FAIRMINTER",
	"FAIRMINTER_UPDATE",
	"NEW_FAIRMINT",
	AttachToUtxoEvent,
	"DETACH_FROM_UTXO",
	UtxoMoveEvent,
	"BURN",
	"BET_EXPIRATION",
	"BET_MATCH",
	"BET_MATCH_EXPIRATION",
	"BET_MATCH_RESOLUTON",
	"BET_MATCH_UPDATE",
	"BET_UPDATE",
	"CANCEL_BET",
	"INCREMENT_TRANSACTION_COUNT",
	"INVALID_CANCEL",
	"NEW_ADDRESS_OPTIONS",
	"OPEN_BET",
	"OPEN_RPS",
	"RPS_EXPIRATION",
	"RPS_MATCH",
	"RPS_MATCH_EXPIRATION",
	"RPS_MATCH_UPDATE",
	"RPS_RESOLVE",
	"RPS_UPDATE",
}
