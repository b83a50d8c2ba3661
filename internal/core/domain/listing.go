package domain

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
	ListingStatusPending  ListingStatus = "pending"
)

// ParseListingStatus ...
func ParseListingStatus(s string) (ListingStatus, error) {
	switch status := ListingStatus(s); status {
	case ListingStatusActive, ListingStatusInactive, ListingStatusPending:
		return status, nil
	default:
		return "", ErrListingInvalidStatus
	}
}

// Listing is an offer to sell the assets attached to a coin for a price in
// satoshis. Psbt is the sell transaction signed by the seller, in hex.
type Listing struct {
	Txid        string        `json:"txid"`
	Utxo        string        `json:"utxo"`
	Price       uint64        `json:"price"`
	Seller      string        `json:"seller"`
	Psbt        string        `json:"psbt"`
	UtxoBalance []UtxoBalance `json:"utxo_balance"`
	Status      ListingStatus `json:"status"`
	Timestamp   int64         `json:"timestamp"`
	BlockIndex  uint64        `json:"block_index"`
}

// NewListing returns an active listing.
func NewListing(
	txid, utxo string, price uint64, seller, psbt string,
	balance []UtxoBalance, timestamp int64, blockIndex uint64,
) *Listing {
	return &Listing{
		Txid:        txid,
		Utxo:        utxo,
		Price:       price,
		Seller:      seller,
		Psbt:        psbt,
		UtxoBalance: balance,
		Status:      ListingStatusActive,
		Timestamp:   timestamp,
		BlockIndex:  blockIndex,
	}
}

// IsActive ...
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// Deactivate brings the listing to the terminal inactive status. It
// returns whether the status changed.
func (l *Listing) Deactivate() bool {
	if l.Status == ListingStatusInactive {
		return false
	}
	l.Status = ListingStatusInactive
	return true
}

// HasAsset returns whether the asset is attached to the listed coin.
func (l *Listing) HasAsset(assetID string) bool {
	for _, b := range l.UtxoBalance {
		if b.AssetID == assetID {
			return true
		}
	}
	return false
}
