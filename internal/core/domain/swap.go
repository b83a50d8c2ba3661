package domain

// UtxoBalance is an asset attached to a coin.
type UtxoBalance struct {
	AssetID      string `json:"assetId"`
	Qty          string `json:"qty"`
	Protocol     int    `json:"protocol"`
	ProtocolName string `json:"protocol_name"`
}

// NewUtxoBalance returns the balance of an asset of the ledger.
func NewUtxoBalance(assetID, qty string) UtxoBalance {
	return UtxoBalance{
		AssetID:      assetID,
		Qty:          qty,
		Protocol:     LedgerProtocol,
		ProtocolName: LedgerProtocolName,
	}
}

// ServiceFee is an amount paid to a third party in a swap.
type ServiceFee struct {
	Address string `json:"address"`
	Fee     uint64 `json:"fee"`
}

// AtomicSwap is a trade of assets against bitcoin settled in a single
// transaction.
type AtomicSwap struct {
	Txid        string        `json:"txid"`
	Seller      string        `json:"seller"`
	Buyer       string        `json:"buyer"`
	TotalPrice  uint64        `json:"total_price"`
	UnitPrice   uint64        `json:"unit_price"`
	Timestamp   int64         `json:"timestamp"`
	BlockIndex  uint64        `json:"block_index"`
	BlockHash   string        `json:"block_hash"`
	UtxoBalance []UtxoBalance `json:"utxo_balance"`
	ServiceFees []ServiceFee  `json:"service_fees"`
}

// HasAsset returns whether the asset moved in the swap.
func (s *AtomicSwap) HasAsset(assetID string) bool {
	for _, b := range s.UtxoBalance {
		if b.AssetID == assetID {
			return true
		}
	}
	return false
}

// Validate checks that seller and buyer differ and that both of them spend
// at least one input and receive at least one output of the transaction.
func (s *AtomicSwap) Validate(inputAddresses, outputAddresses []string) error {
	if s.Seller == "" || s.Buyer == "" || s.Seller == s.Buyer {
		return ErrInvalidSwapRoles
	}
	for _, addresses := range [][]string{inputAddresses, outputAddresses} {
		if !contains(addresses, s.Seller) || !contains(addresses, s.Buyer) {
			return ErrInvalidSwapRoles
		}
	}
	return nil
}

func contains(list []string, item string) bool {
	for _, l := range list {
		if l == item {
			return true
		}
	}
	return false
}
