package dbbadger

import (
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

// The records stored in badger are flat copies of the domain entities,
// enriched with the fields needed by the queries.

type blockRecord struct {
	BlockIndex   uint64
	BlockHash    string
	BlockTime    int64
	Transactions []string
	Events       map[string]uint64
	NTxs         int
}

func newBlockRecord(b domain.Block) blockRecord {
	return blockRecord{
		BlockIndex:   b.BlockIndex,
		BlockHash:    b.BlockHash,
		BlockTime:    b.BlockTime,
		Transactions: b.Transactions,
		Events:       b.Events,
		NTxs:         b.NTxs,
	}
}

func (r blockRecord) toDomain() domain.Block {
	txs := r.Transactions
	if txs == nil {
		txs = make([]string, 0)
	}
	return domain.Block{
		BlockIndex:   r.BlockIndex,
		BlockHash:    r.BlockHash,
		BlockTime:    r.BlockTime,
		Transactions: txs,
		Events:       domain.NewEventCounts(r.Events),
		NTxs:         r.NTxs,
	}
}

type swapRecord struct {
	Txid        string
	Seller      string `badgerhold:"index"`
	Buyer       string `badgerhold:"index"`
	TotalPrice  uint64
	UnitPrice   uint64
	Timestamp   int64
	BlockIndex  uint64
	BlockHash   string
	UtxoBalance []domain.UtxoBalance
	ServiceFees []domain.ServiceFee
	// Assets lists the ids of UtxoBalance.
	Assets []string
}

func newSwapRecord(s domain.AtomicSwap) swapRecord {
	return swapRecord{
		Txid:        s.Txid,
		Seller:      s.Seller,
		Buyer:       s.Buyer,
		TotalPrice:  s.TotalPrice,
		UnitPrice:   s.UnitPrice,
		Timestamp:   s.Timestamp,
		BlockIndex:  s.BlockIndex,
		BlockHash:   s.BlockHash,
		UtxoBalance: s.UtxoBalance,
		ServiceFees: s.ServiceFees,
		Assets:      assetIDs(s.UtxoBalance),
	}
}

func (r swapRecord) toDomain() domain.AtomicSwap {
	return domain.AtomicSwap{
		Txid:        r.Txid,
		Seller:      r.Seller,
		Buyer:       r.Buyer,
		TotalPrice:  r.TotalPrice,
		UnitPrice:   r.UnitPrice,
		Timestamp:   r.Timestamp,
		BlockIndex:  r.BlockIndex,
		BlockHash:   r.BlockHash,
		UtxoBalance: nonNil(r.UtxoBalance),
		ServiceFees: nonNil(r.ServiceFees),
	}
}

type listingRecord struct {
	Txid        string
	Utxo        string
	Price       uint64
	Seller      string `badgerhold:"index"`
	Psbt        string
	UtxoBalance []domain.UtxoBalance
	Status      string `badgerhold:"index"`
	Timestamp   int64
	BlockIndex  uint64
	Assets      []string
}

func newListingRecord(l domain.Listing) listingRecord {
	return listingRecord{
		Txid:        l.Txid,
		Utxo:        l.Utxo,
		Price:       l.Price,
		Seller:      l.Seller,
		Psbt:        l.Psbt,
		UtxoBalance: l.UtxoBalance,
		Status:      string(l.Status),
		Timestamp:   l.Timestamp,
		BlockIndex:  l.BlockIndex,
		Assets:      assetIDs(l.UtxoBalance),
	}
}

func (r listingRecord) toDomain() domain.Listing {
	return domain.Listing{
		Txid:        r.Txid,
		Utxo:        r.Utxo,
		Price:       r.Price,
		Seller:      r.Seller,
		Psbt:        r.Psbt,
		UtxoBalance: nonNil(r.UtxoBalance),
		Status:      domain.ListingStatus(r.Status),
		Timestamp:   r.Timestamp,
		BlockIndex:  r.BlockIndex,
	}
}

func assetIDs(balances []domain.UtxoBalance) []string {
	ids := make([]string, 0, len(balances))
	for _, b := range balances {
		ids = append(ids, b.AssetID)
	}
	return ids
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return make([]T, 0)
	}
	return list
}

func toDomainList[R interface{ toDomain() T }, T any](records []R) []T {
	list := make([]T, 0, len(records))
	for _, r := range records {
		list = append(list, r.toDomain())
	}
	return list
}
