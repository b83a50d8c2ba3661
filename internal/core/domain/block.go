package domain

// Block is the index entry of a processed height.
type Block struct {
	BlockIndex   uint64            `json:"block_index"`
	BlockHash    string            `json:"block_hash"`
	BlockTime    int64             `json:"block_time"`
	Transactions []string          `json:"transactions"`
	Events       map[string]uint64 `json:"events"`
	NTxs         int               `json:"nTxs"`
}

// NewEventCounts returns the counts of every known event kind, zero filled,
// merged with the given ones.
func NewEventCounts(counts map[string]uint64) map[string]uint64 {
	events := make(map[string]uint64, len(EventNames))
	for _, name := range EventNames {
		events[name] = 0
	}
	for name, count := range counts {
		events[name] = count
	}
	return events
}

// EventCount returns the number of events of the given kind in the block.
func (b *Block) EventCount(name string) uint64 {
	if b.Events == nil {
		return 0
	}
	return b.Events[name]
}
