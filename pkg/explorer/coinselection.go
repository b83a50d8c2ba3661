package explorer

// DustThreshold is the minimum value for a coin to be worth spending when
// several coins are needed to cover an amount.
const DustThreshold = uint64(546)

// SelectUnspents performs a greedy coin selection over the given list of
// utxos to cover targetAmount. The order of the list is preserved: the first
// coin that alone covers the amount is returned by itself, otherwise coins
// above the dust threshold are accumulated until the target is reached.
// The strategy does not minimize waste.
func SelectUnspents(
	utxos []Utxo,
	targetAmount uint64,
) (coins []Utxo, change uint64, err error) {
	for _, utxo := range utxos {
		if utxo.Value >= targetAmount {
			return []Utxo{utxo}, utxo.Value - targetAmount, nil
		}
	}

	selectedUtxos := make([]Utxo, 0)
	totalAmount := uint64(0)
	for _, utxo := range utxos {
		if utxo.Value <= DustThreshold {
			continue
		}
		selectedUtxos = append(selectedUtxos, utxo)
		totalAmount += utxo.Value
		if totalAmount >= targetAmount {
			return selectedUtxos, totalAmount - targetAmount, nil
		}
	}

	return nil, 0, ErrInsufficientFunds
}

// TotalValue returns the sum of the values of the given coins.
func TotalValue(utxos []Utxo) uint64 {
	total := uint64(0)
	for _, u := range utxos {
		total += u.Value
	}
	return total
}
