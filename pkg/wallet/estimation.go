package wallet

const (
	// header: version + locktime
	headerSize = 10
	// prevout + scriptsig with signature and compressed pubkey + sequence
	legacyInputSize = 148
	// prevout + empty scriptsig + sequence
	segwitInputSize = 41
	// witness stack with signature and compressed pubkey
	segwitWitnessSize = 108
	p2pkhOutputSize   = 33
	p2wshOutputSize   = 43

	witnessScaleFactor = 4
	// null-data bytes are discounted by half with respect to base bytes
	opReturnWeightPerByte = 2
	// relay policy bytes per sigop
	bytesPerSigOp = 5
)

// TxComposition describes a transaction to estimate by counting its inputs
// and outputs per kind.
type TxComposition struct {
	LegacyInputs int
	SegwitInputs int
	P2PKHOutputs int
	P2WSHOutputs int
	OpReturnSize int
	// FeeRate is expressed in sats/vbyte.
	FeeRate uint64
}

// TxEstimation is the result of EstimateTx.
type TxEstimation struct {
	BaseWeight    int    `json:"base_weight"`
	WitnessWeight int    `json:"witness_weight"`
	Weight        int    `json:"weight"`
	VSize         int    `json:"vsize"`
	SigOps        int    `json:"sigops"`
	AdjustedVSize int    `json:"adjusted_vsize"`
	Fee           uint64 `json:"fee"`
}

func (c TxComposition) isEmpty() bool {
	return c.LegacyInputs <= 0 && c.SegwitInputs <= 0 &&
		c.P2PKHOutputs <= 0 && c.P2WSHOutputs <= 0 && c.OpReturnSize <= 0
}

// EstimateTx makes an estimation of weight, virtual size and fee of a
// transaction with the given composition. The virtual size used for the fee
// is floored to the sigop-adjusted size enforced by standard relay policy.
// An empty composition always costs nothing.
func EstimateTx(c TxComposition) TxEstimation {
	if c.isEmpty() {
		return TxEstimation{}
	}

	legacyIns, segwitIns := nonNegative(c.LegacyInputs), nonNegative(c.SegwitInputs)
	p2pkhOuts, p2wshOuts := nonNegative(c.P2PKHOutputs), nonNegative(c.P2WSHOutputs)

	baseSize := headerSize +
		legacyIns*legacyInputSize +
		segwitIns*segwitInputSize +
		p2pkhOuts*p2pkhOutputSize +
		p2wshOuts*p2wshOutputSize
	baseWeight := baseSize*witnessScaleFactor +
		nonNegative(c.OpReturnSize)*opReturnWeightPerByte
	witnessWeight := segwitIns * segwitWitnessSize

	weight := baseWeight + witnessWeight
	vsize := (weight + witnessScaleFactor - 1) / witnessScaleFactor

	sigOps := legacyIns + segwitIns + p2wshOuts
	adjustedVSize := vsize
	if sigOpsVSize := sigOps * bytesPerSigOp; sigOpsVSize > adjustedVSize {
		adjustedVSize = sigOpsVSize
	}

	return TxEstimation{
		BaseWeight:    baseWeight,
		WitnessWeight: witnessWeight,
		Weight:        weight,
		VSize:         vsize,
		SigOps:        sigOps,
		AdjustedVSize: adjustedVSize,
		Fee:           uint64(adjustedVSize) * c.FeeRate,
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
