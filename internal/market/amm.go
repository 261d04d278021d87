package market

import "math/bits"

const (
	// Network fee taken off every stake before it enters the pool.
	feeNumerator   = 3
	feeDenominator = 100

	// Implied prices are basis points of the combined reserves.
	PriceScaleBps = 10000
)

// SplitFee splits a gross stake into the amount entering the pool and
// the fee. fee = floor(amount*3/100), so fee <= amount and
// net+fee == amount for every input.
func SplitFee(amount uint64) (net, fee uint64) {
	hi, lo := bits.Mul64(amount, feeNumerator)
	fee, _ = bits.Div64(hi, lo, feeDenominator)
	return amount - fee, fee
}

// SwapResult is the post-swap reserve state of a constant-product pool
// plus the outcome shares bought.
type SwapResult struct {
	SharesOut   uint64
	NewReserveA uint64
	NewReserveB uint64
}

// ApplySwap prices a stake on one outcome against the pool
// (reserveA, reserveB, k). Backing an outcome pushes the net stake
// into the opposing reserve and walks the chosen reserve down the
// curve: newChosen = floor(k / newOpposing). Floor division means
// newA*newB can only drift below k, never above it.
func ApplySwap(reserveA, reserveB, k uint64, backA bool, amountIn uint64) (SwapResult, error) {
	if reserveA == 0 || reserveB == 0 {
		return SwapResult{}, ErrInvalidShares
	}
	netIn, _ := SplitFee(amountIn)

	chosen, opposing := reserveA, reserveB
	if !backA {
		chosen, opposing = reserveB, reserveA
	}
	if netIn > opposing {
		return SwapResult{}, ErrInsufficientLiquidity
	}
	newOpposing, ok := addU64(opposing, netIn)
	if !ok {
		return SwapResult{}, ErrArithmeticOverflow
	}
	newChosen := k / newOpposing
	if newChosen > chosen {
		// Only possible when k exceeds reserveA*reserveB, which no
		// lifecycle operation produces.
		return SwapResult{}, ErrArithmeticOverflow
	}
	res := SwapResult{SharesOut: chosen - newChosen}
	if backA {
		res.NewReserveA, res.NewReserveB = newChosen, newOpposing
	} else {
		res.NewReserveA, res.NewReserveB = newOpposing, newChosen
	}
	return res, nil
}

// ImpliedPriceBps is the opposing reserve's share of the combined
// reserves in basis points, a probability-style quote for the chosen
// outcome. Both reserves must not be zero.
func ImpliedPriceBps(reserveA, reserveB uint64, backA bool) (uint64, error) {
	total, ok := addU64(reserveA, reserveB)
	if !ok {
		return 0, ErrArithmeticOverflow
	}
	if total == 0 {
		return 0, ErrInvalidShares
	}
	opposing := reserveB
	if !backA {
		opposing = reserveA
	}
	// 128-bit intermediate: opposing*10000 can exceed 64 bits. The
	// quotient is at most 10000 because opposing <= total.
	hi, lo := bits.Mul64(opposing, PriceScaleBps)
	q, _ := bits.Div64(hi, lo, total)
	return q, nil
}

// GrowLiquidity adds to both reserves and recomputes the invariant.
// Every addition and the multiplication are overflow-checked.
func GrowLiquidity(reserveA, reserveB, addA, addB uint64) (newA, newB, newK uint64, err error) {
	newA, ok := addU64(reserveA, addA)
	if !ok {
		return 0, 0, 0, ErrArithmeticOverflow
	}
	newB, ok = addU64(reserveB, addB)
	if !ok {
		return 0, 0, 0, ErrArithmeticOverflow
	}
	newK, err = InvariantFor(newA, newB)
	if err != nil {
		return 0, 0, 0, err
	}
	return newA, newB, newK, nil
}

// InvariantFor is the checked product of both reserves.
func InvariantFor(reserveA, reserveB uint64) (uint64, error) {
	hi, lo := bits.Mul64(reserveA, reserveB)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

func addU64(x, y uint64) (uint64, bool) {
	sum, carry := bits.Add64(x, y, 0)
	return sum, carry == 0
}
