// =============================
// File: internal/curve/pool.go
// =============================
package curve

import (
	"math/big"
	"math/bits"

	"github.com/gagliardetto/solana-go"
)

// PoolLedger is the per-pair reserve record the pricing engine operates on.
// Real reserves are backed by custody balances; virtual reserves are
// accounting-only anchors fixed at creation and never transferred.
type PoolLedger struct {
	Owner             solana.PublicKey
	Konst             big.Int
	BaseMint          solana.PublicKey
	VirtBaseReserves  uint64
	RealBaseReserves  uint64
	QuoteMint         solana.PublicKey
	VirtQuoteReserves uint64
	RealQuoteReserves uint64
	Complete          bool
}

// NewPoolLedger seeds a ledger from the protocol defaults and the creator's
// deposits. The tradeable base reserve is always the protocol constant; the
// creator's excess deposit above it becomes the virtual base reserve, so a
// deposit below the constant is rejected up front.
func NewPoolLedger(owner, baseMint, quoteMint solana.PublicKey, gc *GlobalConfig, baseDeposit, quoteDeposit uint64) (*PoolLedger, error) {
	if !quoteMint.Equals(NativeMint) {
		return nil, ErrUnknownToken
	}
	if baseDeposit < gc.InitRealBaseReserves {
		return nil, ErrInsufficientFund
	}
	p := &PoolLedger{
		Owner:             owner,
		BaseMint:          baseMint,
		QuoteMint:         quoteMint,
		RealBaseReserves:  gc.InitRealBaseReserves,
		VirtBaseReserves:  baseDeposit - gc.InitRealBaseReserves,
		RealQuoteReserves: quoteDeposit,
		VirtQuoteReserves: gc.InitVirtQuoteReserves,
	}
	quoteTotal, carry := bits.Add64(p.VirtQuoteReserves, p.RealQuoteReserves, 0)
	if carry != 0 {
		return nil, ErrArithmetic
	}
	// Recorded at creation only; not re-validated after trades.
	k := new(big.Int).Mul(
		new(big.Int).SetUint64(p.RealBaseReserves),
		new(big.Int).SetUint64(quoteTotal),
	)
	p.Konst.Set(k)
	return p, nil
}

// SwapQuoteForBase prices a buy: quote in, base out. The input reserve is the
// full (virtual+real) quote side while the output reserve is only the real
// base side; the virtual base reserve never enters the formula.
func (p *PoolLedger) SwapQuoteForBase(quoteAmount uint64) (uint64, error) {
	inputReserve, carry := bits.Add64(p.VirtQuoteReserves, p.RealQuoteReserves, 0)
	if carry != 0 {
		return 0, ErrArithmetic
	}
	baseOut, err := calculateOutputAmount(quoteAmount, inputReserve, p.RealBaseReserves)
	if err != nil {
		return 0, err
	}
	if baseOut > p.RealBaseReserves {
		return 0, ErrArithmetic
	}
	newQuote, carry := bits.Add64(p.RealQuoteReserves, quoteAmount, 0)
	if carry != 0 {
		return 0, ErrArithmetic
	}
	p.RealBaseReserves -= baseOut
	p.RealQuoteReserves = newQuote
	return baseOut, nil
}

// SwapBaseForQuote prices a sell: base in, quote out. The input reserve is
// only the real base side while the output reserve is the full quote side —
// the mirror of the buy direction, deliberately not symmetric with it.
func (p *PoolLedger) SwapBaseForQuote(baseAmount uint64) (uint64, error) {
	outputReserve, carry := bits.Add64(p.VirtQuoteReserves, p.RealQuoteReserves, 0)
	if carry != 0 {
		return 0, ErrArithmetic
	}
	quoteOut, err := calculateOutputAmount(baseAmount, p.RealBaseReserves, outputReserve)
	if err != nil {
		return 0, err
	}
	// The output reserve includes the virtual anchor, so the priced output
	// can exceed what the pool actually holds.
	if quoteOut > p.RealQuoteReserves {
		return 0, ErrArithmetic
	}
	newBase, carry := bits.Add64(p.RealBaseReserves, baseAmount, 0)
	if carry != 0 {
		return 0, ErrArithmetic
	}
	p.RealBaseReserves = newBase
	p.RealQuoteReserves -= quoteOut
	return quoteOut, nil
}

// TotalBaseReserves is the reporting aggregate (real + virtual).
func (p *PoolLedger) TotalBaseReserves() uint64 {
	return p.RealBaseReserves + p.VirtBaseReserves
}

// TotalQuoteReserves is the reporting aggregate (real + virtual).
func (p *PoolLedger) TotalQuoteReserves() uint64 {
	return p.VirtQuoteReserves + p.RealQuoteReserves
}

// TradingFee computes floor(amount * rate / FeeRateDenominator) in a wide
// intermediate. A rate of 1000 is 1%. A rate that would price the fee above
// the amount itself is an arithmetic fault.
func TradingFee(rate, amount uint64) (uint64, error) {
	f := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(rate))
	f.Div(f, new(big.Int).SetUint64(FeeRateDenominator))
	if !f.IsUint64() {
		return 0, ErrArithmetic
	}
	fee := f.Uint64()
	if fee > amount {
		return 0, ErrArithmetic
	}
	return fee, nil
}

// calculateOutputAmount is the constant-product quote:
// floor(outputReserve * inputAmount / (inputReserve + inputAmount)),
// computed wide so the 64-bit factors cannot overflow.
func calculateOutputAmount(inputAmount, inputReserve, outputReserve uint64) (uint64, error) {
	den, carry := bits.Add64(inputReserve, inputAmount, 0)
	if carry != 0 {
		return 0, ErrArithmetic
	}
	if den == 0 {
		return 0, ErrArithmetic
	}
	num := new(big.Int).Mul(
		new(big.Int).SetUint64(outputReserve),
		new(big.Int).SetUint64(inputAmount),
	)
	out := num.Div(num, new(big.Int).SetUint64(den))
	if !out.IsUint64() {
		return 0, ErrArithmetic
	}
	return out.Uint64(), nil
}
