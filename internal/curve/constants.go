// =============================
// File: internal/curve/constants.go
// =============================
package curve

import "github.com/gagliardetto/solana-go"

// Protocol-level identities
var (
	// NativeMint is the only quote asset the venue accepts.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// BurnReferrer marks a buy/sell with no real referrer; the whole fee
	// then goes to the fee recipient.
	BurnReferrer = solana.MustPublicKeyFromBase58("1nc1nerator11111111111111111111111111111111")

	// WithdrawAuthority is the only identity allowed to drain a completed
	// pool. Distinct from the config owner and from any pool owner.
	WithdrawAuthority = solana.MustPublicKeyFromBase58("Ah7cJFBgdUjqb2YgsaQuic5Xx5UpDiJeku5NTJMKSLmh")

	// VenueProgramID seeds pool address derivation.
	VenueProgramID = solana.MustPublicKeyFromBase58("5BXzjtQpmqdXeDNmThjDYHsjFGviDCeW58SpumTW86Fa")
)

// Economic constants
const (
	// TotalTokenSupply is the canonical base-asset issuance (1 billion, 6 decimals).
	TotalTokenSupply uint64 = 1_000_000_000_000_000

	// VirtQuoteReserve is the virtual quote anchor seeded into every new pool.
	VirtQuoteReserve uint64 = 20_000_000_000

	// RealQuoteThreshold completes the curve once real quote reserves reach it.
	RealQuoteThreshold uint64 = 60_000_000_000

	// FeeRateDenominator scales the trading fee setting: a fee of 1000 is 1%.
	FeeRateDenominator uint64 = 100_000

	DefaultTradingFee  uint64 = 1_000
	DefaultMaxBuyLimit uint64 = 1_000_000_000
)

// PoolSeed prefixes pool address derivation.
var PoolSeed = []byte("pool")

// DerivePoolAddress returns the deterministic identity that owns a pool's
// custody accounts, derived from the traded pair.
func DerivePoolAddress(baseMint, quoteMint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{PoolSeed, baseMint.Bytes(), quoteMint.Bytes()},
		VenueProgramID,
	)
	return addr, err
}
