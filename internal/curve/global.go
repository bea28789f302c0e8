// =============================
// File: internal/curve/global.go
// =============================
package curve

import "github.com/gagliardetto/solana-go"

// GlobalConfig is the process-wide protocol record: authority, fee routing
// and the defaults every new pool is seeded from. Created once, then updated
// only by its current owner.
type GlobalConfig struct {
	Initialized           bool
	Owner                 solana.PublicKey
	FeeRecipient          solana.PublicKey
	TotalTokenSupply      uint64
	InitRealBaseReserves  uint64
	InitVirtBaseReserves  uint64
	InitVirtQuoteReserves uint64
	TradingFee            uint64
	MaxBuyLimit           uint64
}

// NewGlobalConfig seeds the singleton with protocol defaults: 80% of the
// supply becomes the tradeable reserve of every pool, the remaining 20% is
// recorded as virtual.
func NewGlobalConfig(owner solana.PublicKey) *GlobalConfig {
	gc := &GlobalConfig{
		Initialized:           true,
		Owner:                 owner,
		FeeRecipient:          owner,
		TotalTokenSupply:      TotalTokenSupply,
		InitVirtQuoteReserves: VirtQuoteReserve,
		TradingFee:            DefaultTradingFee,
		MaxBuyLimit:           DefaultMaxBuyLimit,
	}
	gc.InitRealBaseReserves = gc.TotalTokenSupply * 8 / 10
	gc.InitVirtBaseReserves = gc.TotalTokenSupply - gc.InitRealBaseReserves
	return gc
}

// GlobalConfigUpdate replaces the mutable authority and fee fields wholesale.
// There is no field-wise merge.
type GlobalConfigUpdate struct {
	Owner        solana.PublicKey
	FeeRecipient solana.PublicKey
	TradingFee   uint64
	MaxBuyLimit  uint64
}

// ApplyUpdate overwrites the mutable fields. Only the current owner may call.
func (g *GlobalConfig) ApplyUpdate(caller solana.PublicKey, upd GlobalConfigUpdate) error {
	if !g.Initialized {
		return ErrUninitialized
	}
	if !caller.Equals(g.Owner) {
		return ErrUnauthorised
	}
	g.Owner = upd.Owner
	g.FeeRecipient = upd.FeeRecipient
	g.TradingFee = upd.TradingFee
	g.MaxBuyLimit = upd.MaxBuyLimit
	return nil
}
