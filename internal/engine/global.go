// =============================
// File: internal/engine/global.go
// =============================
package engine

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/launchlab/curvevenue/internal/curve"
	"github.com/launchlab/curvevenue/internal/store"
)

// GlobalAdmin owns the config singleton's lifecycle: one init, then
// owner-gated full overwrites.
type GlobalAdmin struct {
	store  *store.Store
	logger *zap.Logger
}

func NewGlobalAdmin(st *store.Store, logger *zap.Logger) *GlobalAdmin {
	return &GlobalAdmin{store: st, logger: logger.Named("admin")}
}

// Init creates the global config with protocol defaults. A second call fails
// with AlreadyInitialized.
func (a *GlobalAdmin) Init(owner solana.PublicKey) (*curve.GlobalConfig, error) {
	gc := curve.NewGlobalConfig(owner)
	if err := a.store.InitGlobal(gc); err != nil {
		return nil, err
	}
	a.logger.Info("Global config initialized",
		zap.String("owner", owner.String()),
		zap.Uint64("init_real_base_reserves", gc.InitRealBaseReserves),
		zap.Uint64("init_virt_quote_reserves", gc.InitVirtQuoteReserves),
		zap.Uint64("trading_fee", gc.TradingFee))
	return gc, nil
}

// Update overwrites the mutable config fields. Only the current owner may call.
func (a *GlobalAdmin) Update(caller solana.PublicKey, upd curve.GlobalConfigUpdate) error {
	err := a.store.UpdateGlobal(func(gc *curve.GlobalConfig) error {
		return gc.ApplyUpdate(caller, upd)
	})
	if err != nil {
		return err
	}
	a.logger.Info("Global config updated",
		zap.String("owner", upd.Owner.String()),
		zap.String("fee_recipient", upd.FeeRecipient.String()),
		zap.Uint64("trading_fee", upd.TradingFee),
		zap.Uint64("max_buy_limit", upd.MaxBuyLimit))
	return nil
}
