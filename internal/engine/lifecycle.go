// =============================
// File: internal/engine/lifecycle.go
// =============================
package engine

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/launchlab/curvevenue/internal/curve"
	"github.com/launchlab/curvevenue/internal/custody"
	"github.com/launchlab/curvevenue/internal/events"
	"github.com/launchlab/curvevenue/internal/store"
)

// LifecycleManager creates pools and drains completed ones.
type LifecycleManager struct {
	store   *store.Store
	custody *custody.Ledger
	sink    events.Sink
	logger  *zap.Logger
}

func NewLifecycleManager(st *store.Store, cl *custody.Ledger, sink events.Sink, logger *zap.Logger) *LifecycleManager {
	return &LifecycleManager{
		store:   st,
		custody: cl,
		sink:    sink,
		logger:  logger.Named("lifecycle"),
	}
}

// CreatePool seeds a new pool ledger from the global defaults and moves the
// creator's deposits into the pool's custody accounts. Creating a pair that
// already exists is a no-op returning the existing ledger untouched.
func (m *LifecycleManager) CreatePool(creator, baseMint, quoteMint solana.PublicKey, baseDeposit, quoteDeposit uint64) (*curve.PoolLedger, error) {
	gc, err := m.store.GetGlobal()
	if err != nil {
		return nil, err
	}

	if existing, ok, err := m.store.GetPool(baseMint, quoteMint); err != nil {
		return nil, err
	} else if ok {
		m.logger.Warn("Pool already exists, skipping creation",
			zap.String("base_mint", baseMint.String()),
			zap.String("quote_mint", quoteMint.String()))
		return existing, nil
	}

	p, err := curve.NewPoolLedger(creator, baseMint, quoteMint, gc, baseDeposit, quoteDeposit)
	if err != nil {
		return nil, err
	}

	if err := m.checkDeposit(creator, baseMint, baseDeposit); err != nil {
		return nil, err
	}
	if err := m.checkDeposit(creator, quoteMint, quoteDeposit); err != nil {
		return nil, err
	}

	poolAddr, err := curve.DerivePoolAddress(baseMint, quoteMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool address: %w", err)
	}

	// The pool's custody accounts outlive every trade against it.
	m.custody.CreateAccountIfAbsent(poolAddr, baseMint)
	m.custody.CreateAccountIfAbsent(poolAddr, quoteMint)

	var ops []custody.Op
	if baseMint.Equals(curve.NativeMint) {
		ops = append(ops, custody.SyncNative{Owner: creator, Target: baseDeposit})
	}
	if quoteMint.Equals(curve.NativeMint) {
		ops = append(ops, custody.SyncNative{Owner: creator, Target: quoteDeposit})
	}
	ops = append(ops, custody.Transfer{
		From:       custody.AccountKey{Owner: creator, Mint: baseMint},
		To:         custody.AccountKey{Owner: poolAddr, Mint: baseMint},
		Amount:     baseDeposit,
		Authorizer: creator,
	})
	if quoteDeposit > 0 {
		ops = append(ops, custody.Transfer{
			From:       custody.AccountKey{Owner: creator, Mint: quoteMint},
			To:         custody.AccountKey{Owner: poolAddr, Mint: quoteMint},
			Amount:     quoteDeposit,
			Authorizer: creator,
		})
	}
	if err := m.custody.Execute(ops...); err != nil {
		return nil, err
	}

	created, err := m.store.CreatePool(p)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("pool %s created concurrently", store.PoolKey(baseMint, quoteMint))
	}

	m.sink.Emit(events.CreateEvent{
		ID:            events.NewID(),
		Creator:       creator,
		BaseMint:      baseMint,
		BaseReserves:  p.TotalBaseReserves(),
		QuoteReserves: p.TotalQuoteReserves(),
		Timestamp:     events.Now(),
	})

	m.logger.Info("Pool created",
		zap.String("creator", creator.String()),
		zap.String("base_mint", baseMint.String()),
		zap.Uint64("real_base_reserves", p.RealBaseReserves),
		zap.Uint64("virt_base_reserves", p.VirtBaseReserves),
		zap.Uint64("real_quote_reserves", p.RealQuoteReserves))
	return p, nil
}

// checkDeposit verifies the creator actually holds the declared deposit.
// Native deposits may be covered by the unwrapped native balance.
func (m *LifecycleManager) checkDeposit(creator, mint solana.PublicKey, amount uint64) error {
	available := m.custody.Balance(creator, mint)
	if mint.Equals(curve.NativeMint) {
		available += m.custody.NativeBalance(creator)
	}
	if available < amount {
		return fmt.Errorf("%w: hold %d of %s, declared %d", curve.ErrInsufficientFund, available, mint.String(), amount)
	}
	return nil
}

// Withdraw drains a completed pool to the fixed protocol authority: the full
// base holding (real plus virtual, both custody-backed) and the real quote
// reserve. The virtual quote anchor has no backing balance and never moves.
// The ledger's numeric fields are left as-is; a repeat call dies at the
// transfer step on the already-empty custody accounts.
func (m *LifecycleManager) Withdraw(caller, baseMint solana.PublicKey) (uint64, uint64, error) {
	if !caller.Equals(curve.WithdrawAuthority) {
		return 0, 0, curve.ErrUnauthorised
	}
	if _, err := m.store.GetGlobal(); err != nil {
		return 0, 0, err
	}

	p, ok, err := m.store.GetPool(baseMint, curve.NativeMint)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, fmt.Errorf("pool %s: record not found", store.PoolKey(baseMint, curve.NativeMint))
	}
	if !p.Complete {
		return 0, 0, curve.ErrCurveIncomplete
	}

	poolAddr, err := curve.DerivePoolAddress(baseMint, curve.NativeMint)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to derive pool address: %w", err)
	}

	m.custody.CreateAccountIfAbsent(caller, baseMint)
	m.custody.CreateAccountIfAbsent(caller, curve.NativeMint)

	baseAmount := p.RealBaseReserves + p.VirtBaseReserves
	quoteAmount := p.RealQuoteReserves

	err = m.custody.Execute(
		custody.Transfer{
			From:       custody.AccountKey{Owner: poolAddr, Mint: baseMint},
			To:         custody.AccountKey{Owner: caller, Mint: baseMint},
			Amount:     baseAmount,
			Authorizer: poolAddr,
		},
		custody.Transfer{
			From:       custody.AccountKey{Owner: poolAddr, Mint: curve.NativeMint},
			To:         custody.AccountKey{Owner: caller, Mint: curve.NativeMint},
			Amount:     quoteAmount,
			Authorizer: poolAddr,
		},
		custody.CloseAccount{Owner: caller, Beneficiary: caller},
	)
	if err != nil {
		return 0, 0, err
	}

	m.logger.Info("Pool drained",
		zap.String("base_mint", baseMint.String()),
		zap.Uint64("base_amount", baseAmount),
		zap.Uint64("quote_amount", quoteAmount))
	return baseAmount, quoteAmount, nil
}
