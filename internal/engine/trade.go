// =============================
// File: internal/engine/trade.go
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

// TradeEngine executes buys and sells against a pool ledger: precondition
// checks, curve pricing, fee routing, custody transfers and the completion
// transition. Each call is all-or-nothing: the ledger mutation persists only
// after every custody leg has cleared.
type TradeEngine struct {
	store   *store.Store
	custody *custody.Ledger
	sink    events.Sink
	logger  *zap.Logger
}

func NewTradeEngine(st *store.Store, cl *custody.Ledger, sink events.Sink, logger *zap.Logger) *TradeEngine {
	return &TradeEngine{
		store:   st,
		custody: cl,
		sink:    sink,
		logger:  logger.Named("trade"),
	}
}

// Buy spends grossQuote of the quote asset on the curve. The fee is taken on
// the input side; the remainder is priced through the curve. Returns the base
// amount paid out to the buyer.
func (e *TradeEngine) Buy(buyer, baseMint solana.PublicKey, grossQuote uint64, referrer solana.PublicKey) (uint64, error) {
	gc, err := e.store.GetGlobal()
	if err != nil {
		return 0, err
	}
	if grossQuote > gc.MaxBuyLimit {
		return 0, curve.ErrMaxBuyLimit
	}

	poolAddr, err := curve.DerivePoolAddress(baseMint, curve.NativeMint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive pool address: %w", err)
	}

	// Provision the buyer's holdings up front; pool accounts exist since creation.
	e.custody.CreateAccountIfAbsent(buyer, curve.NativeMint)
	e.custody.CreateAccountIfAbsent(buyer, baseMint)

	var baseOut uint64
	var trade events.TradeEvent
	var completed bool
	err = e.store.UpdatePool(baseMint, curve.NativeMint, func(p *curve.PoolLedger) error {
		if p.Complete {
			return curve.ErrCurveComplete
		}

		fee, err := curve.TradingFee(gc.TradingFee, grossQuote)
		if err != nil {
			return err
		}
		netInput := grossQuote - fee

		baseOut, err = p.SwapQuoteForBase(netInput)
		if err != nil {
			return err
		}

		buyerQuote := custody.AccountKey{Owner: buyer, Mint: curve.NativeMint}
		buyerBase := custody.AccountKey{Owner: buyer, Mint: baseMint}
		poolQuote := custody.AccountKey{Owner: poolAddr, Mint: curve.NativeMint}
		poolBase := custody.AccountKey{Owner: poolAddr, Mint: baseMint}

		ops := []custody.Op{custody.SyncNative{Owner: buyer, Target: grossQuote}}
		ops = append(ops, feeOps(buyerQuote, gc.FeeRecipient, referrer, fee, buyer)...)
		ops = append(ops,
			custody.Transfer{From: buyerQuote, To: poolQuote, Amount: netInput, Authorizer: buyer},
			custody.Transfer{From: poolBase, To: buyerBase, Amount: baseOut, Authorizer: poolAddr},
			// Unwrap the buyer's quote holding; the odd fee unit, if any,
			// returns to the buyer here.
			custody.CloseAccount{Owner: buyer, Beneficiary: buyer},
		)
		if err := e.custody.Execute(ops...); err != nil {
			return err
		}

		trade = events.TradeEvent{
			ID:            events.NewID(),
			User:          buyer,
			BaseMint:      p.BaseMint,
			BaseAmount:    baseOut,
			QuoteAmount:   grossQuote,
			BaseReserves:  p.TotalBaseReserves(),
			QuoteReserves: p.TotalQuoteReserves(),
			IsBuy:         true,
			Timestamp:     events.Now(),
		}

		// Checked after the trade mutation: the crossing buy itself is
		// honored at the pre-completion price.
		if p.RealQuoteReserves >= curve.RealQuoteThreshold {
			p.Complete = true
			completed = true
			e.logger.Info("Bonding curve complete",
				zap.String("base_mint", p.BaseMint.String()),
				zap.Uint64("real_quote_reserves", p.RealQuoteReserves))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Emitted only once the record is persisted; a failed call leaves no
	// trade on the outbound stream.
	e.sink.Emit(trade)
	if completed {
		e.sink.Emit(events.CompleteEvent{
			ID:        events.NewID(),
			User:      buyer,
			BaseMint:  baseMint,
			Timestamp: events.Now(),
		})
	}

	e.logger.Debug("Buy executed",
		zap.String("buyer", buyer.String()),
		zap.String("base_mint", baseMint.String()),
		zap.Uint64("gross_quote", grossQuote),
		zap.Uint64("base_out", baseOut))
	return baseOut, nil
}

// Sell returns grossBase of the base asset to the curve. The fee is taken on
// the output side, asymmetric to the buy direction. Returns the net quote
// amount paid out to the seller. Sells carry no per-call cap and never
// trigger completion.
func (e *TradeEngine) Sell(seller, baseMint solana.PublicKey, grossBase uint64, referrer solana.PublicKey) (uint64, error) {
	gc, err := e.store.GetGlobal()
	if err != nil {
		return 0, err
	}

	poolAddr, err := curve.DerivePoolAddress(baseMint, curve.NativeMint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive pool address: %w", err)
	}

	e.custody.CreateAccountIfAbsent(seller, curve.NativeMint)
	e.custody.CreateAccountIfAbsent(seller, baseMint)

	var netOutput uint64
	var trade events.TradeEvent
	err = e.store.UpdatePool(baseMint, curve.NativeMint, func(p *curve.PoolLedger) error {
		if p.Complete {
			return curve.ErrCurveComplete
		}

		grossOutput, err := p.SwapBaseForQuote(grossBase)
		if err != nil {
			return err
		}
		fee, err := curve.TradingFee(gc.TradingFee, grossOutput)
		if err != nil {
			return err
		}
		netOutput = grossOutput - fee

		sellerQuote := custody.AccountKey{Owner: seller, Mint: curve.NativeMint}
		sellerBase := custody.AccountKey{Owner: seller, Mint: baseMint}
		poolQuote := custody.AccountKey{Owner: poolAddr, Mint: curve.NativeMint}
		poolBase := custody.AccountKey{Owner: poolAddr, Mint: baseMint}

		// The fee legs run before the pool pays out, so the seller's quote
		// holding is topped up to cover them first.
		ops := []custody.Op{custody.SyncNative{Owner: seller, Target: fee}}
		ops = append(ops, feeOps(sellerQuote, gc.FeeRecipient, referrer, fee, seller)...)
		ops = append(ops,
			custody.Transfer{From: sellerBase, To: poolBase, Amount: grossBase, Authorizer: seller},
			custody.Transfer{From: poolQuote, To: sellerQuote, Amount: netOutput, Authorizer: poolAddr},
			custody.CloseAccount{Owner: seller, Beneficiary: seller},
		)
		if err := e.custody.Execute(ops...); err != nil {
			return err
		}

		trade = events.TradeEvent{
			ID:            events.NewID(),
			User:          seller,
			BaseMint:      p.BaseMint,
			BaseAmount:    grossBase,
			QuoteAmount:   netOutput,
			BaseReserves:  p.TotalBaseReserves(),
			QuoteReserves: p.TotalQuoteReserves(),
			IsBuy:         false,
			Timestamp:     events.Now(),
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.sink.Emit(trade)

	e.logger.Debug("Sell executed",
		zap.String("seller", seller.String()),
		zap.String("base_mint", baseMint.String()),
		zap.Uint64("gross_base", grossBase),
		zap.Uint64("net_quote", netOutput))
	return netOutput, nil
}

// feeOps routes the trading fee out of the trader's quote account. A burn
// referrer sends the whole fee to the fee recipient; otherwise recipient and
// referrer each get floor(fee/2) and the odd unit stays with the trader.
func feeOps(from custody.AccountKey, feeRecipient, referrer solana.PublicKey, fee uint64, authorizer solana.PublicKey) []custody.Op {
	feeAccount := custody.AccountKey{Owner: feeRecipient, Mint: curve.NativeMint}
	if referrer.Equals(curve.BurnReferrer) {
		return []custody.Op{
			custody.Transfer{From: from, To: feeAccount, Amount: fee, Authorizer: authorizer},
		}
	}
	half := fee / 2
	return []custody.Op{
		custody.Transfer{From: from, To: feeAccount, Amount: half, Authorizer: authorizer},
		custody.Transfer{From: from, To: custody.AccountKey{Owner: referrer, Mint: curve.NativeMint}, Amount: half, Authorizer: authorizer},
	}
}
