// =============================
// File: internal/venue/venue.go
// =============================
package venue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/launchlab/curvevenue/internal/config"
	"github.com/launchlab/curvevenue/internal/curve"
	"github.com/launchlab/curvevenue/internal/custody"
	"github.com/launchlab/curvevenue/internal/engine"
	"github.com/launchlab/curvevenue/internal/events"
	"github.com/launchlab/curvevenue/internal/store"
)

// Venue ties the record store, custody ledger, event sinks and engines into
// the six operation entry points: init config, update config, create pool,
// buy, sell, withdraw.
type Venue struct {
	Admin     *engine.GlobalAdmin
	Trades    *engine.TradeEngine
	Lifecycle *engine.LifecycleManager
	Custody   *custody.Ledger
	Store     *store.Store
	Bus       *events.Bus

	webhook *events.WebhookSink
	workers int
	logger  *zap.Logger
}

// New wires a venue from process configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Venue, error) {
	st, err := store.Open(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	ledger := custody.NewLedger(curve.NativeMint, logger)

	bus := events.NewBus(logger, cfg.WebhookQueue)
	sinks := events.MultiSink{events.NewLogSink(logger), bus}
	var webhook *events.WebhookSink
	if cfg.WebhookURL != "" {
		webhook = events.NewWebhookSink(cfg.WebhookURL, cfg.WebhookQueue, logger)
		sinks = append(sinks, webhook)
	}

	return &Venue{
		Admin:     engine.NewGlobalAdmin(st, logger),
		Trades:    engine.NewTradeEngine(st, ledger, sinks, logger),
		Lifecycle: engine.NewLifecycleManager(st, ledger, sinks, logger),
		Custody:   ledger,
		Store:     st,
		Bus:       bus,
		webhook:   webhook,
		workers:   cfg.Workers,
		logger:    logger.Named("venue"),
	}, nil
}

// InitIfNeeded initializes the global config under the given owner unless a
// previous run already did.
func (v *Venue) InitIfNeeded(owner solana.PublicKey) error {
	_, err := v.Admin.Init(owner)
	if errors.Is(err, curve.ErrAlreadyInitialized) {
		v.logger.Info("Global config already initialized")
		return nil
	}
	return err
}

// Run blocks until ctx is cancelled, keeping the outbound event pipeline
// draining in the background.
func (v *Venue) Run(ctx context.Context) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := v.Bus.Shutdown(shutdownCtx); err != nil {
			v.logger.Warn("Event bus shutdown incomplete", zap.Error(err))
		}
	}()

	if v.webhook == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return v.webhook.Run(ctx, v.workers)
}
