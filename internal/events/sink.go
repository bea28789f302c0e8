// =============================
// File: internal/events/sink.go
// =============================
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("events")}
}

func (s *LogSink) Emit(ev Event) {
	switch e := ev.(type) {
	case CreateEvent:
		s.logger.Info("Pool created",
			zap.String("event_id", e.ID),
			zap.String("creator", e.Creator.String()),
			zap.String("base_mint", e.BaseMint.String()),
			zap.Uint64("base_reserves", e.BaseReserves),
			zap.Uint64("quote_reserves", e.QuoteReserves))
	case TradeEvent:
		s.logger.Info("Trade executed",
			zap.String("event_id", e.ID),
			zap.String("user", e.User.String()),
			zap.String("base_mint", e.BaseMint.String()),
			zap.Bool("is_buy", e.IsBuy),
			zap.Uint64("base_amount", e.BaseAmount),
			zap.Uint64("quote_amount", e.QuoteAmount),
			zap.Uint64("base_reserves", e.BaseReserves),
			zap.Uint64("quote_reserves", e.QuoteReserves))
	case CompleteEvent:
		s.logger.Info("Bonding curve complete",
			zap.String("event_id", e.ID),
			zap.String("user", e.User.String()),
			zap.String("base_mint", e.BaseMint.String()))
	default:
		s.logger.Warn("Unknown event kind", zap.String("kind", ev.Kind()))
	}
}

// envelope is the wire form posted to the webhook.
type envelope struct {
	Kind    string `json:"kind"`
	Payload Event  `json:"payload"`
}

// WebhookSink delivers events to an HTTP endpoint from background workers.
// The queue is bounded; when it is full the event is dropped and logged,
// never blocking the trading path.
type WebhookSink struct {
	url     string
	queue   chan Event
	client  *http.Client
	logger  *zap.Logger
	maxWait time.Duration
}

func NewWebhookSink(url string, queueSize int, logger *zap.Logger) *WebhookSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &WebhookSink{
		url:     url,
		queue:   make(chan Event, queueSize),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("webhook"),
		maxWait: 30 * time.Second,
	}
}

func (s *WebhookSink) Emit(ev Event) {
	select {
	case s.queue <- ev:
	default:
		s.logger.Warn("Event queue full, dropping event", zap.String("kind", ev.Kind()))
	}
}

// Run drains the queue until ctx is cancelled.
func (s *WebhookSink) Run(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ev := <-s.queue:
					if err := s.deliver(ctx, ev); err != nil {
						s.logger.Warn("Failed to deliver event",
							zap.String("kind", ev.Kind()),
							zap.Error(err))
					}
				}
			}
		})
	}
	return g.Wait()
}

func (s *WebhookSink) deliver(ctx context.Context, ev Event) error {
	body, err := json.Marshal(envelope{Kind: ev.Kind(), Payload: ev})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	}

	_, err = backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.maxWait),
	)
	return err
}
