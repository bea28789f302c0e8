// =============================
// File: internal/events/events.go
// =============================
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Event is one record on the venue's outbound stream. Emission is
// fire-and-forget: ordering is the emission order within a call, no
// acknowledgement flows back.
type Event interface {
	Kind() string
}

// CreateEvent records a pool creation with its seeded aggregate reserves.
type CreateEvent struct {
	ID            string           `json:"id"`
	Creator       solana.PublicKey `json:"creator"`
	BaseMint      solana.PublicKey `json:"base_mint"`
	BaseReserves  uint64           `json:"base_reserves"`
	QuoteReserves uint64           `json:"quote_reserves"`
	Timestamp     int64            `json:"timestamp"`
}

func (CreateEvent) Kind() string { return "create" }

// TradeEvent records one buy or sell with the resulting aggregate
// (real+virtual) reserves.
type TradeEvent struct {
	ID            string           `json:"id"`
	User          solana.PublicKey `json:"user"`
	BaseMint      solana.PublicKey `json:"base_mint"`
	BaseAmount    uint64           `json:"base_amount"`
	QuoteAmount   uint64           `json:"quote_amount"`
	BaseReserves  uint64           `json:"base_reserves"`
	QuoteReserves uint64           `json:"quote_reserves"`
	IsBuy         bool             `json:"is_buy"`
	Timestamp     int64            `json:"timestamp"`
}

func (TradeEvent) Kind() string { return "trade" }

// CompleteEvent records the irreversible Active→Complete transition.
type CompleteEvent struct {
	ID        string           `json:"id"`
	User      solana.PublicKey `json:"user"`
	BaseMint  solana.PublicKey `json:"base_mint"`
	Timestamp int64            `json:"timestamp"`
}

func (CompleteEvent) Kind() string { return "complete" }

// NewID tags an event record.
func NewID() string { return uuid.New().String() }

// Now is the emission timestamp (unix seconds).
func Now() int64 { return time.Now().Unix() }

// Sink consumes events. Implementations must not block the emitting call.
type Sink interface {
	Emit(ev Event)
}

// MultiSink fans one emission out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
