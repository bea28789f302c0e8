package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookSinkDelivers(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		got.Store(string(env["kind"]))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, 8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sink.Run(ctx, 1)
	}()

	sink.Emit(CompleteEvent{
		ID:        NewID(),
		User:      solana.NewWallet().PublicKey(),
		BaseMint:  solana.NewWallet().PublicKey(),
		Timestamp: Now(),
	})

	require.Eventually(t, func() bool {
		v, ok := got.Load().(string)
		return ok && v == `"complete"`
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestWebhookSinkRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, 8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.Run(ctx, 1) }()

	sink.Emit(TradeEvent{ID: NewID(), IsBuy: true, Timestamp: Now()})

	require.Eventually(t, func() bool { return calls.Load() >= 3 },
		5*time.Second, 10*time.Millisecond)
}

func TestWebhookSinkDropsWhenFull(t *testing.T) {
	// no worker draining: the queue fills and Emit must not block
	sink := NewWebhookSink("https://example.invalid/hook", 1, zap.NewNop())

	donech := make(chan struct{})
	go func() {
		defer close(donech)
		for i := 0; i < 10; i++ {
			sink.Emit(CompleteEvent{ID: NewID()})
		}
	}()

	select {
	case <-donech:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}
}

func TestMultiSinkOrder(t *testing.T) {
	var order []string
	a := sinkFunc(func(ev Event) { order = append(order, "a:"+ev.Kind()) })
	b := sinkFunc(func(ev Event) { order = append(order, "b:"+ev.Kind()) })

	MultiSink{a, b}.Emit(CreateEvent{ID: NewID()})
	assert.Equal(t, []string{"a:create", "b:create"}, order)
}

type sinkFunc func(Event)

func (f sinkFunc) Emit(ev Event) { f(ev) }
