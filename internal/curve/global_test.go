package curve

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGlobalConfigDefaults(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	gc := NewGlobalConfig(owner)

	assert.True(t, gc.Initialized)
	assert.Equal(t, owner, gc.Owner)
	assert.Equal(t, owner, gc.FeeRecipient)
	assert.Equal(t, TotalTokenSupply, gc.TotalTokenSupply)
	assert.Equal(t, TotalTokenSupply/10*8, gc.InitRealBaseReserves)
	assert.Equal(t, TotalTokenSupply-gc.InitRealBaseReserves, gc.InitVirtBaseReserves)
	assert.Equal(t, VirtQuoteReserve, gc.InitVirtQuoteReserves)
	assert.Equal(t, DefaultTradingFee, gc.TradingFee)
	assert.Equal(t, DefaultMaxBuyLimit, gc.MaxBuyLimit)
}

func TestApplyUpdate(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	gc := NewGlobalConfig(owner)

	newOwner := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	upd := GlobalConfigUpdate{
		Owner:        newOwner,
		FeeRecipient: recipient,
		TradingFee:   2_000,
		MaxBuyLimit:  5_000_000_000,
	}

	require.NoError(t, gc.ApplyUpdate(owner, upd))
	assert.Equal(t, newOwner, gc.Owner)
	assert.Equal(t, recipient, gc.FeeRecipient)
	assert.Equal(t, uint64(2_000), gc.TradingFee)
	assert.Equal(t, uint64(5_000_000_000), gc.MaxBuyLimit)

	// the previous owner lost its authority with the overwrite
	assert.ErrorIs(t, gc.ApplyUpdate(owner, upd), ErrUnauthorised)
}

func TestApplyUpdateUninitialized(t *testing.T) {
	var gc GlobalConfig
	err := gc.ApplyUpdate(solana.NewWallet().PublicKey(), GlobalConfigUpdate{})
	assert.ErrorIs(t, err, ErrUninitialized)
}
