package custody

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var nativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(nativeMint, zap.NewNop())
}

func TestTransfer(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	require.NoError(t, l.Mint(alice, mint, 1_000))

	err := l.Execute(Transfer{
		From:       AccountKey{Owner: alice, Mint: mint},
		To:         AccountKey{Owner: bob, Mint: mint},
		Amount:     400,
		Authorizer: alice,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(600), l.Balance(alice, mint))
	assert.Equal(t, uint64(400), l.Balance(bob, mint))
}

func TestTransferUnauthorized(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()
	mallory := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	require.NoError(t, l.Mint(alice, mint, 1_000))

	err := l.Execute(Transfer{
		From:       AccountKey{Owner: alice, Mint: mint},
		To:         AccountKey{Owner: mallory, Mint: mint},
		Amount:     1,
		Authorizer: mallory,
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, uint64(1_000), l.Balance(alice, mint))
}

func TestExecuteAtomicity(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	require.NoError(t, l.Mint(alice, mint, 500))

	// first leg clears on the staged view, second leg overdraws; nothing
	// may commit
	err := l.Execute(
		Transfer{
			From:       AccountKey{Owner: alice, Mint: mint},
			To:         AccountKey{Owner: bob, Mint: mint},
			Amount:     500,
			Authorizer: alice,
		},
		Transfer{
			From:       AccountKey{Owner: alice, Mint: mint},
			To:         AccountKey{Owner: bob, Mint: mint},
			Amount:     1,
			Authorizer: alice,
		},
	)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(500), l.Balance(alice, mint), "failed sequence must leave the ledger untouched")
	assert.Equal(t, uint64(0), l.Balance(bob, mint))
}

func TestSyncNative(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()

	require.NoError(t, l.FundNative(alice, 1_000))

	require.NoError(t, l.Execute(SyncNative{Owner: alice, Target: 700}))
	assert.Equal(t, uint64(700), l.Balance(alice, nativeMint))
	assert.Equal(t, uint64(300), l.NativeBalance(alice))

	// already at target, no further native is pulled
	require.NoError(t, l.Execute(SyncNative{Owner: alice, Target: 600}))
	assert.Equal(t, uint64(700), l.Balance(alice, nativeMint))
	assert.Equal(t, uint64(300), l.NativeBalance(alice))

	err := l.Execute(SyncNative{Owner: alice, Target: 2_000})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCloseAccount(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()

	require.NoError(t, l.FundNative(alice, 1_000))
	require.NoError(t, l.Execute(SyncNative{Owner: alice, Target: 1_000}))

	require.NoError(t, l.Execute(CloseAccount{Owner: alice, Beneficiary: alice}))
	assert.Equal(t, uint64(0), l.Balance(alice, nativeMint))
	assert.Equal(t, uint64(1_000), l.NativeBalance(alice), "residual wrapped balance returns on close")
}

func TestCreateAccountIfAbsent(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	l.CreateAccountIfAbsent(alice, mint)
	assert.Zero(t, l.Balance(alice, mint))

	require.NoError(t, l.Mint(alice, mint, 250))
	// provisioning an existing account never clobbers its balance
	l.CreateAccountIfAbsent(alice, mint)
	assert.Equal(t, uint64(250), l.Balance(alice, mint))
}
