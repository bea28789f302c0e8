// =============================
// File: internal/custody/ledger.go
// =============================
package custody

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

var (
	ErrInsufficientBalance = errors.New("insufficient custody balance")
	ErrNotAuthorized       = errors.New("authorizer lacks rights over source account")
	ErrBalanceOverflow     = errors.New("custody balance overflow")
)

// AccountKey addresses one fungible custody account.
type AccountKey struct {
	Owner solana.PublicKey
	Mint  solana.PublicKey
}

// Ledger is an in-memory token custody service: fungible balances keyed by
// (owner, mint) plus an unwrapped native balance per owner. Mutations go
// through Execute, which applies a whole op sequence atomically — every leg
// clears against a staged view or nothing commits.
type Ledger struct {
	mu         sync.Mutex
	nativeMint solana.PublicKey
	balances   map[AccountKey]uint64
	native     map[solana.PublicKey]uint64
	logger     *zap.Logger
}

func NewLedger(nativeMint solana.PublicKey, logger *zap.Logger) *Ledger {
	return &Ledger{
		nativeMint: nativeMint,
		balances:   make(map[AccountKey]uint64),
		native:     make(map[solana.PublicKey]uint64),
		logger:     logger.Named("custody"),
	}
}

// CreateAccountIfAbsent idempotently provisions a zero-balance account.
func (l *Ledger) CreateAccountIfAbsent(owner, mint solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := AccountKey{Owner: owner, Mint: mint}
	if _, ok := l.balances[key]; !ok {
		l.balances[key] = 0
	}
}

// Balance reports the fungible balance of (owner, mint); absent accounts are zero.
func (l *Ledger) Balance(owner, mint solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[AccountKey{Owner: owner, Mint: mint}]
}

// NativeBalance reports the unwrapped native balance of an owner.
func (l *Ledger) NativeBalance(owner solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.native[owner]
}

// Mint credits a fungible balance out of thin air. Bootstrap and test hook;
// the venue itself never mints.
func (l *Ledger) Mint(owner, mint solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := AccountKey{Owner: owner, Mint: mint}
	next, carry := bits.Add64(l.balances[key], amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	l.balances[key] = next
	return nil
}

// FundNative credits an owner's unwrapped native balance.
func (l *Ledger) FundNative(owner solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, carry := bits.Add64(l.native[owner], amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	l.native[owner] = next
	return nil
}

// stage is the mutable view an op sequence runs against before commit.
type stage struct {
	nativeMint solana.PublicKey
	balances   map[AccountKey]uint64
	native     map[solana.PublicKey]uint64
}

// Op is one leg of an atomic custody sequence.
type Op interface {
	apply(s *stage) error
}

// Execute runs the ops in order against a staged copy of the ledger and
// commits only if every leg clears. A failed leg leaves the ledger untouched,
// which gives each venue operation its all-or-nothing transfer semantics.
func (l *Ledger) Execute(ops ...Op) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &stage{
		nativeMint: l.nativeMint,
		balances:   make(map[AccountKey]uint64, len(l.balances)),
		native:     make(map[solana.PublicKey]uint64, len(l.native)),
	}
	for k, v := range l.balances {
		s.balances[k] = v
	}
	for k, v := range l.native {
		s.native[k] = v
	}

	for i, op := range ops {
		if err := op.apply(s); err != nil {
			return fmt.Errorf("custody op %d: %w", i, err)
		}
	}

	l.balances = s.balances
	l.native = s.native
	return nil
}

// Transfer moves a fungible balance between custody accounts. The authorizer
// must own the source account. The destination account is provisioned on
// first use.
type Transfer struct {
	From       AccountKey
	To         AccountKey
	Amount     uint64
	Authorizer solana.PublicKey
}

func (t Transfer) apply(s *stage) error {
	if !t.Authorizer.Equals(t.From.Owner) {
		return ErrNotAuthorized
	}
	from := s.balances[t.From]
	if t.Amount > from {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, from, t.Amount)
	}
	next, carry := bits.Add64(s.balances[t.To], t.Amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	s.balances[t.From] = from - t.Amount
	s.balances[t.To] = next
	return nil
}

// SyncNative wraps an owner's native balance into their native-mint account
// until it holds at least Target.
type SyncNative struct {
	Owner  solana.PublicKey
	Target uint64
}

func (w SyncNative) apply(s *stage) error {
	key := AccountKey{Owner: w.Owner, Mint: s.nativeMint}
	held := s.balances[key]
	if held >= w.Target {
		return nil
	}
	missing := w.Target - held
	if missing > s.native[w.Owner] {
		return fmt.Errorf("%w: native %d, need %d more", ErrInsufficientBalance, s.native[w.Owner], missing)
	}
	s.native[w.Owner] -= missing
	s.balances[key] = w.Target
	return nil
}

// CloseAccount unwraps an owner's native-mint account, releasing its whole
// balance to the beneficiary's native balance.
type CloseAccount struct {
	Owner       solana.PublicKey
	Beneficiary solana.PublicKey
}

func (c CloseAccount) apply(s *stage) error {
	key := AccountKey{Owner: c.Owner, Mint: s.nativeMint}
	held := s.balances[key]
	next, carry := bits.Add64(s.native[c.Beneficiary], held, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	s.native[c.Beneficiary] = next
	delete(s.balances, key)
	return nil
}
