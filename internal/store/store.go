// =============================
// File: internal/store/store.go
// =============================
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
	"go.uber.org/zap"

	"github.com/launchlab/curvevenue/internal/curve"
)

const globalKey = "global"

// Store is the persistent record store: borsh-encoded GlobalConfig and
// PoolLedger records under string keys, with per-record write exclusivity.
// Records are mirrored to dir as fixed-layout binary files when dir is
// non-empty; an empty dir keeps the store memory-only.
type Store struct {
	mu      sync.Mutex
	dir     string
	records map[string][]byte
	locks   map[string]*sync.Mutex
	logger  *zap.Logger
}

// Open loads any records found under dir. An empty dir opens a memory-only store.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		dir:     dir,
		records: make(map[string][]byte),
		locks:   make(map[string]*sync.Mutex),
		logger:  logger.Named("store"),
	}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read record %s: %w", e.Name(), err)
		}
		// reverse of the filename mapping in write; base58 never contains '_'
		key := strings.ReplaceAll(strings.TrimSuffix(e.Name(), ".bin"), "_", ":")
		s.records[key] = data
	}
	s.logger.Info("Record store opened", zap.String("dir", dir), zap.Int("records", len(s.records)))
	return s, nil
}

// PoolKey is the store key for the ordered (base, quote) pair.
func PoolKey(baseMint, quoteMint solana.PublicKey) string {
	return "pool:" + baseMint.String() + ":" + quoteMint.String()
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) read(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[key]
	return data, ok
}

// write commits a record to disk first, then to memory. A failed file write
// surfaces as a failed call with no record change; a crash between the two
// replays the newer file on the next Open.
func (s *Store) write(key string, data []byte) error {
	if s.dir != "" {
		name := filepath.Join(s.dir, strings.ReplaceAll(key, ":", "_")+".bin")
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("failed to persist record %s: %w", key, err)
		}
	}
	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()
	return nil
}

// GetGlobal returns the decoded GlobalConfig singleton. A missing record
// surfaces as ErrUninitialized.
func (s *Store) GetGlobal() (*curve.GlobalConfig, error) {
	data, ok := s.read(globalKey)
	if !ok {
		return nil, curve.ErrUninitialized
	}
	var gc curve.GlobalConfig
	if err := borsh.Deserialize(&gc, data); err != nil {
		return nil, fmt.Errorf("failed to decode global config: %w", err)
	}
	if !gc.Initialized {
		return nil, curve.ErrUninitialized
	}
	return &gc, nil
}

// InitGlobal stores the singleton once; a second call is AlreadyInitialized.
func (s *Store) InitGlobal(gc *curve.GlobalConfig) error {
	lock := s.keyLock(globalKey)
	lock.Lock()
	defer lock.Unlock()
	if _, ok := s.read(globalKey); ok {
		return curve.ErrAlreadyInitialized
	}
	data, err := borsh.Serialize(*gc)
	if err != nil {
		return fmt.Errorf("failed to encode global config: %w", err)
	}
	return s.write(globalKey, data)
}

// UpdateGlobal runs fn against the decoded singleton under its record lock
// and persists the result only when fn succeeds.
func (s *Store) UpdateGlobal(fn func(*curve.GlobalConfig) error) error {
	lock := s.keyLock(globalKey)
	lock.Lock()
	defer lock.Unlock()
	data, ok := s.read(globalKey)
	if !ok {
		return curve.ErrUninitialized
	}
	var gc curve.GlobalConfig
	if err := borsh.Deserialize(&gc, data); err != nil {
		return fmt.Errorf("failed to decode global config: %w", err)
	}
	if err := fn(&gc); err != nil {
		return err
	}
	out, err := borsh.Serialize(gc)
	if err != nil {
		return fmt.Errorf("failed to encode global config: %w", err)
	}
	return s.write(globalKey, out)
}

// GetPool returns the decoded ledger for the pair, if present.
func (s *Store) GetPool(baseMint, quoteMint solana.PublicKey) (*curve.PoolLedger, bool, error) {
	data, ok := s.read(PoolKey(baseMint, quoteMint))
	if !ok {
		return nil, false, nil
	}
	var p curve.PoolLedger
	if err := borsh.Deserialize(&p, data); err != nil {
		return nil, false, fmt.Errorf("failed to decode pool ledger: %w", err)
	}
	return &p, true, nil
}

// CreatePool stores a new ledger. It reports created=false without touching
// the record when the pair already exists; an existing ledger is never
// re-initialized.
func (s *Store) CreatePool(p *curve.PoolLedger) (bool, error) {
	key := PoolKey(p.BaseMint, p.QuoteMint)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	if _, ok := s.read(key); ok {
		return false, nil
	}
	data, err := borsh.Serialize(*p)
	if err != nil {
		return false, fmt.Errorf("failed to encode pool ledger: %w", err)
	}
	if err := s.write(key, data); err != nil {
		return false, err
	}
	return true, nil
}

// UpdatePool runs fn against the decoded ledger under the pair's record lock.
// The mutated ledger is persisted only when fn returns nil; any error
// discards the whole mutation, so a failed trade leaves no partial state.
func (s *Store) UpdatePool(baseMint, quoteMint solana.PublicKey, fn func(*curve.PoolLedger) error) error {
	key := PoolKey(baseMint, quoteMint)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	data, ok := s.read(key)
	if !ok {
		return fmt.Errorf("pool %s: record not found", key)
	}
	var p curve.PoolLedger
	if err := borsh.Deserialize(&p, data); err != nil {
		return fmt.Errorf("failed to decode pool ledger: %w", err)
	}
	if err := fn(&p); err != nil {
		return err
	}
	out, err := borsh.Serialize(p)
	if err != nil {
		return fmt.Errorf("failed to encode pool ledger: %w", err)
	}
	return s.write(key, out)
}
