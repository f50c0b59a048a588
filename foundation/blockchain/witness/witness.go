// Package witness maintains the store of detached transaction signatures,
// keyed by transaction identity.
package witness

import "sync"

// Store represents a mapping of transaction identity to signature bytes.
// Entries are added when a transaction is signed in detached mode and when
// a block is applied. Entries are never removed.
type Store struct {
	mu         sync.RWMutex
	signatures map[string][]byte
}

// New constructs a store for detached signatures.
func New() *Store {
	return &Store{
		signatures: make(map[string][]byte),
	}
}

// Put saves the signature for the specified transaction identity.
func (ws *Store) Put(txID string, sig []byte) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	cp := make([]byte, len(sig))
	copy(cp, sig)

	ws.signatures[txID] = cp
}

// Get returns the signature stored for the specified transaction identity.
func (ws *Store) Get(txID string) ([]byte, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	sig, exists := ws.signatures[txID]
	if !exists {
		return nil, false
	}

	cp := make([]byte, len(sig))
	copy(cp, sig)

	return cp, true
}

// Count returns the number of signatures in the store.
func (ws *Store) Count() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	return len(ws.signatures)
}
