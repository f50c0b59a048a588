// Package keystore reads the accounts folder and makes the named private
// keys available for signing.
package keystore

import (
	"crypto/ecdsa"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeyStore maintains a map of account names to private keys. Key files are
// named <account>.ecdsa.
type KeyStore struct {
	keys map[string]*ecdsa.PrivateKey
}

// New constructs a key store with the keys from the accounts folder.
func New(root string) (*KeyStore, error) {
	ks := KeyStore{
		keys: make(map[string]*ecdsa.PrivateKey),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		ks.keys[strings.TrimSuffix(path.Base(fileName), ".ecdsa")] = privateKey

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ks, nil
}

// Lookup returns the private key for the specified account name.
func (ks *KeyStore) Lookup(account string) (*ecdsa.PrivateKey, error) {
	privateKey, exists := ks.keys[account]
	if !exists {
		return nil, fmt.Errorf("account %q not found in key store", account)
	}

	return privateKey, nil
}

// Accounts returns the sorted names of the accounts in the store.
func (ks *KeyStore) Accounts() []string {
	names := make([]string, 0, len(ks.keys))
	for name := range ks.keys {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
