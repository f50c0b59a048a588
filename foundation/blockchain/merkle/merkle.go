// Package merkle provides a merkle tree with inclusion proof support over an
// ordered list of transaction identities.
package merkle

import (
	"crypto/sha256"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotFound is returned when a proof is requested for an identity that is
// not part of the tree.
var ErrNotFound = errors.New("identity not found in tree")

// Side identifies which side of the concatenation a proof sibling sits on.
type Side string

// Set of sides a proof sibling can take.
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ProofEntry represents one step of an inclusion proof, from the leaf level
// up to the level below the root.
type ProofEntry struct {
	Sibling string `json:"sibling"`
	Side    Side   `json:"side"`
}

// =============================================================================

// Tree represents a merkle tree built over an ordered list of transaction
// identities. Leaves are the hash of each identity in list order. Adjacent
// nodes combine by hashing the concatenation of their hex strings, and a
// level with an odd number of nodes duplicates its last node before
// combining.
type Tree struct {
	ids    []string
	levels [][]string
	root   string
}

// NewTree constructs a merkle tree from the specified identities. An empty
// list produces the sentinel root, the hash of no input.
func NewTree(ids []string) *Tree {
	t := Tree{
		ids: make([]string, len(ids)),
	}
	copy(t.ids, ids)

	if len(ids) == 0 {
		t.root = hashData(nil)
		return &t
	}

	// The leaf level hashes each identity in list order.
	level := make([]string, len(ids))
	for i, id := range ids {
		level[i] = hashData([]byte(id))
	}

	// Build the levels up to the root, duplicating the last node of any
	// odd sized level so every node has a partner.
	for {
		if len(level)%2 != 0 && len(level) > 1 {
			level = append(level, level[len(level)-1])
		}
		t.levels = append(t.levels, level)

		if len(level) == 1 {
			break
		}

		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}

	t.root = t.levels[len(t.levels)-1][0]
	return &t
}

// Root returns the merkle root of the tree.
func (t *Tree) Root() string {
	return t.root
}

// Count returns the number of identities the tree was built over.
func (t *Tree) Count() int {
	return len(t.ids)
}

// Proof returns the ordered sibling/side pairs that prove the specified
// identity is part of the tree. Replaying the proof from the hash of the
// identity reproduces the root.
func (t *Tree) Proof(id string) ([]ProofEntry, error) {
	idx := -1
	for i, v := range t.ids {
		if v == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	var proof []ProofEntry
	for _, level := range t.levels[:len(t.levels)-1] {
		entry := ProofEntry{
			Sibling: level[idx^1],
			Side:    SideRight,
		}
		if idx%2 != 0 {
			entry.Side = SideLeft
		}

		proof = append(proof, entry)
		idx /= 2
	}

	return proof, nil
}

// =============================================================================

// VerifyProof replays the specified proof from the hash of the identity and
// reports whether the final value matches the root.
func VerifyProof(root string, id string, proof []ProofEntry) bool {
	current := hashData([]byte(id))

	for _, entry := range proof {
		switch entry.Side {
		case SideLeft:
			current = hashPair(entry.Sibling, current)
		case SideRight:
			current = hashPair(current, entry.Sibling)
		default:
			return false
		}
	}

	return current == root
}

// =============================================================================

// hashData returns the hex encoded hash of the specified bytes.
func hashData(data []byte) string {
	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// hashPair combines two nodes by hashing the concatenation of their
// hex strings.
func hashPair(left string, right string) string {
	return hashData([]byte(left + right))
}
