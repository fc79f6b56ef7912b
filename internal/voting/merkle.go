package voting

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
)

// VerifyMerkleProof checks a Merkle inclusion proof delivered by the vault.
// leafHash, every proof entry and root are base64 SHA-256 digests; index is
// the leaf's position in the tree. Anything malformed is a plain
// verification failure, never a panic.
func VerifyMerkleProof(leafHash string, proof []string, root string, index int) bool {
	leaf, ok := decodeDigest(leafHash)
	if !ok {
		return false
	}
	rootBytes, ok := decodeDigest(root)
	if !ok {
		return false
	}
	siblings := make([][]byte, len(proof))
	for i, p := range proof {
		s, ok := decodeDigest(p)
		if !ok {
			return false
		}
		siblings[i] = s
	}
	return VerifyMerkleProofBytes(leaf, siblings, rootBytes, index)
}

// VerifyMerkleProofBytes folds the sibling path bottom-up. At each level the
// current hash goes left when the index is even and right when it is odd,
// then the index halves for the level above.
func VerifyMerkleProofBytes(leafHash []byte, proof [][]byte, root []byte, index int) bool {
	if len(leafHash) != sha256.Size || len(root) != sha256.Size || index < 0 {
		return false
	}
	current := leafHash
	for _, sibling := range proof {
		if len(sibling) != sha256.Size {
			return false
		}
		var h [sha256.Size]byte
		if index%2 == 0 {
			h = sha256.Sum256(append(append([]byte(nil), current...), sibling...))
		} else {
			h = sha256.Sum256(append(append([]byte(nil), sibling...), current...))
		}
		current = h[:]
		index /= 2
	}
	return bytes.Equal(current, root)
}

func decodeDigest(s string) ([]byte, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(b) != sha256.Size {
		return nil, false
	}
	return b, true
}
