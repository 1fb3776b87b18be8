package deck

import "golang.org/x/crypto/sha3"

// Digest is a keccak256 output.
type Digest = [32]byte

// SaltSize is the length of the per-position blinding salt.
const SaltSize = 32

// LeafHash computes keccak256(cardID ∥ salt), the tight-packed encoding
// the on-chain verifier recomputes (abi.encodePacked(uint8, bytes32)).
func LeafHash(card Card, salt [SaltSize]byte) Digest {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{byte(card)})
	h.Write(salt[:])
	var d Digest
	h.Sum(d[:0])
	return d
}

// NodeHash computes keccak256(left ∥ right) for inner tree nodes.
func NodeHash(left, right Digest) Digest {
	h := sha3.NewLegacyKeccak256()
	h.Write(left[:])
	h.Write(right[:])
	var d Digest
	h.Sum(d[:0])
	return d
}
