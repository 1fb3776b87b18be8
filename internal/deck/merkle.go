package deck

// Proof is the sibling path from a leaf to the root, bottom-up.
// Position bits decide sides during verification, so no direction
// flags are carried.
type Proof []Digest

// tree holds every layer of the Merkle tree, leaves first. Layers are
// padded to even length by duplicating the last node, which keeps
// sibling lookup uniform.
type tree struct {
	layers [][]Digest
}

func buildTree(leaves []Digest) *tree {
	layer := make([]Digest, len(leaves))
	copy(layer, leaves)

	t := &tree{}
	for {
		if len(layer) > 1 && len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1]) // odd → duplicate last
		}
		t.layers = append(t.layers, layer)
		if len(layer) == 1 {
			return t
		}
		next := make([]Digest, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next[i/2] = NodeHash(layer[i], layer[i+1])
		}
		layer = next
	}
}

func (t *tree) root() Digest {
	return t.layers[len(t.layers)-1][0]
}

// prove returns the sibling path for the leaf at idx.
func (t *tree) prove(idx int) Proof {
	proof := make(Proof, 0, len(t.layers)-1)
	for _, layer := range t.layers[:len(t.layers)-1] {
		proof = append(proof, layer[idx^1])
		idx /= 2
	}
	return proof
}

// VerifyProof checks that (card, salt) sits at position pos under root.
// This is the local counterpart of the on-chain check, used by tests
// and the audit surface.
func VerifyProof(root Digest, pos int, card Card, salt [SaltSize]byte, proof Proof) bool {
	if pos < 0 || pos >= NumCards {
		return false
	}
	h := LeafHash(card, salt)
	idx := pos
	for _, sib := range proof {
		if idx%2 == 0 {
			h = NodeHash(h, sib)
		} else {
			h = NodeHash(sib, h)
		}
		idx /= 2
	}
	return h == root
}
