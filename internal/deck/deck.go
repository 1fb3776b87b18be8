package deck

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Commitment is the public half of a shuffled deck: everything the
// verifier needs before play starts. The hole leaf is published up
// front so the dealer's down card is bound without being revealed.
type Commitment struct {
	Root     Digest `json:"deckRoot"`
	HolePos  int    `json:"holePos"`
	HoleLeaf Digest `json:"holeLeaf"`
}

// SecretDeck is the private half: the shuffled order, the per-position
// salts, and the full tree for proof generation. It never leaves the
// process.
type SecretDeck struct {
	cards   [NumCards]Card
	salts   [NumCards][SaltSize]byte
	tree    *tree
	holePos int
}

// NewDeck shuffles a fresh deck, salts every position, and commits to
// the result. holePos is the deck position reserved for the dealer's
// hole card and is excluded from normal dealing.
func NewDeck(holePos int) (*Commitment, *SecretDeck, error) {
	if holePos < 0 || holePos >= NumCards {
		return nil, nil, fmt.Errorf("hole position %d out of range", holePos)
	}

	d := &SecretDeck{holePos: holePos}
	for i := range d.cards {
		d.cards[i] = Card(i)
	}

	// Fisher-Yates with crypto/rand. The shuffle must be unpredictable
	// to anyone holding only the commitment.
	for i := NumCards - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, nil, fmt.Errorf("shuffle draw: %w", err)
		}
		j := int(n.Int64())
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}

	leaves := make([]Digest, NumCards)
	for i := range d.salts {
		if _, err := rand.Read(d.salts[i][:]); err != nil {
			return nil, nil, fmt.Errorf("salt position %d: %w", i, err)
		}
		leaves[i] = LeafHash(d.cards[i], d.salts[i])
	}
	d.tree = buildTree(leaves)

	return &Commitment{
		Root:     d.tree.root(),
		HolePos:  holePos,
		HoleLeaf: leaves[holePos],
	}, d, nil
}

// NewArrangedDeck commits a deck with a caller-chosen order. Salts
// are still drawn fresh. For deterministic tests and replay tooling;
// production decks come from NewDeck.
func NewArrangedDeck(order [NumCards]Card, holePos int) (*Commitment, *SecretDeck, error) {
	if holePos < 0 || holePos >= NumCards {
		return nil, nil, fmt.Errorf("hole position %d out of range", holePos)
	}
	var seen [NumCards]bool
	for _, c := range order {
		if !c.Valid() || seen[c] {
			return nil, nil, fmt.Errorf("order is not a permutation of the deck")
		}
		seen[c] = true
	}

	d := &SecretDeck{holePos: holePos, cards: order}
	leaves := make([]Digest, NumCards)
	for i := range d.salts {
		if _, err := rand.Read(d.salts[i][:]); err != nil {
			return nil, nil, fmt.Errorf("salt position %d: %w", i, err)
		}
		leaves[i] = LeafHash(d.cards[i], d.salts[i])
	}
	d.tree = buildTree(leaves)

	return &Commitment{
		Root:     d.tree.root(),
		HolePos:  holePos,
		HoleLeaf: leaves[holePos],
	}, d, nil
}

// Reveal discloses one deck position: the card, its salt, and the
// inclusion proof against the committed root.
type Reveal struct {
	Pos   int            `json:"pos"`
	Card  Card           `json:"cardId"`
	Salt  [SaltSize]byte `json:"salt"`
	Proof Proof          `json:"proof"`
}

// RevealAt opens an arbitrary position. Callers deal through a Cursor;
// this is for the hole card and post-round audits.
func (d *SecretDeck) RevealAt(pos int) (Reveal, error) {
	if pos < 0 || pos >= NumCards {
		return Reveal{}, fmt.Errorf("position %d out of range", pos)
	}
	return Reveal{
		Pos:   pos,
		Card:  d.cards[pos],
		Salt:  d.salts[pos],
		Proof: d.tree.prove(pos),
	}, nil
}

// HoleReveal opens the reserved hole position.
func (d *SecretDeck) HoleReveal() Reveal {
	r, _ := d.RevealAt(d.holePos)
	return r
}

func (d *SecretDeck) HolePos() int { return d.holePos }

func (d *SecretDeck) Root() Digest { return d.tree.root() }
