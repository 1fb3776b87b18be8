package codec

import (
	"bytes"
	"testing"
)

type sample struct {
	RoundID string `cbor:"round_id"`
	Pos     []int  `cbor:"pos"`
	Doubled bool   `cbor:"doubled"`
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sample{RoundID: "r-1", Pos: []int{0, 1, 2, 4}, Doubled: true}

	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out sample
	if err := Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.RoundID != in.RoundID || out.Doubled != in.Doubled || len(out.Pos) != len(in.Pos) {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	in := sample{RoundID: "r-2", Pos: []int{5, 6}, Doubled: false}

	a, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding produced different bytes for equal values")
	}
	if Checksum(a) != Checksum(b) {
		t.Error("checksums differ for identical blobs")
	}
}
