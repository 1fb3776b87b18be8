// Package codec encodes archived round blobs. Canonical CBOR keeps
// the bytes deterministic so the stored checksum is reproducible from
// the decoded payload.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: canonical enc mode: %v", err))
	}
	encMode = em
}

// Marshal encodes v as canonical CBOR.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR into v.
func Unmarshal(b []byte, v interface{}) error {
	return cbor.Unmarshal(b, v)
}

// Checksum returns the blake3 digest of an encoded blob.
func Checksum(b []byte) [32]byte {
	return blake3.Sum256(b)
}
