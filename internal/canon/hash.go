package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// encoding to change without colliding with stored hashes.
const (
	DomainState   = "slicemap/state/v1"
	DomainPayload = "slicemap/payload/v1"
)

// Hash computes SHA256(domain + 0x00 + Marshal(v)) as lowercase hex.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashBytes(domain, data), nil
}

// HashBytes hashes already canonical bytes with domain separation.
// The null separator keeps domain and data from running together.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash hashes a state snapshot.
func StateHash(state any) (string, error) {
	return Hash(DomainState, state)
}
