package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey builds a fixed-length Redis key from caller-controlled input,
// e.g. HashKey("idem", idempotencyKey).
func HashKey(namespace, input string) string {
	sum := sha256.Sum256([]byte(input))
	return namespace + ":" + hex.EncodeToString(sum[:])
}
