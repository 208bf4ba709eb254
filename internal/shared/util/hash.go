package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RangeHash fingerprints an annotation range. It covers the document, the
// exact byte offsets, and the author, and deliberately excludes the body and
// the quote selector: editing the body must not change annotation identity,
// and two annotations with identical offsets but different anchor text are
// treated as duplicates.
func RangeHash(documentID string, start, end int, userID string) string {
	input := fmt.Sprintf("%s:%d:%d:%s", documentID, start, end, userID)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
