package domain

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const conversationKeyPrefix = "dm_"

// CanonicalIdentity normalizes an email identity for keying and comparison.
func CanonicalIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// ConversationKey derives the conversation id for an unordered pair of
// identities. Each identity is length-prefixed before hashing so that no two
// distinct pairs share an input.
func ConversationKey(a, b string) string {
	a, b = CanonicalIdentity(a), CanonicalIdentity(b)
	if b < a {
		a, b = b, a
	}

	buf := make([]byte, 0, 16+len(a)+len(b))
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(a)))
	buf = append(buf, a...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(b)))
	buf = append(buf, b...)

	sum := blake2b.Sum256(buf)
	return conversationKeyPrefix + hex.EncodeToString(sum[:])
}
