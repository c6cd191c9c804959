// Package pagecursor encodes a keyset pagination position as an opaque,
// versioned token. Tokens are scoped to one collection and carry the
// last-seen sequence number; storage internals can change without breaking
// issued tokens as long as the version tag is honored.
package pagecursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const version = "v1"

var (
	ErrMalformed       = errors.New("malformed page token")
	ErrWrongCollection = errors.New("page token issued for a different collection")
)

// Encode builds a token resuming after lastSeq within collection.
func Encode(collection string, lastSeq int64) string {
	raw := fmt.Sprintf("%s|%s|%d", version, collection, lastSeq)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode returns the sequence number a scan should resume after. A token for
// another collection or with an unrecognized version tag is rejected, never
// silently reset to the start of the collection.
func Decode(collection, token string) (int64, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrMalformed
	}
	parts := strings.Split(string(data), "|")
	if len(parts) != 3 {
		return 0, ErrMalformed
	}
	if parts[0] != version {
		return 0, ErrMalformed
	}
	if parts[1] != collection {
		return 0, ErrWrongCollection
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 0 {
		return 0, ErrMalformed
	}
	return seq, nil
}
