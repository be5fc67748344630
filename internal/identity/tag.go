// Package identity implements the identity-tag codec: a deterministic,
// round-tripping encoding of the dispatcher's internal 64-bit ids that
// gets stashed inside a backend's own property map so an external rename
// doesn't sever the link between a backend schema and its store entity.
package identity

import (
	"encoding/base32"
	"strings"

	"metacat/internal/domain"
)

// encoding is a fixed base32 alphabet (Crockford-style, no padding) so
// encoded ids are short and safe inside arbitrary backend property values.
var encoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// Encode returns an injective string encoding of id.
func Encode(id uint64) string {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(id >> (56 - 8*i))
	}
	return encoding.EncodeToString(buf)
}

// Decode inverts Encode. It returns (0, false) on any malformed input
// instead of an error: spec §4.2 requires a corrupted tag to be treated
// as absent, not to fail the operation.
func Decode(s string) (uint64, bool) {
	buf, err := encoding.DecodeString(strings.ToUpper(s))
	if err != nil || len(buf) != 8 {
		return 0, false
	}
	var id uint64
	for i := 0; i < 8; i++ {
		id |= uint64(buf[i]) << (56 - 8*i)
	}
	return id, true
}

// InjectInto returns a new property map equal to props plus the reserved
// identity-tag key bound to Encode(id). On the creation path the newly
// injected value always wins over anything already present under that
// key. The input map is never mutated.
func InjectInto(props map[string]string, id uint64) map[string]string {
	out := make(map[string]string, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out[domain.IdentityTagKey] = Encode(id)
	return out
}

// Extract reads and decodes the reserved key from props, if present.
func Extract(props map[string]string) (uint64, bool) {
	v, ok := props[domain.IdentityTagKey]
	if !ok {
		return 0, false
	}
	return Decode(v)
}
