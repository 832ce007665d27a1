package cardano

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// HashRecord computes the record digest: the payload is canonicalized
// (RFC 8785 key ordering and number forms, dates coerced to a fixed string
// form) and the canonical bytes are hashed with SHA-256. The digest is
// returned as lowercase hex without a "0x" prefix.
//
// Identical payloads always produce identical digests, across process runs
// and regardless of map iteration order.
func HashRecord(payload map[string]any) (string, error) {
	raw, err := json.Marshal(normalizeValue(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// normalizeValue coerces non-primitive leaves to a stable string form before
// serialization. Key ordering is left to jcs; only value representation is
// handled here.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case fmt.Stringer:
		return t.String()
	default:
		// Primitives pass through; anything json.Marshal cannot handle
		// surfaces as ErrEncoding in HashRecord.
		return v
	}
}
