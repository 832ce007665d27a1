package cardano

import (
	"encoding/hex"
	"errors"
	"testing"
)

const testIssuerHex = "08ee30a2e0e28b3eaf109642374971c5aa4675f5a0ff71dc8d5988ae"

func TestBuildDatum_StripsHexPrefix(t *testing.T) {
	digest := "a3b1c5d7e9f1023456789abcdef0123456789abcdef0123456789abcdef01234"

	plain, err := BuildDatum(testIssuerHex, "PAT-AAAA1111", digest, 1700000000)
	if err != nil {
		t.Fatalf("BuildDatum: %v", err)
	}
	prefixed, err := BuildDatum("0x"+testIssuerHex, "PAT-AAAA1111", "0x"+digest, 1700000000)
	if err != nil {
		t.Fatalf("BuildDatum (0x): %v", err)
	}

	if hex.EncodeToString(plain.IssuerId) != hex.EncodeToString(prefixed.IssuerId) {
		t.Fatal("0x prefix changed issuer bytes")
	}
	if hex.EncodeToString(plain.RecordHash) != hex.EncodeToString(prefixed.RecordHash) {
		t.Fatal("0x prefix changed record hash bytes")
	}
	if string(plain.PatientId) != "PAT-AAAA1111" {
		t.Fatalf("patient id bytes: %q", plain.PatientId)
	}
	if plain.IssuedAt != 1700000000 {
		t.Fatalf("issued at: %d", plain.IssuedAt)
	}
}

func TestBuildDatum_RejectsBadHex(t *testing.T) {
	digest := "a3b1c5d7e9f1023456789abcdef0123456789abcdef0123456789abcdef01234"

	if _, err := BuildDatum("zzzz", "PAT-AAAA1111", digest, 0); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("bad issuer hex: expected ErrInvalidEncoding, got %v", err)
	}
	if _, err := BuildDatum(testIssuerHex, "PAT-AAAA1111", "abc", 0); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("odd-length digest: expected ErrInvalidEncoding, got %v", err)
	}
	if _, err := BuildDatum("", "PAT-AAAA1111", digest, 0); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("empty issuer: expected ErrInvalidEncoding, got %v", err)
	}
}

func TestBuildDatum_DefaultsIssuedAt(t *testing.T) {
	digest := "a3b1c5d7e9f1023456789abcdef0123456789abcdef0123456789abcdef01234"
	d, err := BuildDatum(testIssuerHex, "PAT-AAAA1111", digest, 0)
	if err != nil {
		t.Fatalf("BuildDatum: %v", err)
	}
	if d.IssuedAt <= 0 {
		t.Fatalf("expected issued_at to default to now, got %d", d.IssuedAt)
	}
}
