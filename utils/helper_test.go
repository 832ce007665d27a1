package utils

import (
	"regexp"
	"testing"
)

func TestGenerateHealthId(t *testing.T) {
	shape := regexp.MustCompile(`^PAT-[A-Z0-9]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := GenerateHealthId()
		if err != nil {
			t.Fatalf("GenerateHealthId: %v", err)
		}
		if !shape.MatchString(id) {
			t.Fatalf("bad shape: %q", id)
		}
		seen[id] = true
	}
	// Not a collision guarantee, just a sanity check on the keyspace.
	if len(seen) < 190 {
		t.Fatalf("too many collisions in 200 ids: %d unique", len(seen))
	}
}

func TestIsHexBytes(t *testing.T) {
	good := []string{"ab", "0xab", "A3B1", "0XA3B1", "00"}
	for _, s := range good {
		if !IsHexBytes(s) {
			t.Fatalf("%q should be hex bytes", s)
		}
	}
	bad := []string{"", "0x", "abc", "zz", "0xzz", "a b"}
	for _, s := range bad {
		if IsHexBytes(s) {
			t.Fatalf("%q should not be hex bytes", s)
		}
	}
}

func TestStripHexPrefix(t *testing.T) {
	if got := StripHexPrefix("0xabcd"); got != "abcd" {
		t.Fatalf("StripHexPrefix(0xabcd) = %q", got)
	}
	if got := StripHexPrefix("0XABCD"); got != "ABCD" {
		t.Fatalf("StripHexPrefix(0XABCD) = %q", got)
	}
	if got := StripHexPrefix("abcd"); got != "abcd" {
		t.Fatalf("StripHexPrefix(abcd) = %q", got)
	}
}
