package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const healthIdAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateHealthId returns a patient health id of the form PAT-XXXXXXXX.
// Uniqueness is enforced by the caller against the patient_records table.
func GenerateHealthId() (string, error) {
	var sb strings.Builder
	sb.WriteString("PAT-")
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(healthIdAlphabet))))
		if err != nil {
			return "", fmt.Errorf("health id generation: %w", err)
		}
		sb.WriteByte(healthIdAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// IsHexBytes reports whether s is a valid hex-encoded byte string of even
// length, optionally "0x"-prefixed. Empty strings are not valid.
func IsHexBytes(s string) bool {
	s = StripHexPrefix(s)
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func StripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

func SplitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
