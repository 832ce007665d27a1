package cardano

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const (
	testTxHash = "1f2e3d4c5b6a79880102030405060708090a0b0c0d0e0f1011121314151617ff"
	testDigest = "a3b1c5d7e9f1023456789abcdef0123456789abcdef0123456789abcdef01234"
)

// fakeBlockfrost serves /txs/{hash} and /txs/{hash}/metadata for one known
// transaction.
func fakeBlockfrost(t *testing.T, meta AnchorMetadata, label string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/txs/" + testTxHash:
			_, _ = w.Write([]byte(`{"hash":"` + testTxHash + `"}`))
		case "/txs/" + testTxHash + "/metadata":
			raw, _ := json.Marshal(meta)
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"label": label, "json_metadata": json.RawMessage(raw)},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func anchoredMetadata(cfg testMetaConfig) AnchorMetadata {
	return AnchorMetadata{
		AnchorValidator: cfg.validator,
		IssuerId:        testIssuerHex,
		PatientId:       cfg.patientId,
		RecordHash:      cfg.recordHash,
		IssuedAt:        1700000000,
	}
}

type testMetaConfig struct {
	validator  string
	patientId  string
	recordHash string
}

func TestVerify_AllChecksPass(t *testing.T) {
	cfg := testCardanoConfig("http://127.0.0.1:1", "")
	srv := fakeBlockfrost(t, anchoredMetadata(testMetaConfig{
		validator:  cfg.AnchorValidatorHash,
		patientId:  "PAT-TEST0001",
		recordHash: testDigest,
	}), cfg.MetadataLabel)
	defer srv.Close()
	cfg.BlockfrostURL = srv.URL

	v := NewVerifier(cfg, NewClient(cfg), testLogger())
	res := v.Verify(context.Background(), testTxHash, "PAT-TEST0001", testDigest)

	if !res.Verified {
		t.Fatalf("expected verified, got %+v", res)
	}
	if !res.ValidatorMatch || !res.HashMatch || !res.PatientMatch {
		t.Fatalf("sub-checks: %+v", res)
	}
	if res.IssuedAt != 1700000000 {
		t.Fatalf("issued_at: %d", res.IssuedAt)
	}
	if res.Reason != "" {
		t.Fatalf("unexpected reason: %q", res.Reason)
	}
}

func TestVerify_HashCaseAndPrefixInsensitive(t *testing.T) {
	cfg := testCardanoConfig("http://127.0.0.1:1", "")
	srv := fakeBlockfrost(t, anchoredMetadata(testMetaConfig{
		validator:  cfg.AnchorValidatorHash,
		patientId:  "PAT-TEST0001",
		recordHash: "0x" + strings.ToUpper(testDigest),
	}), cfg.MetadataLabel)
	defer srv.Close()
	cfg.BlockfrostURL = srv.URL

	v := NewVerifier(cfg, NewClient(cfg), testLogger())
	res := v.Verify(context.Background(), testTxHash, "PAT-TEST0001", testDigest)
	if !res.Verified {
		t.Fatalf("hex case/prefix should not matter: %+v", res)
	}
	if res.RecordHash != testDigest {
		t.Fatalf("normalized record hash: %q", res.RecordHash)
	}
}

func TestVerify_EachMismatchFlipsItsCheck(t *testing.T) {
	baseCfg := testCardanoConfig("http://127.0.0.1:1", "")
	otherDigest := strings.Repeat("ab", 32)

	cases := []struct {
		name      string
		meta      testMetaConfig
		wantVal   bool
		wantHash  bool
		wantPat   bool
		reasonHas string
	}{
		{
			name: "wrong validator",
			meta: testMetaConfig{
				validator:  strings.Repeat("00", 28),
				patientId:  "PAT-TEST0001",
				recordHash: testDigest,
			},
			wantVal: false, wantHash: true, wantPat: true,
			reasonHas: "validator mismatch",
		},
		{
			name: "wrong hash",
			meta: testMetaConfig{
				validator:  baseCfg.AnchorValidatorHash,
				patientId:  "PAT-TEST0001",
				recordHash: otherDigest,
			},
			wantVal: true, wantHash: false, wantPat: true,
			reasonHas: "record hash mismatch",
		},
		{
			name: "wrong patient",
			meta: testMetaConfig{
				validator:  baseCfg.AnchorValidatorHash,
				patientId:  "PAT-SOMEBODY",
				recordHash: testDigest,
			},
			wantVal: true, wantHash: true, wantPat: false,
			reasonHas: "patient mismatch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseCfg
			srv := fakeBlockfrost(t, anchoredMetadata(tc.meta), cfg.MetadataLabel)
			defer srv.Close()
			cfg.BlockfrostURL = srv.URL

			v := NewVerifier(cfg, NewClient(cfg), testLogger())
			res := v.Verify(context.Background(), testTxHash, "PAT-TEST0001", testDigest)

			if res.Verified {
				t.Fatalf("expected not verified: %+v", res)
			}
			if res.ValidatorMatch != tc.wantVal || res.HashMatch != tc.wantHash || res.PatientMatch != tc.wantPat {
				t.Fatalf("sub-checks: %+v", res)
			}
			if !strings.Contains(res.Reason, tc.reasonHas) {
				t.Fatalf("reason %q missing %q", res.Reason, tc.reasonHas)
			}
		})
	}
}

func TestVerify_WrongLabelMeansNoAnchor(t *testing.T) {
	cfg := testCardanoConfig("http://127.0.0.1:1", "")
	srv := fakeBlockfrost(t, anchoredMetadata(testMetaConfig{
		validator:  cfg.AnchorValidatorHash,
		patientId:  "PAT-TEST0001",
		recordHash: testDigest,
	}), "721")
	defer srv.Close()
	cfg.BlockfrostURL = srv.URL

	v := NewVerifier(cfg, NewClient(cfg), testLogger())
	res := v.Verify(context.Background(), testTxHash, "PAT-TEST0001", testDigest)
	if res.Verified {
		t.Fatalf("expected not verified: %+v", res)
	}
	if !strings.Contains(res.Reason, "no anchor metadata") {
		t.Fatalf("reason: %q", res.Reason)
	}
}

func TestVerify_UnknownTransaction(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testCardanoConfig("http://127.0.0.1:1", srv.URL)
	v := NewVerifier(cfg, NewClient(cfg), testLogger())
	res := v.Verify(context.Background(), testTxHash, "PAT-TEST0001", testDigest)
	if res.Verified {
		t.Fatal("expected not verified")
	}
	if res.Reason != "transaction not found" {
		t.Fatalf("reason: %q", res.Reason)
	}
}

func TestVerify_LedgerOutageDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testCardanoConfig("http://127.0.0.1:1", srv.URL)
	v := NewVerifier(cfg, NewClient(cfg), testLogger())
	res := v.Verify(context.Background(), testTxHash, "PAT-TEST0001", testDigest)
	if res.Verified {
		t.Fatal("expected not verified")
	}
	if res.Reason != "ledger query failed" {
		t.Fatalf("reason: %q", res.Reason)
	}
}

func TestVerify_FallbackRefShortCircuits(t *testing.T) {
	// No server at all: a fallback ref must never hit the ledger.
	cfg := testCardanoConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	v := NewVerifier(cfg, NewClient(cfg), testLogger())

	ref := FallbackTxRef(testDigest, testIssuerHex, "PAT-TEST0001")
	res := v.Verify(context.Background(), ref, "PAT-TEST0001", testDigest)
	if res.Verified {
		t.Fatal("fallback refs are unverifiable")
	}
	if !strings.Contains(res.Reason, "fallback") {
		t.Fatalf("reason: %q", res.Reason)
	}
}
