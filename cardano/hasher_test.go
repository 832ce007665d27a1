package cardano

import (
	"errors"
	"testing"
	"time"
)

func samplePayload() map[string]any {
	return map[string]any{
		"patient_id": "PAT-7XK2M9QD",
		"full_name":  "Aung Kyaw",
		"condition":  "hypertension",
		"vitals": map[string]any{
			"bp_systolic":  float64(120),
			"bp_diastolic": float64(80),
		},
		"tags": []any{"chronic", "follow-up"},
	}
}

func TestHashRecord_Deterministic(t *testing.T) {
	first, err := HashRecord(samplePayload())
	if err != nil {
		t.Fatalf("HashRecord: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := HashRecord(samplePayload())
		if err != nil {
			t.Fatalf("HashRecord (run %d): %v", i, err)
		}
		if again != first {
			t.Fatalf("digest changed across runs: %s vs %s", first, again)
		}
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d (%s)", len(first), first)
	}
}

func TestHashRecord_KeyOrderIrrelevant(t *testing.T) {
	// Same logical content built in a different insertion order.
	a := map[string]any{"b": "2", "a": "1", "nested": map[string]any{"y": float64(2), "x": float64(1)}}
	b := map[string]any{"nested": map[string]any{"x": float64(1), "y": float64(2)}, "a": "1", "b": "2"}

	da, err := HashRecord(a)
	if err != nil {
		t.Fatalf("HashRecord(a): %v", err)
	}
	db, err := HashRecord(b)
	if err != nil {
		t.Fatalf("HashRecord(b): %v", err)
	}
	if da != db {
		t.Fatalf("key order changed the digest: %s vs %s", da, db)
	}
}

func TestHashRecord_DistinctPayloads(t *testing.T) {
	base := samplePayload()
	changed := samplePayload()
	changed["condition"] = "diabetes"

	db, err := HashRecord(base)
	if err != nil {
		t.Fatalf("HashRecord(base): %v", err)
	}
	dc, err := HashRecord(changed)
	if err != nil {
		t.Fatalf("HashRecord(changed): %v", err)
	}
	if db == dc {
		t.Fatal("different payloads produced the same digest")
	}
}

func TestHashRecord_TimeCoercion(t *testing.T) {
	// A time.Time and its RFC3339 UTC string form must hash identically,
	// independent of the zone the time was constructed in.
	loc := time.FixedZone("MMT", 6*3600+1800)
	ts := time.Date(2025, 3, 14, 15, 9, 26, 0, loc)

	withTime := map[string]any{"created_at": ts}
	withString := map[string]any{"created_at": ts.UTC().Format(time.RFC3339)}

	dt, err := HashRecord(withTime)
	if err != nil {
		t.Fatalf("HashRecord(time): %v", err)
	}
	ds, err := HashRecord(withString)
	if err != nil {
		t.Fatalf("HashRecord(string): %v", err)
	}
	if dt != ds {
		t.Fatalf("time coercion not canonical: %s vs %s", dt, ds)
	}
}

func TestHashRecord_NotEncodable(t *testing.T) {
	_, err := HashRecord(map[string]any{"bad": make(chan int)})
	if err == nil {
		t.Fatal("expected an error for a non-encodable payload")
	}
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}
