package cardano

import "errors"

var (
	// ErrEncoding marks a record payload that cannot be serialized. Caller bug.
	ErrEncoding = errors.New("payload not encodable")
	// ErrInvalidEncoding marks malformed hex input (issuer id, record hash). Caller bug.
	ErrInvalidEncoding = errors.New("invalid hex encoding")
	// ErrNotFound marks an unknown transaction or address on the ledger.
	ErrNotFound = errors.New("not found on ledger")
)

// Datum mirrors the anchoring contract's datum:
// { issuer_id: ByteArray, patient_id: ByteArray, record_hash: ByteArray, issued_at: Int }.
type Datum struct {
	IssuerId   []byte `json:"-"`
	PatientId  []byte `json:"-"`
	RecordHash []byte `json:"-"`
	IssuedAt   int64  `json:"issued_at"`
}

// wireDatum is the JSON shape sent to the anchor service (byte arrays as hex).
type wireDatum struct {
	IssuerId   string `json:"issuer_id"`
	PatientId  string `json:"patient_id"`
	RecordHash string `json:"record_hash"`
	IssuedAt   int64  `json:"issued_at"`
}

// AnchorReference is what a submission always yields, degraded or not.
// Immutable after creation; the caller persists TxHash and RecordHash
// alongside the clinical record for later verification.
type AnchorReference struct {
	RecordHash string `json:"record_hash"`
	TxHash     string `json:"tx_hash"`
	Datum      Datum  `json:"datum"`
	IsFallback bool   `json:"is_fallback"`
}

// VerificationResult reports the three sub-checks individually so a caller
// can tell "wrong contract" from "tampered digest" from "wrong patient".
type VerificationResult struct {
	Verified       bool   `json:"verified"`
	TxHash         string `json:"tx_hash"`
	RecordHash     string `json:"record_hash"`
	PatientId      string `json:"patient_id"`
	ValidatorMatch bool   `json:"validator_match"`
	HashMatch      bool   `json:"hash_match"`
	PatientMatch   bool   `json:"patient_match"`
	IssuedAt       int64  `json:"issued_at,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// AnchorMetadata is the anchoring entry written under the configured
// metadata label (CIP-20) by the anchor service.
type AnchorMetadata struct {
	AnchorValidator string `json:"anchor_validator"`
	IssuerId        string `json:"issuer_id"`
	PatientId       string `json:"patient_id"`
	RecordHash      string `json:"record_hash"`
	IssuedAt        int64  `json:"issued_at"`
}
