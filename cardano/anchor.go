package cardano

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/utils"
	"github.com/sirupsen/logrus"
)

const (
	fallbackRefPrefix = "fallback_"
	fallbackRefHexLen = 48
)

// Submitter anchors records on the ledger. It never fails outward for
// collaborator problems: if the anchor service is unreachable, times out or
// answers non-2xx, the caller still gets a usable reference, synthesized
// deterministically and flagged IsFallback. Fallback references are
// unverifiable until real anchoring succeeds out-of-band (see cmd/anchor-backfill).
type Submitter struct {
	cfg    config.CardanoConfig
	client *Client
	logger *logrus.Logger
}

func NewSubmitter(cfg config.CardanoConfig, client *Client, logger *logrus.Logger) *Submitter {
	return &Submitter{cfg: cfg, client: client, logger: logger}
}

// DefaultIssuerKeyHash exposes the platform issuer key for callers anchoring
// on behalf of doctors without a key of their own.
func (s *Submitter) DefaultIssuerKeyHash() string {
	return s.cfg.DefaultIssuerKeyHash
}

// Submit hashes payload, builds the datum and attempts remote anchoring.
// Only malformed caller input (non-encodable payload, bad issuer hex) is an
// error; everything else degrades to a fallback reference.
func (s *Submitter) Submit(ctx context.Context, payload map[string]any, issuerIdHex, patientId, rewardAddress string) (*AnchorReference, error) {
	digest, err := HashRecord(payload)
	if err != nil {
		return nil, err
	}
	datum, err := BuildDatum(issuerIdHex, patientId, digest, 0)
	if err != nil {
		return nil, err
	}

	txHash, err := s.client.StoreRecord(ctx, payload, datum, digest, rewardAddress)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"module":     "cardano",
			"funcName":   "Submit",
			"patient_id": patientId,
		}).Warn("anchor service unavailable; issuing fallback reference: " + err.Error())
		return &AnchorReference{
			RecordHash: digest,
			TxHash:     FallbackTxRef(digest, issuerIdHex, patientId),
			Datum:      datum,
			IsFallback: true,
		}, nil
	}

	return &AnchorReference{
		RecordHash: digest,
		TxHash:     txHash,
		Datum:      datum,
		IsFallback: false,
	}, nil
}

// Reanchor retries anchoring for a record that previously got a fallback
// reference. The digest was fixed at creation time, so it is passed in rather
// than recomputed. Unlike Submit this returns the collaborator error: the
// caller is a retry loop and wants to know it should come back later.
func (s *Submitter) Reanchor(ctx context.Context, record map[string]any, issuerIdHex, patientId, digestHex, rewardAddress string) (string, error) {
	datum, err := BuildDatum(issuerIdHex, patientId, digestHex, 0)
	if err != nil {
		return "", err
	}
	return s.client.StoreRecord(ctx, record, datum, strings.ToLower(utils.StripHexPrefix(digestHex)), rewardAddress)
}

// FallbackTxRef synthesizes a deterministic stand-in for a real transaction
// hash: same inputs always give the same reference, so a retried submission
// against a degraded ledger overwrites nothing. The prefix marks it; the hex
// tail keeps the shape downstream persistence and display code expect.
func FallbackTxRef(digestHex, issuerIdHex, patientId string) string {
	digest := strings.ToLower(utils.StripHexPrefix(digestHex))
	issuer := strings.ToLower(utils.StripHexPrefix(issuerIdHex))
	sum := sha256.Sum256([]byte(digest + issuer + patientId))
	return fallbackRefPrefix + hex.EncodeToString(sum[:])[:fallbackRefHexLen]
}

// IsFallbackRef reports whether ref was synthesized locally rather than
// returned by the ledger.
func IsFallbackRef(ref string) bool {
	return strings.HasPrefix(ref, fallbackRefPrefix)
}
