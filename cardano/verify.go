package cardano

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/utils"
	"github.com/sirupsen/logrus"
)

// Verifier checks an anchored record against ledger metadata. It never
// returns an error: collaborator failures and unknown references degrade to
// Verified=false with Reason populated.
type Verifier struct {
	cfg    config.CardanoConfig
	client *Client
	logger *logrus.Logger
}

func NewVerifier(cfg config.CardanoConfig, client *Client, logger *logrus.Logger) *Verifier {
	return &Verifier{cfg: cfg, client: client, logger: logger}
}

func (v *Verifier) Verify(ctx context.Context, txHash, patientId, expectedDigest string) *VerificationResult {
	res := &VerificationResult{
		TxHash:    txHash,
		PatientId: patientId,
	}

	if IsFallbackRef(txHash) {
		res.Reason = "fallback reference; record is not anchored on chain yet"
		return res
	}

	if err := v.client.GetTransaction(ctx, txHash); err != nil {
		res.Reason = v.degradeReason("GetTransaction", txHash, err)
		return res
	}

	entries, err := v.client.GetTransactionMetadata(ctx, txHash)
	if err != nil {
		res.Reason = v.degradeReason("GetTransactionMetadata", txHash, err)
		return res
	}

	var meta *AnchorMetadata
	for _, entry := range entries {
		if entry.Label != v.cfg.MetadataLabel {
			continue
		}
		var m AnchorMetadata
		if err := json.Unmarshal(entry.JSONMetadata, &m); err != nil {
			res.Reason = "malformed anchor metadata"
			return res
		}
		meta = &m
		break
	}
	if meta == nil {
		res.Reason = "transaction carries no anchor metadata (label " + v.cfg.MetadataLabel + ")"
		return res
	}

	res.ValidatorMatch = meta.AnchorValidator == v.cfg.AnchorValidatorHash
	res.HashMatch = strings.EqualFold(utils.StripHexPrefix(meta.RecordHash), utils.StripHexPrefix(expectedDigest))
	res.PatientMatch = meta.PatientId == patientId
	res.RecordHash = strings.ToLower(utils.StripHexPrefix(meta.RecordHash))
	res.IssuedAt = meta.IssuedAt
	res.Verified = res.ValidatorMatch && res.HashMatch && res.PatientMatch
	if !res.Verified {
		res.Reason = verdictReason(res)
	}
	return res
}

func (v *Verifier) degradeReason(funcName, txHash string, err error) string {
	if errors.Is(err, ErrNotFound) {
		return "transaction not found"
	}
	v.logger.WithFields(logrus.Fields{
		"module":   "cardano",
		"funcName": funcName,
		"tx_hash":  txHash,
	}).Warn("ledger query failed: " + err.Error())
	return "ledger query failed"
}

func verdictReason(res *VerificationResult) string {
	var parts []string
	if !res.ValidatorMatch {
		parts = append(parts, "validator mismatch")
	}
	if !res.HashMatch {
		parts = append(parts, "record hash mismatch")
	}
	if !res.PatientMatch {
		parts = append(parts, "patient mismatch")
	}
	return strings.Join(parts, "; ")
}
