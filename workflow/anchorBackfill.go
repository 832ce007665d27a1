package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/carebridge-health/carechain_backend/cardano"
	"github.com/carebridge-health/carechain_backend/models"
)

// AnchorBackfill retries real anchoring for records that were created with a
// fallback reference during a ledger outage. It polls in the background and
// promotes rows one by one; a record that still cannot be anchored just stays
// on its fallback reference until the next pass.
type AnchorBackfill struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	Submitter *cardano.Submitter

	BatchSize    int
	PollInterval time.Duration
}

func NewAnchorBackfill(db *gorm.DB, logger *logrus.Logger, submitter *cardano.Submitter) *AnchorBackfill {
	return &AnchorBackfill{
		DB:           db,
		Logger:       logger,
		Submitter:    submitter,
		BatchSize:    25,
		PollInterval: 10 * time.Minute,
	}
}

func (b *AnchorBackfill) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		b.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.PollInterval):
		}
	}
}

// RunOnce processes a single batch and reports how many records were promoted
// to real anchors. Also used directly by cmd/anchor-backfill.
func (b *AnchorBackfill) RunOnce(ctx context.Context) int {
	db := b.DB
	if db == nil {
		return 0
	}

	records, err := models.ListFallbackAnchoredRecords(db.WithContext(ctx), b.BatchSize)
	if err != nil {
		b.Logger.WithFields(logrus.Fields{
			"module":   "workflow",
			"funcName": "RunOnce",
		}).Warn("could not list fallback-anchored records: " + err.Error())
		return 0
	}

	promoted := 0
	for i := range records {
		rec := &records[i]
		if err := b.reanchor(ctx, rec); err != nil {
			b.Logger.WithFields(logrus.Fields{
				"module":    "workflow",
				"funcName":  "RunOnce",
				"health_id": rec.HealthId,
			}).Warn("re-anchoring failed; will retry on the next pass: " + err.Error())
			continue
		}
		promoted++
	}
	return promoted
}

func (b *AnchorBackfill) reanchor(ctx context.Context, rec *models.PatientRecord) error {
	doctor, err := models.GetDoctorProfileById(b.DB, rec.CreatedByDoctorId)
	if err != nil {
		return err
	}

	issuer := doctor.IssuerKeyHash
	if strings.TrimSpace(issuer) == "" {
		issuer = b.Submitter.DefaultIssuerKeyHash()
	}

	// The original payload is gone; the anchor carries the stored digest, so
	// the record body sent along is informational only.
	record := map[string]any{
		"patient_id": rec.HealthId,
		"full_name":  rec.FullName,
		"condition":  rec.Condition,
	}
	txHash, err := b.Submitter.Reanchor(ctx, record, issuer, rec.HealthId, rec.RecordHash, doctor.CardanoAddress)
	if err != nil {
		return err
	}

	return b.DB.WithContext(ctx).Model(&models.PatientRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"anchor_tx_hash":     txHash,
			"is_fallback_anchor": false,
		}).Error
}
