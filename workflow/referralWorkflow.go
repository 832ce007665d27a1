package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/models"
	"github.com/carebridge-health/carechain_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInvalidReferralStatus = errors.New("invalid referral status")

type NewReferral struct {
	PatientRecordId int    `json:"patient_record_id" binding:"required"`
	ToHospital      string `json:"to_hospital" binding:"required"`
	Summary         string `json:"summary" binding:"required"`
	Notes           string `json:"notes"`
}

// CreateReferral creates a pending referral and credits the referring doctor
// with the fixed referral reward. clientToken is the caller's idempotency
// token; when present the credit is keyed on it, so a retried request
// cannot double-credit. Without a token the key falls back to the referral
// id, which only guards in-transaction replays.
func CreateReferral(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, rw config.RewardConfig, minter Minter,
	doctorId int, input NewReferral, clientToken string, now time.Time) (*models.Referral, *CreditResult, error) {

	var patient models.PatientRecord
	if err := tx.Where("id = ?", input.PatientRecordId).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.ErrorRecordNotFound
		}
		return nil, nil, err
	}

	referral := models.Referral{
		PatientRecordId: input.PatientRecordId,
		FromDoctorId:    doctorId,
		ToHospital:      input.ToHospital,
		Summary:         input.Summary,
		Notes:           input.Notes,
		Status:          models.ReferralStatusPending,
	}
	if err := tx.Create(&referral).Error; err != nil {
		return nil, nil, err
	}

	description := fmt.Sprintf("Referral created for %s to %s", patient.HealthId, input.ToHospital)
	messageId := CreditMessageId("referral", clientToken, fmt.Sprintf("%d", referral.ID))
	credit, err := CreditCarePoints(ctx, tx, logger, rw, minter,
		doctorId, models.CarePointsTransactionTypeReferral,
		messageId, description, now)
	if err != nil {
		return nil, nil, err
	}

	return &referral, credit, nil
}

// UpdateReferralStatus sets the caller-supplied status and appends notes.
// Statuses must be one of the known values, but transitions are deliberately
// permissive: the observed product behavior accepts any ordering, and
// enforcing pending -> accepted -> completed here would reject flows the
// clinics currently rely on. Notes are appended, never overwritten.
func UpdateReferralStatus(tx *gorm.DB, doctorId, referralId int, status models.ReferralStatus, notes string) (*models.Referral, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReferralStatus, status)
	}

	referral, err := models.GetReferralById(tx, referralId, doctorId)
	if err != nil {
		return nil, err
	}

	referral.Status = status
	referral.Notes = AppendNotes(referral.Notes, notes)
	if err := tx.Save(referral).Error; err != nil {
		return nil, err
	}
	return referral, nil
}

// AppendNotes joins the existing notes and the addition with a newline.
func AppendNotes(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + "\n" + addition
}
