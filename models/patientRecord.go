package models

import (
	"errors"
	"time"

	"github.com/carebridge-health/carechain_backend/utils"
	"gorm.io/gorm"
)

// PatientRecord persists the anchored clinical record reference. RecordHash
// and AnchorTxHash are written once at creation; AnchorTxHash may be replaced
// by a real reference later when a fallback anchor is re-submitted
// out-of-band (cmd/anchor-backfill).
type PatientRecord struct {
	ID               int    `gorm:"primary_key" json:"id"`
	HealthId         string `gorm:"size:16;uniqueIndex;not null" json:"health_id"`
	FullName         string `gorm:"size:100;not null" json:"full_name"`
	EmergencyContact string `gorm:"size:50" json:"emergency_contact"`
	Condition        string `gorm:"size:255" json:"condition"`
	Notes            string `gorm:"type:text" json:"notes"`

	RecordHash       string `gorm:"size:64;index" json:"record_hash"`
	AnchorTxHash     string `gorm:"size:128;index" json:"anchor_tx_hash"`
	IsFallbackAnchor bool   `gorm:"not null;default:false;index" json:"is_fallback_anchor"`

	CreatedByDoctorId int `gorm:"index;not null" json:"created_by_doctor_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetPatientRecordByHealthId(db *gorm.DB, healthId string) (*PatientRecord, error) {
	var record PatientRecord
	if err := db.Where("health_id = ?", healthId).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func ListPatientRecordsByDoctor(db *gorm.DB, doctorId int) ([]PatientRecord, error) {
	var records []PatientRecord
	if err := db.Where("created_by_doctor_id = ?", doctorId).
		Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListFallbackAnchoredRecords returns records still carrying a locally
// synthesized anchor reference.
func ListFallbackAnchoredRecords(db *gorm.DB, limit int) ([]PatientRecord, error) {
	var records []PatientRecord
	q := db.Where("is_fallback_anchor = ?", true).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
