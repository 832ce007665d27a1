package models

import (
	"errors"
	"time"

	"github.com/carebridge-health/carechain_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DoctorProfile is the incentive account. Balance, streak and last qualifying
// date are mutated only by the workflow package, under the per-doctor posting
// lock; everything else reads them.
type DoctorProfile struct {
	ID             int    `gorm:"primary_key" json:"id"`
	UserId         int    `gorm:"index" json:"user_id"`
	FullName       string `gorm:"size:100;not null" json:"full_name" binding:"required"`
	Hospital       string `gorm:"size:255" json:"hospital"`
	Specialization string `gorm:"size:100" json:"specialization"`

	// CardanoAddress is the reward address; empty means mint is skipped.
	CardanoAddress string `gorm:"size:128;index" json:"cardano_address"`
	// IssuerKeyHash is the doctor's payment key hash, used as datum issuer_id.
	IssuerKeyHash string `gorm:"size:64" json:"issuer_key_hash"`

	CarePointsBalance  int64      `gorm:"not null;default:0" json:"care_points_balance"`
	CurrentStreak      int        `gorm:"not null;default:0" json:"current_streak"`
	LastQualifyingDate *time.Time `gorm:"type:date" json:"last_qualifying_date"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDoctorProfile struct {
	UserId         int    `json:"user_id"`
	FullName       string `json:"full_name" binding:"required"`
	Hospital       string `json:"hospital"`
	Specialization string `json:"specialization"`
	CardanoAddress string `json:"cardano_address"`
	IssuerKeyHash  string `json:"issuer_key_hash"`
}

func CreateDoctorProfile(db *gorm.DB, input *NewDoctorProfile) (*DoctorProfile, error) {
	doctor := DoctorProfile{
		UserId:         input.UserId,
		FullName:       input.FullName,
		Hospital:       input.Hospital,
		Specialization: input.Specialization,
		CardanoAddress: input.CardanoAddress,
		IssuerKeyHash:  input.IssuerKeyHash,
	}
	if err := db.Create(&doctor).Error; err != nil {
		return nil, err
	}
	return &doctor, nil
}

func GetDoctorProfileById(db *gorm.DB, id int) (*DoctorProfile, error) {
	var doctor DoctorProfile
	if err := db.Where("id = ?", id).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &doctor, nil
}

// GetDoctorProfileForUpdate takes a row lock; must run inside a transaction.
func GetDoctorProfileForUpdate(tx *gorm.DB, id int) (*DoctorProfile, error) {
	var doctor DoctorProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &doctor, nil
}
