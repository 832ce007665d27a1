package models

import (
	"errors"
	"time"

	"github.com/carebridge-health/carechain_backend/utils"
	"gorm.io/gorm"
)

type Referral struct {
	ID              int            `gorm:"primary_key" json:"id"`
	PatientRecordId int            `gorm:"index;not null" json:"patient_record_id"`
	FromDoctorId    int            `gorm:"index;not null" json:"from_doctor_id"`
	ToHospital      string         `gorm:"size:255;not null" json:"to_hospital"`
	Summary         string         `gorm:"type:text" json:"summary"`
	Notes           string         `gorm:"type:text" json:"notes"`
	Status          ReferralStatus `gorm:"size:32;not null;default:'pending'" json:"status"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetReferralById(db *gorm.DB, id int, doctorId int) (*Referral, error) {
	var referral Referral
	if err := db.Where("id = ? AND from_doctor_id = ?", id, doctorId).
		First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &referral, nil
}

func ListReferralsByDoctor(db *gorm.DB, doctorId int) ([]Referral, error) {
	var referrals []Referral
	if err := db.Where("from_doctor_id = ?", doctorId).
		Order("created_at DESC").Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}
