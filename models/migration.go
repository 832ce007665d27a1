package models

import (
	"log"

	"github.com/carebridge-health/carechain_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&DoctorProfile{},
		&PatientRecord{},
		&CarePointsTransaction{},
		&Referral{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
