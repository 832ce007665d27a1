package models

import (
	"time"

	"gorm.io/gorm"
)

// CarePointsTransaction is the append-only credit ledger. Rows are created by
// the workflow package and never mutated afterwards, except that a successful
// mint attaches its transaction hash.
type CarePointsTransaction struct {
	ID              int                       `gorm:"primary_key" json:"id"`
	DoctorId        int                       `gorm:"index;not null" json:"doctor_id"`
	Amount          int                       `gorm:"not null" json:"amount"`
	Description     string                    `gorm:"size:255" json:"description"`
	TransactionType CarePointsTransactionType `gorm:"size:32;not null;index" json:"transaction_type"`
	CardanoTxHash   *string                   `gorm:"size:128" json:"cardano_tx_hash"`
	CreatedAt       time.Time                 `gorm:"autoCreateTime" json:"created_at"`
}

func ListCarePointsTransactions(db *gorm.DB, doctorId int) ([]CarePointsTransaction, error) {
	var transactions []CarePointsTransaction
	if err := db.Where("doctor_id = ?", doctorId).
		Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
