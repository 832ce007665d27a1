package models

type CarePointsTransactionType string

const (
	CarePointsTransactionTypeRecord   CarePointsTransactionType = "patient_record"
	CarePointsTransactionTypeReferral CarePointsTransactionType = "referral"
	CarePointsTransactionTypeOther    CarePointsTransactionType = "other"
)

func (t CarePointsTransactionType) Valid() bool {
	switch t {
	case CarePointsTransactionTypeRecord, CarePointsTransactionTypeReferral, CarePointsTransactionTypeOther:
		return true
	}
	return false
}

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusAccepted  ReferralStatus = "accepted"
	ReferralStatusCompleted ReferralStatus = "completed"
)

func (s ReferralStatus) Valid() bool {
	switch s {
	case ReferralStatusPending, ReferralStatusAccepted, ReferralStatusCompleted:
		return true
	}
	return false
}

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)
