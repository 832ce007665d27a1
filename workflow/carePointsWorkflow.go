package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Minter is the ledger-minting collaborator. Mint failures never roll back a
// local credit; the local ledger and the chain are eventually consistent.
type Minter interface {
	MintCarePoints(ctx context.Context, address string, amount int, ownerKeyHash string) (string, error)
}

// BalanceQuerier is the ledger-query collaborator used by balance sync.
type BalanceQuerier interface {
	CarePointsBalance(ctx context.Context, address string) (int64, error)
}

const (
	// Mint amounts outside [MintAmountMin, MintAmountMax] skip the mint call;
	// the credit is still recorded locally, without a mint reference.
	MintAmountMin = 1
	MintAmountMax = 100000

	creditHandlerName = "CarePointsCredit"

	balanceSyncCacheTTL = 5 * time.Minute
)

// CreditMessageId derives the idempotency key for a credit. A client-supplied
// token wins: a retried delivery of the same clinical action then presents
// the same key and dedupes. Without a token the server-generated fallback
// applies, which is fresh per request and cannot dedupe retries.
func CreditMessageId(prefix, clientToken, fallback string) string {
	if t := strings.TrimSpace(clientToken); t != "" {
		return prefix + ":" + t
	}
	return prefix + ":" + fallback
}

// NextStreak applies the streak rule for a qualifying action at now (UTC
// calendar date): first action starts at 1, a same-day repeat leaves the
// streak unchanged, a consecutive day increments, a gap of two or more days
// resets to 1.
func NextStreak(current int, last *time.Time, now time.Time) int {
	today := DateOnly(now)
	if last == nil {
		return 1
	}
	lastDate := DateOnly(*last)
	switch {
	case lastDate.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case lastDate.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// CarePointsReward is the per-action reward for record-type credits.
func CarePointsReward(rw config.RewardConfig, streak int) int {
	return rw.BaseReward + rw.StreakBonus*streak
}

// mintAmountInBounds gates the mint call; out-of-bounds amounts are credited
// locally without a mint reference.
func mintAmountInBounds(amount int) bool {
	return amount >= MintAmountMin && amount <= MintAmountMax
}

// DateOnly truncates to the UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type CreditResult struct {
	Transaction *models.CarePointsTransaction
	Streak      int
	// Duplicate is set when this messageId was already credited; nothing was
	// changed.
	Duplicate bool
}

// CreditCarePoints credits one qualifying action: streak update, balance
// increment, append-only transaction row, then a best-effort mint. Must run
// inside a DB transaction; the per-doctor advisory lock serializes concurrent
// credits for the same doctor across instances. messageId makes the credit
// idempotent under retried deliveries.
func CreditCarePoints(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, rw config.RewardConfig, minter Minter,
	doctorId int, kind models.CarePointsTransactionType, messageId string, description string, now time.Time) (*CreditResult, error) {

	if !kind.Valid() {
		return nil, fmt.Errorf("unknown care points transaction type %q", kind)
	}

	if err := AcquireDoctorPostingLock(tx, doctorId); err != nil {
		return nil, err
	}
	defer ReleaseDoctorPostingLock(tx, doctorId)

	skip, err := BeginIdempotency(tx, doctorId, creditHandlerName, messageId)
	if err != nil {
		return nil, err
	}
	if skip {
		return &CreditResult{Duplicate: true}, nil
	}

	doctor, err := models.GetDoctorProfileForUpdate(tx, doctorId)
	if err != nil {
		_ = MarkIdempotencyFailed(tx, doctorId, creditHandlerName, messageId, err)
		return nil, err
	}

	streak := NextStreak(doctor.CurrentStreak, doctor.LastQualifyingDate, now)
	today := DateOnly(now)
	doctor.CurrentStreak = streak
	doctor.LastQualifyingDate = &today

	amount := CarePointsReward(rw, streak)
	if kind == models.CarePointsTransactionTypeReferral {
		amount = rw.ReferralReward
	}

	doctor.CarePointsBalance += int64(amount)
	if err := tx.Save(doctor).Error; err != nil {
		_ = MarkIdempotencyFailed(tx, doctorId, creditHandlerName, messageId, err)
		return nil, err
	}

	txn := models.CarePointsTransaction{
		DoctorId:        doctorId,
		Amount:          amount,
		Description:     description,
		TransactionType: kind,
	}
	if err := tx.Create(&txn).Error; err != nil {
		_ = MarkIdempotencyFailed(tx, doctorId, creditHandlerName, messageId, err)
		return nil, err
	}

	if doctor.CardanoAddress != "" && minter != nil {
		if !mintAmountInBounds(amount) {
			logger.WithFields(logrus.Fields{
				"module":    "workflow",
				"funcName":  "CreditCarePoints",
				"doctor_id": doctorId,
				"amount":    amount,
			}).Warn("mint amount out of bounds; credit recorded without mint reference")
		} else if mintTx, mintErr := minter.MintCarePoints(ctx, doctor.CardanoAddress, amount, doctor.IssuerKeyHash); mintErr != nil {
			logger.WithFields(logrus.Fields{
				"module":    "workflow",
				"funcName":  "CreditCarePoints",
				"doctor_id": doctorId,
				"amount":    amount,
			}).Warn("mint failed; local credit stands, reconcile via balance sync: " + mintErr.Error())
		} else {
			txn.CardanoTxHash = &mintTx
			if err := tx.Model(&models.CarePointsTransaction{}).
				Where("id = ?", txn.ID).Update("cardano_tx_hash", mintTx).Error; err != nil {
				config.LogError(logger, "carePointsWorkflow.go", "CreditCarePoints", "attach mint tx hash", txn.ID, err)
			}
		}
	}

	if err := MarkIdempotencySucceeded(tx, doctorId, creditHandlerName, messageId); err != nil {
		return nil, err
	}

	return &CreditResult{Transaction: &txn, Streak: streak}, nil
}

// SyncCarePointsBalance reconciles the local balance with the on-chain token
// quantity. A strictly positive remote quantity overwrites the local balance
// (remote is authoritative once nonzero); zero or any query failure leaves
// the local balance untouched. Never returns an error to the read path.
// doctor is mutated in place on overwrite so the caller can return the fresh
// value.
func SyncCarePointsBalance(ctx context.Context, db *gorm.DB, logger *logrus.Logger, q BalanceQuerier, doctor *models.DoctorProfile) {
	if doctor == nil || doctor.CardanoAddress == "" || q == nil {
		return
	}

	cacheKey := "carepoints:synced:" + doctor.CardanoAddress

	// Recently synced; skip the remote call.
	var cached int64
	if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found {
		return
	}

	// Best-effort single-flight across instances. Redis being down must not
	// break the read path: proceed without the lock.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "lock:"+cacheKey, 10*time.Second, nil)
		if err == redislock.ErrNotObtained {
			return
		}
		if err == nil {
			defer func() { _ = lock.Release(ctx) }()
		}
	}

	qty, err := q.CarePointsBalance(ctx, doctor.CardanoAddress)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"module":    "workflow",
			"funcName":  "SyncCarePointsBalance",
			"doctor_id": doctor.ID,
		}).Warn("balance query failed; local balance untouched: " + err.Error())
		return
	}
	if qty <= 0 {
		return
	}

	if err := db.Model(&models.DoctorProfile{}).
		Where("id = ?", doctor.ID).
		Update("care_points_balance", qty).Error; err != nil {
		config.LogError(logger, "carePointsWorkflow.go", "SyncCarePointsBalance", "overwrite balance", doctor.ID, err)
		return
	}
	doctor.CarePointsBalance = qty
	_ = config.SetRedisObject(cacheKey, qty, balanceSyncCacheTTL)
}
