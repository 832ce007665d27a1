package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/carebridge-health/carechain_backend/cardano"
	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/models"
	"github.com/carebridge-health/carechain_backend/utils"
	"github.com/carebridge-health/carechain_backend/workflow"
)

// apiDeps are the collaborators the handlers close over. Built once in main
// after config is loaded; handlers never read the environment themselves.
type apiDeps struct {
	cardanoCfg config.CardanoConfig
	rewards    config.RewardConfig
	client     *cardano.Client
	submitter  *cardano.Submitter
	verifier   *cardano.Verifier
}

func requireDoctor(c *gin.Context) (int, bool) {
	doctorId, ok := utils.GetDoctorIdFromContext(c.Request.Context())
	if !ok || doctorId <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return doctorId, true
}

type createRecordRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Condition        string `json:"condition"`
	Notes            string `json:"notes"`
	EmergencyContact string `json:"emergency_contact"`
}

// createRecordHandler anchors a new patient record and credits the creating
// doctor. Anchoring happens before the DB transaction: a ledger failure
// degrades to a deterministic fallback reference rather than failing the
// request, so by the time we open the transaction we always have a tx ref.
func createRecordHandler(deps *apiDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		var req createRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		db := config.GetDB()
		logger := config.GetLogger()
		ctx, span := tracer.Start(c.Request.Context(), "records.anchor-and-credit")
		defer span.End()

		doctor, err := models.GetDoctorProfileById(db, doctorId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "doctor profile not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		healthId, err := newHealthId(db)
		if err != nil {
			config.LogError(logger, "handlers", "createRecordHandler", "generate health id", doctorId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		now := time.Now().UTC()
		payload := map[string]any{
			"patient_id":        healthId,
			"full_name":         req.FullName,
			"date_of_birth":     req.DateOfBirth,
			"gender":            req.Gender,
			"condition":         req.Condition,
			"notes":             req.Notes,
			"emergency_contact": req.EmergencyContact,
			"created_at":        now,
			"created_by":        doctor.FullName,
		}

		issuer := doctor.IssuerKeyHash
		if strings.TrimSpace(issuer) == "" {
			issuer = deps.cardanoCfg.DefaultIssuerKeyHash
		}

		ref, err := deps.submitter.Submit(ctx, payload, issuer, healthId, doctor.CardanoAddress)
		if err != nil {
			if errors.Is(err, cardano.ErrEncoding) || errors.Is(err, cardano.ErrInvalidEncoding) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			config.LogError(logger, "handlers", "createRecordHandler", "anchor submit", healthId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		var (
			record *models.PatientRecord
			credit *workflow.CreditResult
		)
		err = db.Transaction(func(tx *gorm.DB) error {
			record = &models.PatientRecord{
				HealthId:          healthId,
				FullName:          req.FullName,
				EmergencyContact:  req.EmergencyContact,
				Condition:         req.Condition,
				Notes:             req.Notes,
				RecordHash:        ref.RecordHash,
				AnchorTxHash:      ref.TxHash,
				IsFallbackAnchor:  ref.IsFallback,
				CreatedByDoctorId: doctorId,
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			var txErr error
			messageId := workflow.CreditMessageId("record", c.GetHeader("Idempotency-Key"), healthId)
			credit, txErr = workflow.CreditCarePoints(ctx, tx, logger, deps.rewards, deps.client,
				doctorId, models.CarePointsTransactionTypeRecord,
				messageId, "Patient record anchored: "+healthId, now)
			return txErr
		})
		if err != nil {
			config.LogError(logger, "handlers", "createRecordHandler", "persist record", healthId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		resp := gin.H{
			"patient_record": record,
			"anchor":         ref,
		}
		if credit != nil && credit.Transaction != nil {
			resp["care_points"] = gin.H{
				"amount": credit.Transaction.Amount,
				"streak": credit.Streak,
			}
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// newHealthId generates a PAT-XXXXXXXX id that is not already taken. The
// keyspace is large enough that collisions are rare; a handful of retries
// covers them.
func newHealthId(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		healthId, err := utils.GenerateHealthId()
		if err != nil {
			return "", err
		}
		_, err = models.GetPatientRecordByHealthId(db, healthId)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return healthId, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a unique health id")
}

func listRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		records, err := models.ListPatientRecordsByDoctor(config.GetDB(), doctorId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"patient_records": records})
	}
}

type verifyRecordRequest struct {
	TxHash     string `json:"tx_hash" binding:"required"`
	PatientId  string `json:"patient_id" binding:"required"`
	RecordHash string `json:"record_hash" binding:"required,hexbytes"`
}

// verifyRecordHandler always answers 200 with a verdict; ledger outages show
// up as verified=false with a reason, never as a 5xx.
func verifyRecordHandler(deps *apiDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireDoctor(c); !ok {
			return
		}
		var req verifyRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		result := deps.verifier.Verify(c.Request.Context(), req.TxHash, req.PatientId, req.RecordHash)
		c.JSON(http.StatusOK, result)
	}
}

// carePointsHandler returns the doctor's balance after reconciling it against
// the on-chain quantity. Reconciliation is best-effort: a ledger outage
// leaves the local balance untouched.
func carePointsHandler(deps *apiDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		db := config.GetDB()
		doctor, err := models.GetDoctorProfileById(db, doctorId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "doctor profile not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		workflow.SyncCarePointsBalance(c.Request.Context(), db, config.GetLogger(), deps.client, doctor)
		c.JSON(http.StatusOK, gin.H{
			"balance":              doctor.CarePointsBalance,
			"current_streak":       doctor.CurrentStreak,
			"last_qualifying_date": doctor.LastQualifyingDate,
		})
	}
}

func carePointsTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		transactions, err := models.ListCarePointsTransactions(config.GetDB(), doctorId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": transactions})
	}
}

func createReferralHandler(deps *apiDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		var input workflow.NewReferral
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		db := config.GetDB()
		logger := config.GetLogger()
		now := time.Now().UTC()

		var (
			referral *models.Referral
			credit   *workflow.CreditResult
		)
		err := db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			referral, credit, txErr = workflow.CreateReferral(c.Request.Context(), tx, logger, deps.rewards, deps.client,
				doctorId, input, c.GetHeader("Idempotency-Key"), now)
			return txErr
		})
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "patient record not found"})
				return
			}
			config.LogError(logger, "handlers", "createReferralHandler", "create referral", input.PatientRecordId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		resp := gin.H{"referral": referral}
		if credit != nil && credit.Transaction != nil {
			resp["care_points"] = gin.H{
				"amount": credit.Transaction.Amount,
				"streak": credit.Streak,
			}
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func listReferralsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		referrals, err := models.ListReferralsByDoctor(config.GetDB(), doctorId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"referrals": referrals})
	}
}

type updateReferralStatusRequest struct {
	Status models.ReferralStatus `json:"status" binding:"required"`
	Notes  string                `json:"notes"`
}

func updateReferralStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorId, ok := requireDoctor(c)
		if !ok {
			return
		}
		referralId, err := strconv.Atoi(c.Param("id"))
		if err != nil || referralId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral id"})
			return
		}
		var req updateReferralStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		db := config.GetDB()
		var referral *models.Referral
		err = db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			referral, txErr = workflow.UpdateReferralStatus(tx, doctorId, referralId, req.Status, req.Notes)
			return txErr
		})
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "referral not found"})
				return
			}
			if errors.Is(err, workflow.ErrInvalidReferralStatus) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"referral": referral})
	}
}
