package config

import (
	"os"
	"strings"
	"time"
)

// CardanoConfig holds everything the anchoring/minting/query clients need.
// It is built once at startup and passed into components at construction;
// nothing in the cardano or workflow packages reads the environment directly.
type CardanoConfig struct {
	// AnchorServiceURL fronts record anchoring + CarePoints minting.
	AnchorServiceURL string
	// BlockfrostURL + ProjectID for on-chain queries (tx, metadata, balances).
	BlockfrostURL       string
	BlockfrostProjectID string

	// AnchorValidatorHash is the spend validator of the anchoring contract.
	// Metadata entries written by that contract carry it under anchor_validator.
	AnchorValidatorHash string
	// CarePointsPolicyID is the minting policy of the CarePoints token.
	CarePointsPolicyID string

	// MetadataLabel tags anchoring entries in transaction metadata (CIP-20).
	MetadataLabel string

	// DefaultIssuerKeyHash is used when a doctor profile has no issuer key
	// hash of its own (pre-onboarding records anchor under the platform key).
	DefaultIssuerKeyHash string

	RequestTimeout time.Duration
}

// RewardConfig holds the CarePoints reward constants.
type RewardConfig struct {
	BaseReward     int
	StreakBonus    int
	ReferralReward int
}

const (
	defaultAnchorServiceURL = "http://127.0.0.1:3000"
	defaultBlockfrostURL    = "https://cardano-preprod.blockfrost.io/api/v0"

	// Preprod hashes from the compiled plutus.json
	// (anchor_validator.spend / carepoints_policy.mint).
	defaultAnchorValidatorHash = "fce9a95619c8b7a555b29ab7e44ddcb31ca8c4c825ea38d5c8a5c8a2"
	defaultCarePointsPolicyID  = "8e768f2d97bc947db13970473c04c285c18385889c70ae52516c3261"

	defaultMetadataLabel = "674"

	// Platform signing key hash on preprod.
	defaultIssuerKeyHash = "08ee30a2e0e28b3eaf109642374971c5aa4675f5a0ff71dc8d5988ae"
)

func LoadCardanoConfig() CardanoConfig {
	cfg := CardanoConfig{
		AnchorServiceURL:     strings.TrimRight(envOr("CARDANO_ANCHOR_SERVICE_URL", defaultAnchorServiceURL), "/"),
		BlockfrostURL:        strings.TrimRight(envOr("BLOCKFROST_BASE_URL", defaultBlockfrostURL), "/"),
		BlockfrostProjectID:  strings.TrimSpace(os.Getenv("BLOCKFROST_PROJECT_ID")),
		AnchorValidatorHash:  envOr("ANCHOR_VALIDATOR_HASH", defaultAnchorValidatorHash),
		CarePointsPolicyID:   envOr("CAREPOINTS_POLICY_ID", defaultCarePointsPolicyID),
		MetadataLabel:        envOr("CARDANO_METADATA_LABEL", defaultMetadataLabel),
		DefaultIssuerKeyHash: envOr("CARDANO_ISSUER_KEY_HASH", defaultIssuerKeyHash),
		RequestTimeout:       time.Duration(intFromEnv("CARDANO_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
	}
	return cfg
}

func LoadRewardConfig() RewardConfig {
	return RewardConfig{
		BaseReward:     intFromEnv("CAREPOINTS_BASE_REWARD", 10),
		StreakBonus:    intFromEnv("CAREPOINTS_STREAK_BONUS", 2),
		ReferralReward: intFromEnv("CAREPOINTS_REFERRAL_REWARD", 15),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
