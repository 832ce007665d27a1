package cardano

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carebridge-health/carechain_backend/config"
	"github.com/shopspring/decimal"
)

// Client talks to the two ledger-facing collaborators: the anchor service
// (record anchoring + CarePoints minting) and Blockfrost (tx/metadata/balance
// queries). Both are plain HTTP with a bounded timeout; failures are returned
// to callers, who decide how to degrade.
type Client struct {
	anchorURL string
	queryURL  string
	projectID string
	policyID  string
	http      *http.Client
	limiter   <-chan time.Time
}

func NewClient(cfg config.CardanoConfig) *Client {
	return &Client{
		anchorURL: strings.TrimRight(cfg.AnchorServiceURL, "/"),
		queryURL:  strings.TrimRight(cfg.BlockfrostURL, "/"),
		projectID: cfg.BlockfrostProjectID,
		policyID:  cfg.CarePointsPolicyID,
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		// Blockfrost free tier rate budget; submissions share it.
		limiter: time.Tick(100 * time.Millisecond),
	}
}

type storeRecordRequest struct {
	Record        map[string]any `json:"record"`
	IssuerId      string         `json:"issuer_id"`
	PatientId     string         `json:"patient_id"`
	RecordHash    string         `json:"record_hash"`
	Datum         wireDatum      `json:"datum"`
	RewardAddress string         `json:"reward_address,omitempty"`
}

type txHashResponse struct {
	TxHash string `json:"tx_hash"`
}

// StoreRecord submits a record for anchoring and returns the transaction hash.
// The collaborator does not guarantee idempotency; callers must not retry blindly.
func (c *Client) StoreRecord(ctx context.Context, record map[string]any, datum Datum, recordHash, rewardAddress string) (string, error) {
	wd := datum.wire()
	req := storeRecordRequest{
		Record:        record,
		IssuerId:      wd.IssuerId,
		PatientId:     string(datum.PatientId),
		RecordHash:    recordHash,
		Datum:         wd,
		RewardAddress: rewardAddress,
	}
	var resp txHashResponse
	if err := c.postJSON(ctx, c.anchorURL+"/storeRecord", req, &resp); err != nil {
		return "", err
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("anchor service returned empty tx_hash")
	}
	return resp.TxHash, nil
}

type mintRequest struct {
	Address      string `json:"address"`
	Amount       int    `json:"amount"`
	PolicyId     string `json:"policy_id"`
	OwnerKeyHash string `json:"owner_pubkey_hash,omitempty"`
}

// MintCarePoints mints CarePoints tokens to address and returns the mint
// transaction hash.
func (c *Client) MintCarePoints(ctx context.Context, address string, amount int, ownerKeyHash string) (string, error) {
	req := mintRequest{
		Address:      address,
		Amount:       amount,
		PolicyId:     c.policyID,
		OwnerKeyHash: ownerKeyHash,
	}
	var resp txHashResponse
	if err := c.postJSON(ctx, c.anchorURL+"/mintCarePoints", req, &resp); err != nil {
		return "", err
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("anchor service returned empty tx_hash")
	}
	return resp.TxHash, nil
}

// GetTransaction checks that txHash exists on the ledger.
func (c *Client) GetTransaction(ctx context.Context, txHash string) error {
	return c.getJSON(ctx, c.queryURL+"/txs/"+txHash, &json.RawMessage{})
}

type metadataEntry struct {
	Label        string          `json:"label"`
	JSONMetadata json.RawMessage `json:"json_metadata"`
}

// GetTransactionMetadata returns the transaction's metadata entries.
func (c *Client) GetTransactionMetadata(ctx context.Context, txHash string) ([]metadataEntry, error) {
	var entries []metadataEntry
	if err := c.getJSON(ctx, c.queryURL+"/txs/"+txHash+"/metadata", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type addressResponse struct {
	Amount []struct {
		Unit     string `json:"unit"`
		Quantity string `json:"quantity"`
	} `json:"amount"`
}

// CarePointsBalance returns the CarePoints token quantity held by address,
// summed over all assets under the configured minting policy. An address the
// ledger has never seen holds zero.
func (c *Client) CarePointsBalance(ctx context.Context, address string) (int64, error) {
	var resp addressResponse
	if err := c.getJSON(ctx, c.queryURL+"/addresses/"+address, &resp); err != nil {
		if err == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	total := decimal.Zero
	for _, asset := range resp.Amount {
		if !strings.HasPrefix(asset.Unit, c.policyID) {
			continue
		}
		qty, err := decimal.NewFromString(asset.Quantity)
		if err != nil {
			return 0, fmt.Errorf("bad asset quantity %q for unit %s: %w", asset.Quantity, asset.Unit, err)
		}
		total = total.Add(qty)
	}
	return total.IntPart(), nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any, dest any) error {
	<-c.limiter
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	<-c.limiter
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set("project_id", c.projectID)
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cardano api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return err
	}
	return nil
}
