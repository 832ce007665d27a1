package cardano

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/carebridge-health/carechain_backend/utils"
)

// BuildDatum maps (issuer, patient, digest, timestamp) into the on-ledger
// datum. issuerIdHex and digestHex may carry a "0x" prefix, which is stripped
// before decoding. issuedAt <= 0 defaults to current epoch seconds.
// Side-effect-free.
func BuildDatum(issuerIdHex, patientId, digestHex string, issuedAt int64) (Datum, error) {
	issuer, err := decodeHexField("issuer_id", issuerIdHex)
	if err != nil {
		return Datum{}, err
	}
	digest, err := decodeHexField("record_hash", digestHex)
	if err != nil {
		return Datum{}, err
	}
	if issuedAt <= 0 {
		issuedAt = time.Now().UTC().Unix()
	}
	return Datum{
		IssuerId:   issuer,
		PatientId:  []byte(patientId),
		RecordHash: digest,
		IssuedAt:   issuedAt,
	}, nil
}

func decodeHexField(field, s string) ([]byte, error) {
	s = utils.StripHexPrefix(s)
	if s == "" {
		return nil, fmt.Errorf("%s is empty: %w", field, ErrInvalidEncoding)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", field, s, ErrInvalidEncoding)
	}
	return b, nil
}

func (d Datum) wire() wireDatum {
	return wireDatum{
		IssuerId:   hex.EncodeToString(d.IssuerId),
		PatientId:  hex.EncodeToString(d.PatientId),
		RecordHash: hex.EncodeToString(d.RecordHash),
		IssuedAt:   d.IssuedAt,
	}
}
