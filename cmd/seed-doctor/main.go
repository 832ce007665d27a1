// seed-doctor creates a doctor profile and prints an API token for it.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-doctor --name "Dr Jane Doe" --hospital "CareBridge General"
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/models"
	"github.com/carebridge-health/carechain_backend/utils"
)

func main() {
	name := flag.String("name", "", "Required: doctor full name")
	hospital := flag.String("hospital", "", "Hospital name")
	specialization := flag.String("specialization", "", "Specialization")
	userId := flag.Int("user-id", 0, "Upstream user id")
	address := flag.String("cardano-address", "", "Reward address; empty disables minting")
	issuerKeyHash := flag.String("issuer-key-hash", "", "Payment key hash used as datum issuer_id")
	role := flag.String("role", "doctor", "Token role claim")
	flag.Parse()

	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "--name is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	doctor, err := models.CreateDoctorProfile(db, &models.NewDoctorProfile{
		UserId:         *userId,
		FullName:       *name,
		Hospital:       *hospital,
		Specialization: *specialization,
		CardanoAddress: *address,
		IssuerKeyHash:  *issuerKeyHash,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create doctor profile: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(*userId, doctor.ID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created doctor profile: id=%d name=%q\n", doctor.ID, doctor.FullName)
	fmt.Printf("Token: %s\n", token)
}
