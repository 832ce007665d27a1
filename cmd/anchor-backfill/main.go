// anchor-backfill re-submits fallback-anchored patient records to the anchor
// service in batches. The server runs the same loop in the background; this
// tool exists for catching up after a long outage without waiting for the
// poll interval.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... CARDANO_ANCHOR_SERVICE_URL=... \
//	  go run ./cmd/anchor-backfill --batch-size 100
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/carebridge-health/carechain_backend/cardano"
	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/workflow"
)

func main() {
	batchSize := flag.Int("batch-size", 100, "Records to attempt per pass")
	passes := flag.Int("passes", 1, "Number of passes to run")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	logger := config.GetLogger()

	cfg := config.LoadCardanoConfig()
	client := cardano.NewClient(cfg)
	backfill := workflow.NewAnchorBackfill(db, logger, cardano.NewSubmitter(cfg, client, logger))
	backfill.BatchSize = *batchSize

	ctx := context.Background()
	total := 0
	for i := 0; i < *passes; i++ {
		promoted := backfill.RunOnce(ctx)
		total += promoted
		if promoted == 0 {
			break
		}
	}
	fmt.Printf("Promoted %d record(s) to real anchors\n", total)
}
