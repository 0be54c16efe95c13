package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/obrdata/openbankingbr/internal/openbanking"
)

// Stats counts what an ingest run inserted.
type Stats struct {
	Participants int
	Branches     int
	Products     int
	Services     int
	Packages     int
}

// Ingest walks every directory participant and inserts one row per branch,
// product, service and service bundle, dated with the current day.
//
// A participant whose data cannot be decoded aborts the run, or is skipped
// in ignore-errors mode. An insert failure always aborts: the database is
// not expected to degrade the way participant APIs do.
func (db *Manager) Ingest(ctx context.Context, client *openbanking.Client, ignoreErrors bool) (Stats, error) {
	var stats Stats

	base := time.Now().Format("20060102")

	participants, err := client.Participants(ctx)
	if err != nil {
		return stats, err
	}
	stats.Participants = len(participants)

	for i, p := range participants {
		if err := db.ingestParticipant(ctx, client, base, i+1, p, &stats); err != nil {
			if !ignoreErrors || errors.Is(err, ErrInsertFailed) {
				return stats, err
			}
			slog.Warn("Skipping participant after a processing error", "participant", p.Name(), "error", err)
		}
	}

	slog.Info("Ingest run finished",
		"participants", stats.Participants,
		"branches", stats.Branches,
		"products", stats.Products,
		"services", stats.Services,
		"packages", stats.Packages)
	return stats, nil
}

func (db *Manager) ingestParticipant(ctx context.Context, client *openbanking.Client, base string, seqParticipant int, p openbanking.Participant, stats *Stats) error {
	var insertErr error

	seqBranch := 0
	err := client.Branches(ctx, p, func(b openbanking.Branch) bool {
		seqBranch++
		if insertErr = db.InsertBranch(ctx, base, seqParticipant, p, seqBranch, b); insertErr != nil {
			return false
		}
		stats.Branches++
		return true
	})
	if err != nil {
		return err
	}
	if insertErr != nil {
		return fmt.Errorf("branch %d: %w", seqBranch, insertErr)
	}

	seqProduct := 0
	var walkErr error
	err = client.Products(ctx, p, func(product openbanking.Product) bool {
		productType, err := product.Type()
		if err != nil {
			walkErr = err
			return false
		}

		seqProduct++
		if walkErr = db.InsertProduct(ctx, base, seqParticipant, p, seqProduct, productType, product); walkErr != nil {
			return false
		}
		stats.Products++

		seqService := 0
		product.Services(func(s openbanking.Service) bool {
			name, err := s.Name()
			if err != nil {
				walkErr = err
				return false
			}

			seqService++
			if walkErr = db.InsertService(ctx, base, seqParticipant, p, seqProduct, productType, product, seqService, name, s); walkErr != nil {
				return false
			}
			stats.Services++
			return true
		})
		if walkErr != nil {
			return false
		}

		seqPackage := 0
		product.Bundles(func(pkg openbanking.Package) bool {
			name, err := pkg.Name()
			if err != nil {
				walkErr = err
				return false
			}

			seqPackage++
			if walkErr = db.InsertPackage(ctx, base, seqParticipant, p, seqProduct, productType, product, seqPackage, name, pkg); walkErr != nil {
				return false
			}
			stats.Packages++
			return true
		})
		return walkErr == nil
	})
	if err != nil {
		return err
	}
	return walkErr
}
