package models

import (
	"context"
	"time"
)

// ClaimsDateRange summarizes the service/paid date coverage of a client's
// claims feed.
type ClaimsDateRange struct {
	MinFromDate time.Time
	MaxFromDate time.Time
	MaxPaidDate time.Time
}

// ClaimsWindow bounds a claims pull: service dates inside the birth window,
// paid dates inside the runout.
type ClaimsWindow struct {
	BirthStart time.Time
	BirthEnd   time.Time
	RunoutEnd  time.Time
}

// Repository contains all of the methods needed to interact with the data
// represented in the models package.
type Repository interface {
	// GetClaimsDateRange returns the min/max service-from dates and the max
	// paid-processing date present for the client.
	GetClaimsDateRange(ctx context.Context, client string) (ClaimsDateRange, error)

	// GetClaims returns every claim line for the client whose service-from
	// date falls inside the birth window and whose paid date falls within
	// the runout.
	GetClaims(ctx context.Context, client string, window ClaimsWindow) ([]*Claim, error)

	// GetReferenceCodes returns the rows of one reference code table.
	GetReferenceCodes(ctx context.Context, table string) ([]ReferenceCode, error)

	// SaveNewbornRollup atomically replaces the client's newborn rollup
	// output with the supplied rows.
	SaveNewbornRollup(ctx context.Context, client, runID string, rows []*NewbornExport) error
}
