// Package claims prepares the raw claim feed for the rollup engine:
// validating required attributes, assigning the IP/ER/OP claim type, and
// tagging reference flags.
package claims

import (
	"sort"

	"github.com/perinatalhealth/nra-app/nra/constants"
	nraerrors "github.com/perinatalhealth/nra-app/nra/errors"
	"github.com/perinatalhealth/nra-app/nra/models"
)

var erCPTs = map[string]struct{}{
	"99281": {}, "99282": {}, "99283": {}, "99284": {},
	"99285": {}, "99286": {}, "99287": {}, "99288": {},
}

// AssignClaimTypes stamps each claim IP, ER, or OP. Inpatient markers win
// over emergency markers; everything else is outpatient. Code comparisons
// are lexicographic over the zero-padded source codes.
func AssignClaimTypes(rows []*models.Claim) {
	for _, c := range rows {
		switch {
		case isInpatient(c):
			c.ClaimType = constants.ClaimTypeInpatient
		case isEmergency(c):
			c.ClaimType = constants.ClaimTypeER
		default:
			c.ClaimType = constants.ClaimTypeOutpatient
		}
	}
}

func isInpatient(c *models.Claim) bool {
	if c.POS == "21" || c.DRG != "" {
		return true
	}
	if (c.RevenueCode >= "0100" && c.RevenueCode <= "0210") || c.RevenueCode == "0987" {
		return true
	}
	return (c.CPTCode >= "99221" && c.CPTCode <= "99239") ||
		(c.CPTCode >= "99251" && c.CPTCode <= "99255") ||
		(c.CPTCode >= "99261" && c.CPTCode <= "99263")
}

func isEmergency(c *models.Claim) bool {
	if c.POS == "23" {
		return true
	}
	if _, ok := erCPTs[c.CPTCode]; ok {
		return true
	}
	if len(c.RevenueCode) >= 3 && c.RevenueCode[:3] == "045" {
		return true
	}
	return c.RevenueCode == "0981"
}

// IdentifyNewbornKeys returns the sorted distinct patient ids whose tagged
// claims carry any newborn or NICU indicator. These babies anchor the
// cohort; every later stage restricts to them.
func IdentifyNewbornKeys(rows []*models.Claim) []string {
	seen := make(map[string]struct{})
	for _, c := range rows {
		if c.PatientID == "" {
			continue
		}
		if c.IsNewbornFlagged() || c.HasAnyNICUFlag() {
			seen[c.PatientID] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that the feed carries the attributes the rollup cannot
// run without. It reports the first missing attribute rather than
// scanning for all of them.
func Validate(rows []*models.Claim) error {
	for _, c := range rows {
		if c.PatientID == "" {
			return &nraerrors.MissingColumnError{Column: "patient id"}
		}
		if c.ClaimNo == "" {
			return &nraerrors.MissingColumnError{Column: "claim number"}
		}
		if c.FromDate.IsZero() {
			return &nraerrors.MissingColumnError{Column: "service from date"}
		}
	}
	return nil
}
