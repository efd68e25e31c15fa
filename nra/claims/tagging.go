package claims

import (
	"github.com/perinatalhealth/nra-app/log"
	"github.com/perinatalhealth/nra-app/nra/models"
)

type claimKey struct {
	patientID string
	claimNo   string
}

// TagReferenceFlags stamps the boolean reference flags onto every claim.
// Diagnosis flags propagate across a whole claim: a match on any line of a
// claim number flags every line sharing that number. Revenue and DRG flags
// stay per-line.
func TagReferenceFlags(rows []*models.Claim, refs *models.ReferenceSet) {
	newbornICD := icdMatches(rows, refs.NewbornICD)
	single := icdMatches(rows, refs.SingletonICD)
	twin := icdMatches(rows, refs.TwinICD)
	multiple := icdMatches(rows, refs.MultipleICD)

	for _, c := range rows {
		k := claimKey{patientID: c.PatientID, claimNo: c.ClaimNo}
		c.Flags = models.ClaimFlags{
			NewbornICD: newbornICD[k],
			Single:     single[k],
			Twin:       twin[k],
			Multiple:   multiple[k],
			NewbornRev: refs.NewbornRev.Contains(c.RevenueCode),
			NICURev:    refs.NICURev.Contains(c.RevenueCode),
			NICUMSDRG:  refs.NICUMSDRG.Contains(drgPrefix(c.DRG)),
			NICUAPRDRG: refs.NICUAPRDRG.Contains(drgPrefix(c.DRG)),
		}
	}
	log.Pipeline.WithField("claims", len(rows)).Info("tagged reference flags")
}

// icdMatches returns the claim keys where any diagnosis column matches the
// reference set.
func icdMatches(rows []*models.Claim, ref models.CodeSet) map[claimKey]bool {
	out := make(map[claimKey]bool)
	for _, c := range rows {
		for _, diag := range c.Diagnoses {
			if ref.Contains(diag) {
				out[claimKey{patientID: c.PatientID, claimNo: c.ClaimNo}] = true
				break
			}
		}
	}
	return out
}

func drgPrefix(drg string) string {
	if len(drg) > 3 {
		return drg[:3]
	}
	return drg
}
