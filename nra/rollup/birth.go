package rollup

import (
	"sort"
	"time"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// claimBirthPriority ranks a single claim's birth-type flags:
// Multiple > Twin > Single > none.
func claimBirthPriority(c *models.Claim) int {
	switch {
	case c.Flags.Multiple:
		return 3
	case c.Flags.Twin:
		return 2
	case c.Flags.Single:
		return 1
	default:
		return 0
	}
}

// BirthTypeLabel maps a birth priority to its label.
func BirthTypeLabel(priority int) string {
	switch priority {
	case 3:
		return constants.BirthTypeMultiple
	case 2:
		return constants.BirthTypeTwin
	case 1:
		return constants.BirthTypeSingle
	default:
		return constants.BirthTypeUnknown
	}
}

// BirthTypePriority is the inverse of BirthTypeLabel.
func BirthTypePriority(label string) int {
	switch label {
	case constants.BirthTypeMultiple:
		return 3
	case constants.BirthTypeTwin:
		return 2
	case constants.BirthTypeSingle:
		return 1
	default:
		return 0
	}
}

type babyKey struct {
	patientID string
	birthDate time.Time
}

type babyAgg struct {
	maxPriority   int
	minService    time.Time
	hasNICURev    bool
	hasNICUMSDRG  bool
	hasNICUAPRDRG bool
}

// ClassifyBirths derives one Baby per (patient, birth date) from
// newborn-flagged claims, then annotates the patient's full claim set with
// the baby's attributes, restricted to service on/after the delivery date.
// Claims paid above the high-cost ceiling are flagged so later stages can
// exclude catastrophic outliers.
func (e *Engine) ClassifyBirths(claims []*models.Claim) ([]*models.Baby, []*models.CohortClaim) {
	aggs := make(map[babyKey]*babyAgg)
	for _, c := range claims {
		if !c.IsNewbornFlagged() {
			continue
		}
		k := babyKey{patientID: c.PatientID, birthDate: c.BirthDate}
		a, ok := aggs[k]
		if !ok {
			a = &babyAgg{minService: c.FromDate}
			aggs[k] = a
		}
		if p := claimBirthPriority(c); p > a.maxPriority {
			a.maxPriority = p
		}
		if c.FromDate.Before(a.minService) {
			a.minService = c.FromDate
		}
		a.hasNICURev = a.hasNICURev || c.Flags.NICURev
		a.hasNICUMSDRG = a.hasNICUMSDRG || c.Flags.NICUMSDRG
		a.hasNICUAPRDRG = a.hasNICUAPRDRG || c.Flags.NICUAPRDRG
	}

	// Delivery date is the earliest qualifying service date across all of
	// the patient's newborn groupings.
	delivery := make(map[string]time.Time)
	for k, a := range aggs {
		if d, ok := delivery[k.patientID]; !ok || a.minService.Before(d) {
			delivery[k.patientID] = a.minService
		}
	}

	babies := make([]*models.Baby, 0, len(aggs))
	for k, a := range aggs {
		nicu := a.hasNICURev || a.hasNICUMSDRG || a.hasNICUAPRDRG
		babyType := constants.BabyTypeNormal
		if nicu {
			babyType = constants.BabyTypeNICU
		}
		contract := constants.ContractPerDiem
		if a.hasNICUMSDRG || a.hasNICUAPRDRG {
			contract = constants.ContractDRG
		}
		gap := utils.DaysBetween(a.minService, k.birthDate)
		if gap < 0 {
			gap = -gap
		}
		babies = append(babies, &models.Baby{
			PatientID:       k.patientID,
			BirthDate:       k.birthDate,
			BirthPriority:   a.maxPriority,
			BirthType:       BirthTypeLabel(a.maxPriority),
			DeliveryDate:    delivery[k.patientID],
			InInitialWindow: gap <= e.rules.InitialWindowDays,
			BabyType:        babyType,
			Contract:        contract,
		})
	}
	sort.Slice(babies, func(i, j int) bool {
		if babies[i].PatientID != babies[j].PatientID {
			return babies[i].PatientID < babies[j].PatientID
		}
		return babies[i].BirthDate.Before(babies[j].BirthDate)
	})

	// One baby per patient is the expected shape; when a patient carries
	// several birth-date groupings, the claim is annotated with the baby
	// matching its own birth date, falling back to the earliest baby.
	byPatient := make(map[string][]*models.Baby)
	for _, b := range babies {
		byPatient[b.PatientID] = append(byPatient[b.PatientID], b)
	}

	var cohort []*models.CohortClaim
	for _, c := range claims {
		candidates := byPatient[c.PatientID]
		if len(candidates) == 0 {
			continue
		}
		baby := candidates[0]
		for _, b := range candidates {
			if b.BirthDate.Equal(c.BirthDate) {
				baby = b
				break
			}
		}
		if c.FromDate.Before(baby.DeliveryDate) {
			continue
		}
		// BirthType here is the claim's own flag label; the baby-level
		// label is re-derived downstream as a max over priorities.
		pri := claimBirthPriority(c)
		cohort = append(cohort, &models.CohortClaim{
			Claim:         *c,
			DeliveryDate:  baby.DeliveryDate,
			BirthPriority: pri,
			BirthType:     BirthTypeLabel(pri),
			BabyType:      baby.BabyType,
			Contract:      baby.Contract,
			HighCost:      c.Paid > e.rules.HighCostCeiling,
		})
	}

	return babies, cohort
}
