package rollup

import (
	"sort"
	"time"

	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// CostFeatures collects the per-episode cost and diagnosis features that
// merge onto the NICU rollup. Absent keys mean zero for numeric features
// and unset for categorical ones.
type CostFeatures struct {
	ProfFees       map[models.EpisodeKey]*models.ProfessionalFees
	RoomBoard      map[models.EpisodeKey]float64
	Readmissions   map[models.EpisodeKey]*models.Readmission
	NAS            map[models.EpisodeKey]bool
	Birthweight    map[models.EpisodeKey]string
	GestationalAge map[models.EpisodeKey]string
}

// BuildCostFeatures derives professional fee splits, room and board cost,
// readmission counts, and diagnosis-driven categories from the NICU claim
// lines. Readmissions scan the full stay list so stays filtered out of the
// episode build still count as returns.
func (e *Engine) BuildCostFeatures(nicuClaims []*models.EpisodeClaim, nicuRecords []*models.NicuRecord, stays []*models.HospitalStay, refs *models.ReferenceSet) *CostFeatures {
	f := &CostFeatures{
		ProfFees:       e.professionalFees(nicuClaims),
		RoomBoard:      e.roomBoardCost(nicuClaims),
		Readmissions:   e.readmissions(nicuRecords, stays),
		NAS:            make(map[models.EpisodeKey]bool),
		Birthweight:    make(map[models.EpisodeKey]string),
		GestationalAge: make(map[models.EpisodeKey]string),
	}

	diags := distinctDiagnoses(nicuClaims)
	for _, d := range diags {
		if d.code == e.rules.NASDiagnosisCode {
			f.NAS[d.key] = true
		}
	}
	assignCategories(f.Birthweight, diags, refs.BirthweightICD)
	assignCategories(f.GestationalAge, diags, refs.GestationalAgeICD)
	return f
}

type serviceDayKey struct {
	episode  models.EpisodeKey
	fromDate time.Time
	cpt      string
}

// professionalFees splits CPT-coded spend per episode into the total, the
// manageable subset, and critical care. Service days count distinct
// (service date, code) pairs for manageable care and distinct service
// dates for critical care, so repeat billing on one day is one day.
func (e *Engine) professionalFees(nicuClaims []*models.EpisodeClaim) map[models.EpisodeKey]*models.ProfessionalFees {
	out := make(map[models.EpisodeKey]*models.ProfessionalFees)
	manageableDays := make(map[serviceDayKey]struct{})
	criticalDays := make(map[serviceDayKey]struct{})

	for _, r := range nicuClaims {
		if r.CPTCode == "" {
			continue
		}
		k := r.Key()
		fees, ok := out[k]
		if !ok {
			fees = &models.ProfessionalFees{}
			out[k] = fees
		}
		fees.Total += r.Paid

		if utils.ContainsString(e.rules.ManageableCPTs, r.CPTCode) {
			fees.Manageable += r.Paid
			manageableDays[serviceDayKey{episode: k, fromDate: r.FromDate, cpt: r.CPTCode}] = struct{}{}
		}
		if utils.ContainsString(e.rules.CriticalCareCPTs, r.CPTCode) {
			fees.CriticalCare += r.Paid
			criticalDays[serviceDayKey{episode: k, fromDate: r.FromDate}] = struct{}{}
		}
	}

	for day := range manageableDays {
		out[day.episode].ManageableServiceDays++
	}
	for day := range criticalDays {
		out[day.episode].CriticalCareDays++
	}
	return out
}

// roomBoardCost sums facility room and board lines: revenue codes whose
// three-digit prefix is in the room/board set, excluding professional
// lines that carry a CPT code.
func (e *Engine) roomBoardCost(nicuClaims []*models.EpisodeClaim) map[models.EpisodeKey]float64 {
	out := make(map[models.EpisodeKey]float64)
	for _, r := range nicuClaims {
		if r.CPTCode != "" || len(r.RevenueCode) < 3 {
			continue
		}
		if !utils.ContainsString(e.rules.RoomBoardPrefixes, r.RevenueCode[:3]) {
			continue
		}
		out[r.Key()] += r.Paid
	}
	return out
}

// readmissions counts, per NICU episode, the later stays for the same baby
// that begin after the episode's discharge but within the readmission
// window. The count is distinct admit dates; paid and LOS sum over every
// qualifying stay.
func (e *Engine) readmissions(nicuRecords []*models.NicuRecord, stays []*models.HospitalStay) map[models.EpisodeKey]*models.Readmission {
	staysByPatient := make(map[string][]*models.HospitalStay)
	for _, s := range stays {
		staysByPatient[s.PatientID] = append(staysByPatient[s.PatientID], s)
	}

	out := make(map[models.EpisodeKey]*models.Readmission)
	for _, n := range nicuRecords {
		var re models.Readmission
		admits := make(map[time.Time]struct{})
		for _, s := range staysByPatient[n.PatientID] {
			if !s.DeliveryDate.Equal(n.DeliveryDate) || !s.Admit.After(n.Discharge) {
				continue
			}
			if utils.DaysBetween(n.Discharge, s.Admit) > e.rules.ReadmitWindowDays {
				continue
			}
			admits[s.Admit] = struct{}{}
			re.Paid += s.Paid
			re.LOS += s.LOS
		}
		if len(admits) == 0 {
			continue
		}
		re.Count = len(admits)
		out[n.Key()] = &re
	}
	return out
}

type episodeDiagnosis struct {
	key  models.EpisodeKey
	code string
}

// distinctDiagnoses unpivots the diagnosis columns to one row per distinct
// (episode, code) pair.
func distinctDiagnoses(nicuClaims []*models.EpisodeClaim) []episodeDiagnosis {
	type pair struct {
		key  models.EpisodeKey
		code string
	}
	seen := make(map[pair]struct{})
	var out []episodeDiagnosis
	for _, r := range nicuClaims {
		k := r.Key()
		for _, code := range r.Diagnoses {
			if code == "" {
				continue
			}
			p := pair{key: k, code: code}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, episodeDiagnosis{key: k, code: code})
		}
	}
	return out
}

// assignCategories maps diagnosis codes through a reference category table
// and keeps one category per baby: the lowest category label, tie-broken by
// earliest episode, assigned to the episode that carried it. Category
// labels are built to sort with severity, so the minimum is the most
// severe recorded value.
func assignCategories(dst map[models.EpisodeKey]string, diags []episodeDiagnosis, ref models.CodeMap) {
	if len(ref) == 0 {
		return
	}
	type match struct {
		key      models.EpisodeKey
		category string
	}
	var matches []match
	for _, d := range diags {
		if cat, ok := ref[d.code]; ok {
			matches = append(matches, match{key: d.key, category: cat})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.category != b.category {
			return a.category < b.category
		}
		if !a.key.Admit.Equal(b.key.Admit) {
			return a.key.Admit.Before(b.key.Admit)
		}
		return a.key.Discharge.Before(b.key.Discharge)
	})

	picked := make(map[string]struct{})
	for _, m := range matches {
		if _, ok := picked[m.key.PatientID]; ok {
			continue
		}
		picked[m.key.PatientID] = struct{}{}
		dst[m.key] = m.category
	}
}
