package rollup

import (
	"sort"
	"time"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// EpisodeTables is the output of the episode build: the deduplicated
// claim-line base, the stay-level and newborn-level rollups, the NICU
// subset, and the NICU claim lines that later feature stages consume.
type EpisodeTables struct {
	ClaimBase  []*models.EpisodeClaim
	Episodes   []*models.Episode
	Newborns   []*models.NewbornRecord
	Nicu       []*models.NicuRecord
	NicuClaims []*models.EpisodeClaim
}

// BuildEpisodes joins each baby's claims to its stay windows, filters to
// index hospitalizations (admit inside the initial window and less than the
// readmission threshold after delivery), deduplicates claim lines, and
// rolls up to episode and then newborn level. Window supplies the study
// year split and is derived once per run.
func (e *Engine) BuildEpisodes(claims []*models.CohortClaim, stays []*models.HospitalStay, window utils.BirthWindow) *EpisodeTables {
	staysByPartition := make(map[stayPartition][]*models.HospitalStay)
	for _, s := range stays {
		k := stayPartition{patientID: s.PatientID, deliveryDate: s.DeliveryDate}
		staysByPartition[k] = append(staysByPartition[k], s)
	}

	var joined []*models.EpisodeClaim
	for _, c := range claims {
		if c.HighCost {
			continue
		}
		k := stayPartition{patientID: c.PatientID, deliveryDate: c.DeliveryDate}
		for _, s := range staysByPartition[k] {
			if c.FromDate.Before(s.Admit) || c.FromDate.After(s.Discharge) {
				continue
			}
			stayType := constants.StayTypeShort
			if s.LOS >= e.rules.LongStayDays {
				stayType = constants.StayTypeLong
			}
			studyYear := constants.StudyYearCurrent
			if !c.DeliveryDate.Before(window.Start) && c.DeliveryDate.Before(window.Mid) {
				studyYear = constants.StudyYearPrevious
			}

			admitGap := utils.DaysBetween(c.DeliveryDate, s.Admit)
			inWindow := !s.Admit.After(c.DeliveryDate.AddDate(0, 0, e.rules.InitialWindowDays))
			if admitGap >= e.rules.ReadmitWindowDays || !inWindow {
				continue
			}

			joined = append(joined, &models.EpisodeClaim{
				CohortClaim: *c,
				Admit:       s.Admit,
				Discharge:   s.Discharge,
				LOS:         s.LOS,
				StayType:    stayType,
				StudyYear:   studyYear,
			})
		}
	}

	claimBase := dedupeClaimLines(joined)
	episodes := e.rollupEpisodes(claimBase)
	newborns := e.rollupNewborns(episodes)

	var nicu []*models.NicuRecord
	for _, n := range newborns {
		if n.BabyType == constants.BabyTypeNICU {
			nicu = append(nicu, &models.NicuRecord{NewbornRecord: *n, TotalNICUCost: n.Paid})
		}
	}

	return &EpisodeTables{
		ClaimBase:  claimBase,
		Episodes:   episodes,
		Newborns:   newborns,
		Nicu:       nicu,
		NicuClaims: nicuClaimLines(claimBase, nicu),
	}
}

type claimLineKey struct {
	patientID    string
	deliveryDate time.Time
	claimNo      string
}

// dedupeClaimLines keeps one row per (patient, delivery date, claim number):
// the row with the latest service-thru date, tie-broken by latest
// service-from, then highest paid and lowest revenue code so the winner is a
// pure function of the data.
func dedupeClaimLines(rows []*models.EpisodeClaim) []*models.EpisodeClaim {
	best := make(map[claimLineKey]*models.EpisodeClaim)
	for _, r := range rows {
		k := claimLineKey{patientID: r.PatientID, deliveryDate: r.DeliveryDate, claimNo: r.ClaimNo}
		cur, ok := best[k]
		if !ok || claimLineLess(cur, r) {
			best[k] = r
		}
	}

	out := make([]*models.EpisodeClaim, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		if !a.DeliveryDate.Equal(b.DeliveryDate) {
			return a.DeliveryDate.Before(b.DeliveryDate)
		}
		return a.ClaimNo < b.ClaimNo
	})
	return out
}

// claimLineLess reports whether candidate b should replace current a.
// Zero thru dates sort last, matching descending null-last ordering.
func claimLineLess(a, b *models.EpisodeClaim) bool {
	if !a.ThruDate.Equal(b.ThruDate) {
		return b.ThruDate.After(a.ThruDate)
	}
	if !a.FromDate.Equal(b.FromDate) {
		return b.FromDate.After(a.FromDate)
	}
	if a.Paid != b.Paid {
		return b.Paid > a.Paid
	}
	return b.RevenueCode < a.RevenueCode
}

type episodeGroupKey struct {
	patientID    string
	birthDate    time.Time
	deliveryDate time.Time
	admit        time.Time
	discharge    time.Time
	los          int
	stayType     string
	birthType    string
	contract     string
	businessLine string
	product      string
	studyYear    string
}

// rollupEpisodes aggregates deduplicated claim lines to stay level. The
// baby type is the max over a 0/1 NICU indicator, not a string comparison.
func (e *Engine) rollupEpisodes(claimBase []*models.EpisodeClaim) []*models.Episode {
	type agg struct {
		paid float64
		nicu bool
	}
	groups := make(map[episodeGroupKey]*agg)
	for _, r := range claimBase {
		k := episodeGroupKey{
			patientID:    r.PatientID,
			birthDate:    r.BirthDate,
			deliveryDate: r.DeliveryDate,
			admit:        r.Admit,
			discharge:    r.Discharge,
			los:          r.LOS,
			stayType:     r.StayType,
			birthType:    r.BirthType,
			contract:     r.Contract,
			businessLine: r.BusinessLine,
			product:      r.Product,
			studyYear:    r.StudyYear,
		}
		a, ok := groups[k]
		if !ok {
			a = &agg{}
			groups[k] = a
		}
		a.paid += r.Paid
		a.nicu = a.nicu || r.BabyType == constants.BabyTypeNICU
	}

	episodes := make([]*models.Episode, 0, len(groups))
	for k, a := range groups {
		babyType := constants.BabyTypeNormal
		if a.nicu {
			babyType = constants.BabyTypeNICU
		}
		episodes = append(episodes, &models.Episode{
			PatientID:    k.patientID,
			BirthDate:    k.birthDate,
			DeliveryDate: k.deliveryDate,
			Admit:        k.admit,
			Discharge:    k.discharge,
			LOS:          k.los,
			StayType:     k.stayType,
			BirthType:    k.birthType,
			Contract:     k.contract,
			BusinessLine: k.businessLine,
			Product:      k.product,
			StudyYear:    k.studyYear,
			Paid:         a.paid,
			BabyType:     babyType,
		})
	}
	sort.Slice(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		if !a.Admit.Equal(b.Admit) {
			return a.Admit.Before(b.Admit)
		}
		return a.Discharge.Before(b.Discharge)
	})
	return episodes
}

type newbornGroupKey struct {
	patientID    string
	birthDate    time.Time
	deliveryDate time.Time
	businessLine string
	product      string
	studyYear    string
}

// rollupNewborns aggregates episode rows to one record per newborn per
// (business line, product, study year) grouping, re-deriving LOS, baby
// type, birth type, and contract from the aggregates.
func (e *Engine) rollupNewborns(episodes []*models.Episode) []*models.NewbornRecord {
	type agg struct {
		admit       time.Time
		discharge   time.Time
		paid        float64
		anyNICU     bool
		maxPriority int
		anyDRG      bool
	}
	groups := make(map[newbornGroupKey]*agg)
	for _, ep := range episodes {
		k := newbornGroupKey{
			patientID:    ep.PatientID,
			birthDate:    ep.BirthDate,
			deliveryDate: ep.DeliveryDate,
			businessLine: ep.BusinessLine,
			product:      ep.Product,
			studyYear:    ep.StudyYear,
		}
		a, ok := groups[k]
		if !ok {
			a = &agg{admit: ep.Admit, discharge: ep.Discharge}
			groups[k] = a
		}
		a.admit = utils.MinDate(a.admit, ep.Admit)
		a.discharge = utils.MaxDate(a.discharge, ep.Discharge)
		a.paid += ep.Paid
		a.anyNICU = a.anyNICU || ep.BabyType == constants.BabyTypeNICU
		if p := BirthTypePriority(ep.BirthType); p > a.maxPriority {
			a.maxPriority = p
		}
		a.anyDRG = a.anyDRG || ep.Contract == constants.ContractDRG
	}

	newborns := make([]*models.NewbornRecord, 0, len(groups))
	for k, a := range groups {
		los := utils.DaysBetween(a.admit, a.discharge)
		if a.discharge.Equal(a.admit) {
			los = 1
		}
		babyType := constants.BabyTypeNormal
		if a.anyNICU {
			babyType = constants.BabyTypeNICU
		}
		contract := constants.ContractPerDiem
		if a.anyDRG {
			contract = constants.ContractDRG
		}
		newborns = append(newborns, &models.NewbornRecord{
			PatientID:    k.patientID,
			BirthDate:    k.birthDate,
			DeliveryDate: k.deliveryDate,
			BusinessLine: k.businessLine,
			Product:      k.product,
			StudyYear:    k.studyYear,
			Admit:        a.admit,
			Discharge:    a.discharge,
			Paid:         a.paid,
			LOS:          los,
			BabyType:     babyType,
			BirthType:    BirthTypeLabel(a.maxPriority),
			Contract:     contract,
		})
	}
	sort.Slice(newborns, func(i, j int) bool {
		a, b := newborns[i], newborns[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		if !a.Admit.Equal(b.Admit) {
			return a.Admit.Before(b.Admit)
		}
		return a.Discharge.Before(b.Discharge)
	})
	return newborns
}

// nicuClaimLines projects the claim base onto NICU episode windows: one row
// per base claim whose service date falls inside a NICU record's
// [admit, discharge], re-keyed to that record's window.
func nicuClaimLines(claimBase []*models.EpisodeClaim, nicu []*models.NicuRecord) []*models.EpisodeClaim {
	byPatient := make(map[string][]*models.NicuRecord)
	for _, n := range nicu {
		byPatient[n.PatientID] = append(byPatient[n.PatientID], n)
	}

	var out []*models.EpisodeClaim
	for _, r := range claimBase {
		for _, n := range byPatient[r.PatientID] {
			if r.FromDate.Before(n.Admit) || r.FromDate.After(n.Discharge) {
				continue
			}
			line := *r
			line.Admit = n.Admit
			line.Discharge = n.Discharge
			out = append(out, &line)
		}
	}
	return out
}
