package rollup

import (
	"sort"
	"time"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

type stayPartition struct {
	patientID    string
	deliveryDate time.Time
}

type stitchRow struct {
	claim     *models.CohortClaim
	admit     time.Time
	discharge time.Time
}

// StitchStays groups each baby's eligible inpatient claims into continuous
// hospital stays. A new stay starts whenever the gap between a claim's
// admit date and the previous claim's discharge date exceeds the configured
// threshold. Stays are capped at the runout boundary, floored at the
// delivery date, and discarded when the resulting LOS is under one day.
func (e *Engine) StitchStays(claims []*models.CohortClaim, runoutEnd time.Time) []*models.HospitalStay {
	parts := make(map[stayPartition][]stitchRow)
	for _, c := range claims {
		if c.ClaimType != constants.ClaimTypeInpatient || c.HighCost {
			continue
		}
		admit := utils.Coalesce(c.AdmitDate, c.FromDate)
		discharge := utils.Coalesce(c.DischargeDate, c.ThruDate)
		if admit.Before(c.DeliveryDate) && c.FromDate.Before(c.DeliveryDate) {
			continue
		}
		k := stayPartition{patientID: c.PatientID, deliveryDate: c.DeliveryDate}
		parts[k] = append(parts[k], stitchRow{claim: c, admit: admit, discharge: discharge})
	}

	keys := make([]stayPartition, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].patientID != keys[j].patientID {
			return keys[i].patientID < keys[j].patientID
		}
		return keys[i].deliveryDate.Before(keys[j].deliveryDate)
	})

	var stays []*models.HospitalStay
	for _, k := range keys {
		rows := parts[k]
		sort.SliceStable(rows, func(i, j int) bool {
			if !rows[i].admit.Equal(rows[j].admit) {
				return rows[i].admit.Before(rows[j].admit)
			}
			return rows[i].discharge.Before(rows[j].discharge)
		})

		var (
			current *models.HospitalStay
			prevDis time.Time
			ordinal int
		)
		for _, r := range rows {
			newStay := current == nil ||
				prevDis.IsZero() ||
				utils.DaysBetween(prevDis, r.admit) > e.rules.HospitalGapDays
			if newStay {
				ordinal++
				current = &models.HospitalStay{
					PatientID:    k.patientID,
					DeliveryDate: k.deliveryDate,
					Ordinal:      ordinal,
					Admit:        r.admit,
					Discharge:    r.discharge,
				}
				stays = append(stays, current)
			} else {
				current.Admit = utils.MinDate(current.Admit, r.admit)
				current.Discharge = utils.MaxDate(current.Discharge, r.discharge)
			}
			current.Paid += r.claim.Paid
			prevDis = r.discharge
		}
	}

	out := stays[:0]
	for _, s := range stays {
		if s.Discharge.After(runoutEnd) {
			s.ExceededRunout = true
			s.Discharge = runoutEnd
		}
		s.Admit = utils.MaxDate(s.Admit, s.DeliveryDate)

		s.LOS = utils.DaysBetween(s.Admit, s.Discharge)
		if s.Discharge.Equal(s.Admit) {
			// A stay cannot have zero duration.
			s.LOS = 1
		}
		if s.LOS >= 1 {
			out = append(out, s)
		}
	}

	return out
}
