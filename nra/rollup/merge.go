package rollup

import (
	"sort"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// MergeRollup left-joins every per-episode feature table onto the NICU
// records and derives the final classification flags. Missing features
// zero-fill: a NICU stay with no professional lines still produces a row.
func (e *Engine) MergeRollup(
	nicu []*models.NicuRecord,
	features *CostFeatures,
	revenue []*models.RevenueFeature,
	drg []*models.DRGFeature,
	discharge map[models.EpisodeKey]string,
	providers []*models.ProviderAttribution,
) []*models.NicuRollup {
	revByKey := make(map[models.EpisodeKey]*models.RevenueFeature, len(revenue))
	for _, r := range revenue {
		revByKey[r.EpisodeKey] = r
	}
	drgByKey := make(map[models.EpisodeKey]*models.DRGFeature, len(drg))
	for _, d := range drg {
		drgByKey[d.EpisodeKey] = d
	}
	provByKey := make(map[models.EpisodeKey]*models.ProviderAttribution, len(providers))
	for _, p := range providers {
		provByKey[p.EpisodeKey] = p
	}

	out := make([]*models.NicuRollup, 0, len(nicu))
	for _, n := range nicu {
		k := n.Key()
		row := &models.NicuRollup{NicuRecord: *n}

		if fees, ok := features.ProfFees[k]; ok {
			row.AllProfFee = fees.Total
			row.ManageableProfFee = fees.Manageable
			row.ManageableServiceDays = fees.ManageableServiceDays
			row.CriticalCareProfFee = fees.CriticalCare
			row.CriticalCareDays = fees.CriticalCareDays
		}
		row.FacilityRoomCost = features.RoomBoard[k]
		if re, ok := features.Readmissions[k]; ok {
			row.Readmissions = re.Count
			row.ReadmissionPaid = re.Paid
			row.ReadmissionLOS = re.LOS
		}
		row.NAS = features.NAS[k]
		row.BirthweightCategory = features.Birthweight[k]
		row.GestationalAgeCategory = features.GestationalAge[k]

		if r, ok := revByKey[k]; ok {
			row.FinalRevenueCode = r.FinalRevenueCode
			row.RevenueLeveling = r.Leveling
		}
		if d, ok := drgByKey[k]; ok {
			row.FinalDRGCode = d.FinalDRGCode
		}
		row.LastDischargeStatus = discharge[k]
		if p, ok := provByKey[k]; ok {
			row.ProviderID = p.ProviderID
			row.ProviderTIN = p.ProviderTIN
			row.ProviderName = p.ProviderName
			row.ProviderState = p.ProviderState
		}

		row.AllFacilityCost = row.TotalNICUCost - row.AllProfFee
		row.LowPaidNICU = row.LOS > 0 && row.TotalNICUCost/float64(row.LOS) < e.rules.LowPaidPerDiem
		row.InappropriateNICU = row.Contract == constants.ContractDRG &&
			row.LOS <= e.rules.InappropriateMaxLOS &&
			utils.ContainsString(e.rules.InappropriateRevCodes, row.FinalRevenueCode)

		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return episodeKeyLess(out[i].Key(), out[j].Key()) })
	return out
}

// FinalExport joins the NICU rollup back onto the full newborn table. Every
// newborn produces a row; non-NICU babies carry a nil NICU block.
func FinalExport(newborns []*models.NewbornRecord, rollups []*models.NicuRollup) []*models.NewbornExport {
	byKey := make(map[models.EpisodeKey]*models.NicuRollup, len(rollups))
	for _, r := range rollups {
		byKey[r.Key()] = r
	}

	out := make([]*models.NewbornExport, 0, len(newborns))
	for _, n := range newborns {
		out = append(out, &models.NewbornExport{
			NewbornRecord: *n,
			Nicu:          byKey[n.Key()],
		})
	}
	sort.Slice(out, func(i, j int) bool { return episodeKeyLess(out[i].Key(), out[j].Key()) })
	return out
}
