package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
)

func nicuRecord(patient string, admit, discharge time.Time, paid float64, los int, contract string) *models.NicuRecord {
	return &models.NicuRecord{
		NewbornRecord: models.NewbornRecord{
			PatientID: patient,
			Admit:     admit,
			Discharge: discharge,
			Paid:      paid,
			LOS:       los,
			BabyType:  constants.BabyTypeNICU,
			Contract:  contract,
		},
		TotalNICUCost: paid,
	}
}

func emptyFeatures() *CostFeatures {
	return &CostFeatures{
		ProfFees:       map[models.EpisodeKey]*models.ProfessionalFees{},
		RoomBoard:      map[models.EpisodeKey]float64{},
		Readmissions:   map[models.EpisodeKey]*models.Readmission{},
		NAS:            map[models.EpisodeKey]bool{},
		Birthweight:    map[models.EpisodeKey]string{},
		GestationalAge: map[models.EpisodeKey]string{},
	}
}

func TestMergeRollupZeroFills(t *testing.T) {
	e := New(DefaultRules())
	rec := nicuRecord("A", d(2024, 1, 1), d(2024, 1, 10), 5000, 9, constants.ContractPerDiem)

	rows := e.MergeRollup([]*models.NicuRecord{rec}, emptyFeatures(), nil, nil, nil, nil)
	assert.Len(t, rows, 1)

	row := rows[0]
	assert.Zero(t, row.AllProfFee)
	assert.Zero(t, row.Readmissions)
	assert.Empty(t, row.FinalRevenueCode)
	assert.Empty(t, row.LastDischargeStatus)
	assert.Equal(t, 5000.0, row.AllFacilityCost)
}

func TestMergeRollupLowPaid(t *testing.T) {
	e := New(DefaultRules())

	tests := []struct {
		name string
		paid float64
		los  int
		want bool
	}{
		{"Below the per-diem floor", 1000, 10, true},
		{"At the per-diem floor", 1500, 10, false},
		{"Above the per-diem floor", 5000, 10, false},
		{"Zero LOS never flags", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := nicuRecord("A", d(2024, 1, 1), d(2024, 1, 10), tt.paid, tt.los, constants.ContractPerDiem)
			rows := e.MergeRollup([]*models.NicuRecord{rec}, emptyFeatures(), nil, nil, nil, nil)
			assert.Equal(t, tt.want, rows[0].LowPaidNICU)
		})
	}
}

func TestMergeRollupInappropriateNICU(t *testing.T) {
	e := New(DefaultRules())

	tests := []struct {
		name     string
		contract string
		los      int
		revCode  string
		want     bool
	}{
		{"DRG, short stay, admission-level revenue", constants.ContractDRG, 4, "170", true},
		{"DRG, short stay, level two revenue", constants.ContractDRG, 4, "171", true},
		{"DRG, short stay, level three revenue", constants.ContractDRG, 4, "172", false},
		{"DRG, long stay", constants.ContractDRG, 6, "170", false},
		{"Per-diem contract", constants.ContractPerDiem, 4, "170", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := nicuRecord("A", d(2024, 1, 1), d(2024, 1, 10), 5000, tt.los, tt.contract)
			rev := []*models.RevenueFeature{{EpisodeKey: rec.Key(), FinalRevenueCode: tt.revCode}}
			rows := e.MergeRollup([]*models.NicuRecord{rec}, emptyFeatures(), rev, nil, nil, nil)
			assert.Equal(t, tt.want, rows[0].InappropriateNICU)
		})
	}
}

func TestMergeRollupJoinsAllFeatures(t *testing.T) {
	e := New(DefaultRules())
	rec := nicuRecord("A", d(2024, 1, 1), d(2024, 1, 10), 5000, 9, constants.ContractDRG)
	key := rec.Key()

	features := emptyFeatures()
	features.ProfFees[key] = &models.ProfessionalFees{Total: 1200, Manageable: 300, ManageableServiceDays: 2, CriticalCare: 800, CriticalCareDays: 3}
	features.RoomBoard[key] = 900
	features.Readmissions[key] = &models.Readmission{Count: 1, Paid: 700, LOS: 4}
	features.NAS[key] = true
	features.Birthweight[key] = "02 - 1000g to 1499g"

	rev := []*models.RevenueFeature{{EpisodeKey: key, FinalRevenueCode: "172", Leveling: true}}
	drg := []*models.DRGFeature{{EpisodeKey: key, FinalDRGCode: "580"}}
	discharge := map[models.EpisodeKey]string{key: "01"}
	providers := []*models.ProviderAttribution{{
		EpisodeKey: key, ProviderID: "NPI1", ProviderTIN: "T1",
		ProviderName: "General Hospital", ProviderState: "CA",
	}}

	rows := e.MergeRollup([]*models.NicuRecord{rec}, features, rev, drg, discharge, providers)
	assert.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 1200.0, row.AllProfFee)
	assert.Equal(t, 300.0, row.ManageableProfFee)
	assert.Equal(t, 2, row.ManageableServiceDays)
	assert.Equal(t, 800.0, row.CriticalCareProfFee)
	assert.Equal(t, 3, row.CriticalCareDays)
	assert.Equal(t, 900.0, row.FacilityRoomCost)
	assert.Equal(t, 1, row.Readmissions)
	assert.True(t, row.NAS)
	assert.Equal(t, "02 - 1000g to 1499g", row.BirthweightCategory)
	assert.Equal(t, "172", row.FinalRevenueCode)
	assert.True(t, row.RevenueLeveling)
	assert.Equal(t, "580", row.FinalDRGCode)
	assert.Equal(t, "01", row.LastDischargeStatus)
	assert.Equal(t, "General Hospital", row.ProviderName)
	// Facility cost nets professional fees out of the NICU total.
	assert.Equal(t, 3800.0, row.AllFacilityCost)
	assert.False(t, row.InappropriateNICU)
}

func TestFinalExportJoinsNicuRollups(t *testing.T) {
	e := New(DefaultRules())

	nicuRec := nicuRecord("A", d(2024, 1, 1), d(2024, 1, 10), 5000, 9, constants.ContractDRG)
	normal := &models.NewbornRecord{
		PatientID: "B",
		Admit:     d(2024, 2, 1),
		Discharge: d(2024, 2, 3),
		BabyType:  constants.BabyTypeNormal,
	}

	rollups := e.MergeRollup([]*models.NicuRecord{nicuRec}, emptyFeatures(), nil, nil, nil, nil)
	export := FinalExport([]*models.NewbornRecord{&nicuRec.NewbornRecord, normal}, rollups)

	assert.Len(t, export, 2)
	assert.NotNil(t, export[0].Nicu)
	assert.Equal(t, 5000.0, export[0].Nicu.TotalNICUCost)
	assert.Nil(t, export[1].Nicu)
}
