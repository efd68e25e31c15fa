package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perinatalhealth/nra-app/nra/constants"
	nraerrors "github.com/perinatalhealth/nra-app/nra/errors"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

func TestAssignClaimTypes(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*models.Claim)
		want string
	}{
		{"Inpatient place of service", func(c *models.Claim) { c.POS = "21" }, constants.ClaimTypeInpatient},
		{"Room and board revenue code", func(c *models.Claim) { c.RevenueCode = "0150" }, constants.ClaimTypeInpatient},
		{"Revenue range lower bound", func(c *models.Claim) { c.RevenueCode = "0100" }, constants.ClaimTypeInpatient},
		{"Revenue range upper bound", func(c *models.Claim) { c.RevenueCode = "0210" }, constants.ClaimTypeInpatient},
		{"Inpatient ancillary revenue", func(c *models.Claim) { c.RevenueCode = "0987" }, constants.ClaimTypeInpatient},
		{"Initial hospital care CPT", func(c *models.Claim) { c.CPTCode = "99223" }, constants.ClaimTypeInpatient},
		{"Inpatient consult CPT", func(c *models.Claim) { c.CPTCode = "99253" }, constants.ClaimTypeInpatient},
		{"DRG present", func(c *models.Claim) { c.DRG = "580" }, constants.ClaimTypeInpatient},
		{"Emergency place of service", func(c *models.Claim) { c.POS = "23" }, constants.ClaimTypeER},
		{"Emergency visit CPT", func(c *models.Claim) { c.CPTCode = "99284" }, constants.ClaimTypeER},
		{"Emergency revenue prefix", func(c *models.Claim) { c.RevenueCode = "0450" }, constants.ClaimTypeER},
		{"Urgent care revenue", func(c *models.Claim) { c.RevenueCode = "0981" }, constants.ClaimTypeER},
		{"No markers", func(c *models.Claim) {}, constants.ClaimTypeOutpatient},
		// A claim carrying both inpatient and emergency markers is
		// inpatient.
		{"Inpatient beats emergency", func(c *models.Claim) { c.POS = "23"; c.DRG = "580" }, constants.ClaimTypeInpatient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Claim{PatientID: "A", ClaimNo: "C1"}
			tt.mod(c)
			AssignClaimTypes([]*models.Claim{c})
			assert.Equal(t, tt.want, c.ClaimType)
		})
	}
}

func TestIdentifyNewbornKeys(t *testing.T) {
	rows := []*models.Claim{
		{PatientID: "C", Flags: models.ClaimFlags{NewbornRev: true}},
		{PatientID: "A", Flags: models.ClaimFlags{NewbornICD: true}},
		{PatientID: "B"},
		{PatientID: "A", Flags: models.ClaimFlags{NICURev: true}},
		{PatientID: "", Flags: models.ClaimFlags{NewbornICD: true}},
	}

	keys := IdentifyNewbornKeys(rows)
	assert.Equal(t, []string{"A", "C"}, keys)
}

func TestValidate(t *testing.T) {
	good := &models.Claim{PatientID: "A", ClaimNo: "C1", FromDate: utils.Date(2024, 1, 1)}
	assert.NoError(t, Validate([]*models.Claim{good}))

	missing := &models.Claim{ClaimNo: "C1", FromDate: utils.Date(2024, 1, 1)}
	err := Validate([]*models.Claim{good, missing})
	assert.Error(t, err)

	var mce *nraerrors.MissingColumnError
	assert.ErrorAs(t, err, &mce)
	assert.Equal(t, "patient id", mce.Column)
}
