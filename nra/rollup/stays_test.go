package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

func d(y int, m time.Month, day int) time.Time {
	return utils.Date(y, m, day)
}

func ipClaim(patient string, delivery, admit, discharge time.Time, paid float64) *models.CohortClaim {
	return &models.CohortClaim{
		Claim: models.Claim{
			PatientID:     patient,
			FromDate:      admit,
			ThruDate:      discharge,
			AdmitDate:     admit,
			DischargeDate: discharge,
			Paid:          paid,
			ClaimType:     constants.ClaimTypeInpatient,
		},
		DeliveryDate: delivery,
	}
}

func TestStitchStaysMergesWithinGap(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 1, 1)
	runout := d(2024, 6, 30)

	// Two-day gap between discharge and readmit stays within the 4-day
	// threshold, so both claims belong to one continuous stay.
	claims := []*models.CohortClaim{
		ipClaim("A", delivery, d(2024, 1, 1), d(2024, 1, 3), 100),
		ipClaim("A", delivery, d(2024, 1, 5), d(2024, 1, 7), 50),
	}

	stays := e.StitchStays(claims, runout)
	assert.Len(t, stays, 1)
	assert.Equal(t, d(2024, 1, 1), stays[0].Admit)
	assert.Equal(t, d(2024, 1, 7), stays[0].Discharge)
	assert.Equal(t, 6, stays[0].LOS)
	assert.Equal(t, 150.0, stays[0].Paid)
	assert.Equal(t, 1, stays[0].Ordinal)
}

func TestStitchStaysSplitsBeyondGap(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 1, 1)
	runout := d(2024, 6, 30)

	claims := []*models.CohortClaim{
		ipClaim("A", delivery, d(2024, 1, 1), d(2024, 1, 3), 100),
		ipClaim("A", delivery, d(2024, 1, 10), d(2024, 1, 12), 50),
	}

	stays := e.StitchStays(claims, runout)
	assert.Len(t, stays, 2)
	assert.Equal(t, 1, stays[0].Ordinal)
	assert.Equal(t, 2, stays[1].Ordinal)
	assert.Equal(t, d(2024, 1, 10), stays[1].Admit)
}

func TestStitchStaysLOSFloor(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 1, 1)

	// Same-day admit and discharge still counts one day.
	claims := []*models.CohortClaim{
		ipClaim("A", delivery, d(2024, 1, 2), d(2024, 1, 2), 100),
	}

	stays := e.StitchStays(claims, d(2024, 6, 30))
	assert.Len(t, stays, 1)
	assert.Equal(t, 1, stays[0].LOS)
}

func TestStitchStaysCapsAtRunout(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 6, 1)
	runout := d(2024, 6, 30)

	claims := []*models.CohortClaim{
		ipClaim("A", delivery, d(2024, 6, 20), d(2024, 7, 15), 100),
	}

	stays := e.StitchStays(claims, runout)
	assert.Len(t, stays, 1)
	assert.True(t, stays[0].ExceededRunout)
	assert.Equal(t, runout, stays[0].Discharge)
	assert.Equal(t, 10, stays[0].LOS)
}

func TestStitchStaysFloorsAdmitAtDelivery(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 1, 5)

	// Admit precedes delivery but the service date does not, so the claim
	// stays and the stay is floored at the delivery date.
	c := ipClaim("A", delivery, d(2024, 1, 2), d(2024, 1, 10), 100)
	c.FromDate = d(2024, 1, 6)

	stays := e.StitchStays([]*models.CohortClaim{c}, d(2024, 6, 30))
	assert.Len(t, stays, 1)
	assert.Equal(t, delivery, stays[0].Admit)
}

func TestStitchStaysFallsBackToServiceDates(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 1, 1)

	c := ipClaim("A", delivery, d(2024, 1, 2), d(2024, 1, 8), 100)
	c.AdmitDate = time.Time{}
	c.DischargeDate = time.Time{}
	c.FromDate = d(2024, 1, 2)
	c.ThruDate = d(2024, 1, 8)

	stays := e.StitchStays([]*models.CohortClaim{c}, d(2024, 6, 30))
	assert.Len(t, stays, 1)
	assert.Equal(t, d(2024, 1, 2), stays[0].Admit)
	assert.Equal(t, d(2024, 1, 8), stays[0].Discharge)
}

func TestStitchStaysSkipsNonInpatientAndHighCost(t *testing.T) {
	e := New(DefaultRules())
	delivery := d(2024, 1, 1)

	op := ipClaim("A", delivery, d(2024, 1, 1), d(2024, 1, 3), 100)
	op.ClaimType = constants.ClaimTypeOutpatient

	expensive := ipClaim("A", delivery, d(2024, 1, 1), d(2024, 1, 3), 100)
	expensive.HighCost = true

	stays := e.StitchStays([]*models.CohortClaim{op, expensive}, d(2024, 6, 30))
	assert.Empty(t, stays)
}
