package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/perinatalhealth/nra-app/nra/constants"
	nraerrors "github.com/perinatalhealth/nra-app/nra/errors"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/reference"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

type fakeRepository struct {
	dateRange models.ClaimsDateRange
	claims    []*models.Claim
	refCodes  map[string][]models.ReferenceCode

	dateRangeErr error

	savedClient string
	savedRunID  string
	savedRows   []*models.NewbornExport
	saveCalls   int
}

func (f *fakeRepository) GetClaimsDateRange(ctx context.Context, client string) (models.ClaimsDateRange, error) {
	if f.dateRangeErr != nil {
		return models.ClaimsDateRange{}, f.dateRangeErr
	}
	return f.dateRange, nil
}

func (f *fakeRepository) GetClaims(ctx context.Context, client string, window models.ClaimsWindow) ([]*models.Claim, error) {
	return f.claims, nil
}

func (f *fakeRepository) GetReferenceCodes(ctx context.Context, table string) ([]models.ReferenceCode, error) {
	return f.refCodes[table], nil
}

func (f *fakeRepository) SaveNewbornRollup(ctx context.Context, client, runID string, rows []*models.NewbornExport) error {
	f.savedClient = client
	f.savedRunID = runID
	f.savedRows = rows
	f.saveCalls++
	return nil
}

func testConfig() *Config {
	return &Config{
		Client:            "acme",
		MinHistoryMonths:  24,
		BirthWindowMonths: 24,
		RunoutMonths:      3,

		HospitalGapDays:   4,
		InitialWindowDays: 4,
		ReadmitWindowDays: 30,
		LongStayDays:      3,

		HighCostCeiling: 500000,
		LowPaidPerDiem:  150,

		InappropriateMaxLOS:   5,
		InappropriateRevCodes: []string{"170", "171"},

		NICURevMin: 170, NICURevMax: 179,
		NICUMSDRGMin: 580, NICUMSDRGMax: 640,
		NICUAPRDRGMin: 789, NICUAPRDRGMax: 795,

		RoomBoardPrefixes: []string{"011", "012", "013", "014", "015", "016", "017", "020"},
		ManageableCPTs:    []string{"99231", "99232", "99233"},
		CriticalCareCPTs:  []string{"99468", "99469"},
		NASDiagnosisCode:  "P961",
	}
}

func testRepository() *fakeRepository {
	return &fakeRepository{
		dateRange: models.ClaimsDateRange{
			MinFromDate: utils.Date(2022, time.January, 5),
			MaxFromDate: utils.Date(2024, time.July, 20),
			MaxPaidDate: utils.Date(2024, time.August, 1),
		},
		refCodes: map[string][]models.ReferenceCode{
			constants.RefNewbornICD:  {{Code: "Z380"}},
			constants.RefNICURevCode: {{Code: "0172"}},
			constants.RefNICUMSDRG:   {{Code: "580"}},
		},
	}
}

func newTestService(repo *fakeRepository) Service {
	return NewService(repo, reference.NewManager(repo), testConfig())
}

func nicuClaim() *models.Claim {
	return &models.Claim{
		PatientID:       "A",
		ClaimNo:         "C1",
		FromDate:        utils.Date(2024, time.January, 5),
		ThruDate:        utils.Date(2024, time.January, 10),
		AdmitDate:       utils.Date(2024, time.January, 5),
		DischargeDate:   utils.Date(2024, time.January, 10),
		BirthDate:       utils.Date(2024, time.January, 5),
		Diagnoses:       []string{"Z380"},
		RevenueCode:     "0172",
		DRG:             "580",
		DischargeStatus: "01",
		Paid:            5000,
		ProviderID:      "NPI1",
		ProviderTIN:     "T1",
		ProviderName:    "General Hospital",
		ProviderState:   "CA",
	}
}

func TestCalculateWindow(t *testing.T) {
	s := newTestService(testRepository())

	window, err := s.CalculateWindow(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, utils.Date(2024, time.June, 30), window.RunoutEnd)
	assert.Equal(t, utils.Date(2024, time.March, 30), window.End)
	assert.Equal(t, utils.Date(2022, time.March, 31), window.Start)
}

func TestCalculateWindowInsufficientHistory(t *testing.T) {
	repo := testRepository()
	repo.dateRange.MinFromDate = utils.Date(2024, time.January, 5)
	s := newTestService(repo)

	_, err := s.CalculateWindow(context.Background())
	var ihe *nraerrors.InsufficientHistoryError
	assert.ErrorAs(t, err, &ihe)
}

func TestRunRollup(t *testing.T) {
	repo := testRepository()
	repo.claims = []*models.Claim{
		nicuClaim(),
		// Unflagged patient that never joins the cohort.
		{PatientID: "B", ClaimNo: "C9", FromDate: utils.Date(2024, time.February, 1), Paid: 100},
	}
	s := newTestService(repo)

	result, err := s.RunRollup(context.Background())
	assert.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.NewbornKeys)
	assert.Equal(t, 1, result.Newborns)
	assert.Equal(t, 1, result.NicuNewborns)

	assert.Len(t, result.Export, 1)
	row := result.Export[0]
	assert.Equal(t, "A", row.PatientID)
	assert.Equal(t, constants.BabyTypeNICU, row.BabyType)
	assert.NotNil(t, row.Nicu)
	assert.Equal(t, 5000.0, row.Nicu.TotalNICUCost)
	assert.Equal(t, constants.ContractDRG, row.Contract)
	assert.Equal(t, "General Hospital", row.Nicu.ProviderName)

	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, "acme", repo.savedClient)
	assert.Equal(t, result.RunID, repo.savedRunID)
	assert.Equal(t, result.Export, repo.savedRows)
}

func TestRunRollupEmptyCohort(t *testing.T) {
	repo := testRepository()
	repo.claims = []*models.Claim{
		{PatientID: "B", ClaimNo: "C9", FromDate: utils.Date(2024, time.February, 1), Paid: 100},
	}
	s := newTestService(repo)

	result, err := s.RunRollup(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, result.Newborns)
	assert.Empty(t, result.Export)

	// The previous output is still replaced, now with zero rows.
	assert.Equal(t, 1, repo.saveCalls)
	assert.Empty(t, repo.savedRows)
}

func TestRunRollupValidationFailure(t *testing.T) {
	repo := testRepository()
	repo.claims = []*models.Claim{
		{ClaimNo: "C1", FromDate: utils.Date(2024, time.January, 5)},
	}
	s := newTestService(repo)

	_, err := s.RunRollup(context.Background())
	assert.Error(t, err)

	var mce *nraerrors.MissingColumnError
	assert.ErrorAs(t, err, &mce)
	assert.Zero(t, repo.saveCalls)
}

func TestRunRollupDateRangeFailure(t *testing.T) {
	repo := testRepository()
	repo.dateRangeErr = assert.AnError
	s := newTestService(repo)

	_, err := s.RunRollup(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to determine claims date coverage")
	assert.Zero(t, repo.saveCalls)
}
