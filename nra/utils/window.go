package utils

import (
	"time"

	"github.com/perinatalhealth/nra-app/nra/errors"
	"github.com/perinatalhealth/nra-app/nra/models"
)

// BirthWindow is the derived study window: births are identified inside
// [Start, End], split into Previous/Current study years at Mid, with claims
// considered fully adjudicated through RunoutEnd.
type BirthWindow struct {
	Start     time.Time
	End       time.Time
	Mid       time.Time
	RunoutEnd time.Time
}

// CalculateBirthWindow derives the birth and runout windows from the claims
// feed's date coverage. The runout ends at the last complete month of
// service data and spans runoutMonths back; the birth window is the
// birthMonths before the runout start, split in half at Mid.
func CalculateBirthWindow(dr models.ClaimsDateRange, minMonths, birthMonths, runoutMonths int) (BirthWindow, error) {
	if dr.MinFromDate.IsZero() || dr.MaxFromDate.IsZero() {
		return BirthWindow{}, &errors.InvalidDateRangeError{Msg: "service-from date range is empty, cannot determine birth window"}
	}

	months := MonthsSpanned(dr.MinFromDate, dr.MaxFromDate)
	if months < minMonths {
		return BirthWindow{}, &errors.InsufficientHistoryError{Months: months, Required: minMonths}
	}

	maxFrom := DateOnly(dr.MaxFromDate)
	lastCompleteMonthEnd := Date(maxFrom.Year(), maxFrom.Month(), 1).AddDate(0, 0, -1)

	runoutEnd := lastCompleteMonthEnd
	runoutStart := AddMonths(runoutEnd, -runoutMonths).AddDate(0, 0, 1)
	birthEnd := runoutStart.AddDate(0, 0, -1)
	birthStart := AddMonths(birthEnd, -birthMonths).AddDate(0, 0, 1)
	mid := AddMonths(birthStart, birthMonths/2)

	return BirthWindow{
		Start:     birthStart,
		End:       birthEnd,
		Mid:       mid,
		RunoutEnd: runoutEnd,
	}, nil
}
