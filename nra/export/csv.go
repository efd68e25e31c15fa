// Package export writes the newborn rollup to local CSV files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/perinatalhealth/nra-app/log"
	"github.com/perinatalhealth/nra-app/nra/models"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatBool(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// WriteCSV writes the rollup rows to path atomically: the file is staged
// alongside the target and renamed into place, so readers never observe a
// partial export.
func WriteCSV(rows []*models.NewbornExport, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to stage export file")
	}
	defer os.Remove(tmp.Name())

	if err := writeFrame(rows, tmp); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write export file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to flush export file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "failed to finalize export file")
	}

	log.Export.WithField("file", path).Infof("Exported %d newborn rollup rows", len(rows))
	return nil
}

var exportColumns = []string{
	"INDV_ID", "BIRTH_DT", "DELIVERY_DT", "LOB", "PRODUCT", "STUDY_YEAR",
	"ADMIT_DT", "DSCHRG_DT", "PAID", "LOS", "BABY_TYPE", "BIRTH_TYPE", "CONTRACT",
	"NICU_COST", "ALL_PROF_FEE", "MANAGEABLE_PROF_FEE", "MANAGEABLE_DAYS",
	"CRITICAL_CARE_PROF_FEE", "CRITICAL_CARE_DAYS", "FACILITY_ROOM_COST",
	"READMISSIONS", "READMISSION_PAID", "READMISSION_LOS",
	"NAS", "GEST_AGE_CATEGORY", "BIRTHWEIGHT_CATEGORY",
	"FINAL_REV_CD", "REV_LEVELING", "FINAL_DRG_CD", "LAST_DSCHRG_STS",
	"PROV_ID", "PROV_TIN", "PROV_NAME", "PROV_STATE",
	"ALL_FACILITY_COST", "LOW_PAID_NICU", "INAPPROPRIATE_NICU",
}

func writeFrame(rows []*models.NewbornExport, w io.Writer) error {
	// An empty cohort still produces a valid file with the header row,
	// which gota cannot represent as a frame.
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(exportColumns, ",")+"\n")
		return err
	}
	df := buildFrame(rows)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

func buildFrame(rows []*models.NewbornExport) dataframe.DataFrame {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, exportColumns)
	for _, r := range rows {
		rec := []string{
			r.PatientID, formatDate(r.BirthDate), formatDate(r.DeliveryDate),
			r.BusinessLine, r.Product, r.StudyYear,
			formatDate(r.Admit), formatDate(r.Discharge),
			formatAmount(r.Paid), strconv.Itoa(r.LOS),
			r.BabyType, r.BirthType, r.Contract,
		}
		if n := r.Nicu; n != nil {
			rec = append(rec,
				formatAmount(n.TotalNICUCost), formatAmount(n.AllProfFee),
				formatAmount(n.ManageableProfFee), strconv.Itoa(n.ManageableServiceDays),
				formatAmount(n.CriticalCareProfFee), strconv.Itoa(n.CriticalCareDays),
				formatAmount(n.FacilityRoomCost),
				strconv.Itoa(n.Readmissions), formatAmount(n.ReadmissionPaid), strconv.Itoa(n.ReadmissionLOS),
				formatBool(n.NAS), n.GestationalAgeCategory, n.BirthweightCategory,
				n.FinalRevenueCode, formatBool(n.RevenueLeveling), n.FinalDRGCode, n.LastDischargeStatus,
				n.ProviderID, n.ProviderTIN, n.ProviderName, n.ProviderState,
				formatAmount(n.AllFacilityCost), formatBool(n.LowPaidNICU), formatBool(n.InappropriateNICU),
			)
		} else {
			for len(rec) < len(exportColumns) {
				rec = append(rec, "")
			}
		}
		if len(rec) != len(exportColumns) {
			return dataframe.DataFrame{Err: fmt.Errorf("export row has %d columns, want %d", len(rec), len(exportColumns))}
		}
		records = append(records, rec)
	}
	return dataframe.LoadRecords(records, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
}
