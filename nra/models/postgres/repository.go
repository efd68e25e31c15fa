// Package postgres implements models.Repository against the claims
// warehouse.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/perinatalhealth/nra-app/nra/models"
)

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type executable interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const (
	sqlFlavor = sqlbuilder.PostgreSQL

	rollupTable = "newborn_rollup"
	refSchema   = "supp_data"

	// insertBatchSize keeps multi-row inserts under the Postgres
	// placeholder limit.
	insertBatchSize = 500
)

// Ensure Repository satisfies the interface
var _ models.Repository = &Repository{}

type Repository struct {
	queryable
	executable
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db, db}
}

func NewRepositoryTx(tx *sql.Tx) *Repository {
	return &Repository{tx, tx}
}

var clientPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// claimsTable maps a client identifier to its claims table. The identifier
// is interpolated into SQL, so it is restricted to word characters.
func claimsTable(client string) (string, error) {
	if !clientPattern.MatchString(client) {
		return "", fmt.Errorf("invalid client identifier %q", client)
	}
	return "fa_medical_" + strings.ToLower(client), nil
}

func (r *Repository) GetClaimsDateRange(ctx context.Context, client string) (models.ClaimsDateRange, error) {
	var dr models.ClaimsDateRange

	table, err := claimsTable(client)
	if err != nil {
		return dr, err
	}

	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("MIN(srvc_from_dt)", "MAX(srvc_from_dt)", "MAX(process_dt)")
	sb.From(table)

	query, args := sb.Build()
	row := r.QueryRowContext(ctx, query, args...)

	var minFrom, maxFrom, maxPaid sql.NullTime
	if err := row.Scan(&minFrom, &maxFrom, &maxPaid); err != nil {
		return dr, err
	}

	dr.MinFromDate = minFrom.Time
	dr.MaxFromDate = maxFrom.Time
	dr.MaxPaidDate = maxPaid.Time
	return dr, nil
}

var claimColumns = []string{
	"indv_id", "claimno",
	"srvc_from_dt", "srvc_thru_dt", "process_dt", "admit_dt", "dschrg_dt", "birth_dt",
	"diag_1_cd", "diag_2_cd", "diag_3_cd", "diag_4_cd", "diag_5_cd",
	"proc_1_cd", "proc_2_cd", "proc_3_cd", "proc_cd",
	"dschrg_sts", "rvnu_cd", "drg", "pl_of_srvc_cd",
	"sbmt_chrg_amt", "net_pd_amt",
	"prov_npi", "prov_tin", "prov_full_nm", "prov_state", "prov_typ_cd",
	"lob_cd", "prod_cd", "gndr_cd", "state_cd",
}

func (r *Repository) GetClaims(ctx context.Context, client string, window models.ClaimsWindow) ([]*models.Claim, error) {
	table, err := claimsTable(client)
	if err != nil {
		return nil, err
	}

	sb := sqlFlavor.NewSelectBuilder()
	sb.Select(claimColumns...)
	sb.From(table)
	sb.Where(
		sb.IsNotNull("indv_id"),
		sb.GreaterEqualThan("srvc_from_dt", window.BirthStart),
		sb.LessEqualThan("srvc_from_dt", window.BirthEnd),
		sb.LessEqualThan("process_dt", window.RunoutEnd),
	)
	sb.OrderBy("indv_id", "claimno", "srvc_from_dt")

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func scanClaim(rows *sql.Rows) (*models.Claim, error) {
	var (
		c models.Claim

		thru, paid, admit, discharge, birth         sql.NullTime
		diags                                       [5]sql.NullString
		procs                                       [3]sql.NullString
		cpt, status, rev, drg, pos                  sql.NullString
		billed, amtPaid                             sql.NullFloat64
		provID, provTIN, provName, provState, pType sql.NullString
		lob, product, gender, state                 sql.NullString
	)

	err := rows.Scan(
		&c.PatientID, &c.ClaimNo,
		&c.FromDate, &thru, &paid, &admit, &discharge, &birth,
		&diags[0], &diags[1], &diags[2], &diags[3], &diags[4],
		&procs[0], &procs[1], &procs[2], &cpt,
		&status, &rev, &drg, &pos,
		&billed, &amtPaid,
		&provID, &provTIN, &provName, &provState, &pType,
		&lob, &product, &gender, &state,
	)
	if err != nil {
		return nil, err
	}

	c.ThruDate = thru.Time
	c.PaidDate = paid.Time
	c.AdmitDate = admit.Time
	c.DischargeDate = discharge.Time
	c.BirthDate = birth.Time

	for _, d := range diags {
		if d.String != "" {
			c.Diagnoses = append(c.Diagnoses, d.String)
		}
	}
	for _, p := range procs {
		if p.String != "" {
			c.Procedures = append(c.Procedures, p.String)
		}
	}

	c.CPTCode = cpt.String
	c.DischargeStatus = status.String
	c.RevenueCode = rev.String
	c.POS = pos.String
	c.Billed = billed.Float64
	c.Paid = amtPaid.Float64

	// The DRG column is stored at full width; downstream matching keys on
	// the 3-digit prefix.
	c.DRG = drg.String
	if len(c.DRG) > 3 {
		c.DRG = c.DRG[:3]
	}

	c.ProviderID = provID.String
	c.ProviderTIN = provTIN.String
	c.ProviderName = provName.String
	c.ProviderState = provState.String
	c.ProviderType = pType.String

	c.BusinessLine = lob.String
	c.Product = product.String
	c.Gender = gender.String
	c.State = state.String

	return &c, nil
}

var refTablePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func (r *Repository) GetReferenceCodes(ctx context.Context, table string) ([]models.ReferenceCode, error) {
	if !refTablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid reference table name %q", table)
	}

	sb := sqlFlavor.NewSelectBuilder()
	sb.Select("code", "COALESCE(description, '')")
	sb.From(refSchema + "." + strings.ToLower(table))

	query, args := sb.Build()
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []models.ReferenceCode
	for rows.Next() {
		var rc models.ReferenceCode
		if err := rows.Scan(&rc.Code, &rc.Description); err != nil {
			return nil, err
		}
		codes = append(codes, rc)
	}
	return codes, rows.Err()
}

// SaveNewbornRollup replaces the client's rollup rows. The caller supplies
// a transaction-scoped repository so the delete and inserts commit
// together; a failed run leaves the previous output intact.
func (r *Repository) SaveNewbornRollup(ctx context.Context, client, runID string, rows []*models.NewbornExport) error {
	if !clientPattern.MatchString(client) {
		return fmt.Errorf("invalid client identifier %q", client)
	}

	db := sqlFlavor.NewDeleteBuilder()
	db.DeleteFrom(rollupTable)
	db.Where(db.Equal("client", client))

	query, args := db.Build()
	if _, err := r.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to clear previous rollup rows")
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := r.insertRollupRows(ctx, client, runID, rows[start:end]); err != nil {
			return errors.Wrap(err, "failed to insert rollup rows")
		}
	}
	return nil
}

var rollupColumns = []string{
	"client", "run_id",
	"indv_id", "birth_dt", "delivery_dt", "lob_cd", "prod_cd", "study_year",
	"admit_dt", "dschrg_dt", "paid", "los", "baby_type", "birth_type", "contract_type",
	"nicu_cost", "all_prof_fee", "manageable_prof_fee", "manageable_days",
	"critical_care_prof_fee", "critical_care_days", "facility_room_cost",
	"readmissions", "readmission_paid", "readmission_los",
	"nas", "gest_age_category", "birthweight_category",
	"final_rev_cd", "rev_leveling", "final_drg_cd", "last_dschrg_sts",
	"prov_npi", "prov_tin", "prov_full_nm", "prov_state",
	"all_facility_cost", "low_paid_nicu", "inappropriate_nicu",
}

func (r *Repository) insertRollupRows(ctx context.Context, client, runID string, rows []*models.NewbornExport) error {
	ib := sqlFlavor.NewInsertBuilder()
	ib.InsertInto(rollupTable)
	ib.Cols(rollupColumns...)

	for _, row := range rows {
		values := []interface{}{
			client, runID,
			row.PatientID, nullableDate(row.BirthDate), nullableDate(row.DeliveryDate),
			row.BusinessLine, row.Product, row.StudyYear,
			nullableDate(row.Admit), nullableDate(row.Discharge),
			row.Paid, row.LOS, row.BabyType, row.BirthType, row.Contract,
		}
		if n := row.Nicu; n != nil {
			values = append(values,
				n.TotalNICUCost, n.AllProfFee, n.ManageableProfFee, n.ManageableServiceDays,
				n.CriticalCareProfFee, n.CriticalCareDays, n.FacilityRoomCost,
				n.Readmissions, n.ReadmissionPaid, n.ReadmissionLOS,
				n.NAS, n.GestationalAgeCategory, n.BirthweightCategory,
				n.FinalRevenueCode, n.RevenueLeveling, n.FinalDRGCode, n.LastDischargeStatus,
				n.ProviderID, n.ProviderTIN, n.ProviderName, n.ProviderState,
				n.AllFacilityCost, n.LowPaidNICU, n.InappropriateNICU,
			)
		} else {
			nulls := make([]interface{}, len(rollupColumns)-len(values))
			values = append(values, nulls...)
		}
		ib.Values(values...)
	}

	query, args := ib.Build()
	_, err := r.ExecContext(ctx, query, args...)
	return err
}

func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
