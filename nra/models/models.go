package models

import (
	"time"
)

// ClaimFlags are the boolean reference-match annotations applied by tagging.
type ClaimFlags struct {
	NewbornICD bool
	NewbornRev bool
	Single     bool
	Twin       bool
	Multiple   bool
	NICURev    bool
	NICUMSDRG  bool
	NICUAPRDRG bool
}

// Claim is one billed service line. Immutable once tagged. Optional dates
// carry the zero time when the source column is null; optional strings are
// empty.
type Claim struct {
	PatientID string
	ClaimNo   string

	FromDate      time.Time
	ThruDate      time.Time
	PaidDate      time.Time
	AdmitDate     time.Time
	DischargeDate time.Time
	BirthDate     time.Time

	Diagnoses  []string // up to 5
	Procedures []string // up to 3
	CPTCode    string

	DischargeStatus string
	RevenueCode     string
	DRG             string // 3-digit numeric prefix
	POS             string

	Billed float64
	Paid   float64

	ClaimType string

	ProviderID    string
	ProviderTIN   string
	ProviderName  string
	ProviderState string
	ProviderType  string

	BusinessLine string
	Product      string
	Gender       string
	State        string

	Flags ClaimFlags
}

// HasAnyNICUFlag reports whether any of the three NICU indicators is set.
func (c *Claim) HasAnyNICUFlag() bool {
	return c.Flags.NICURev || c.Flags.NICUMSDRG || c.Flags.NICUAPRDRG
}

// IsNewbornFlagged reports whether the claim looks like a newborn record.
func (c *Claim) IsNewbornFlagged() bool {
	return c.Flags.NewbornICD || c.Flags.NewbornRev
}

// Baby is the per-patient aggregate derived from newborn-flagged claims.
// Identity is (PatientID, BirthDate); recomputed from scratch each run.
type Baby struct {
	PatientID string
	BirthDate time.Time

	BirthPriority   int
	BirthType       string
	DeliveryDate    time.Time
	InInitialWindow bool
	BabyType        string
	Contract        string
}

// CohortClaim is a claim annotated with its baby's derived attributes and
// restricted to service on/after the delivery date.
type CohortClaim struct {
	Claim

	DeliveryDate  time.Time
	BirthPriority int
	BirthType     string
	BabyType      string
	Contract      string
	HighCost      bool
}

// HospitalStay is a maximal run of inpatient claims with no admit gap
// exceeding the configured threshold. LOS is always >= 1.
type HospitalStay struct {
	PatientID    string
	DeliveryDate time.Time
	Ordinal      int

	Admit          time.Time
	Discharge      time.Time
	Paid           float64
	LOS            int
	ExceededRunout bool
}

// EpisodeKey identifies one episode: a hospital stay that survived the
// initial-window filter. All per-episode feature tables key on it.
type EpisodeKey struct {
	PatientID string
	Admit     time.Time
	Discharge time.Time
}

// EpisodeClaim is a cohort claim joined into its stay window.
type EpisodeClaim struct {
	CohortClaim

	Admit     time.Time
	Discharge time.Time
	LOS       int
	StayType  string
	StudyYear string
}

// Key returns the claim's episode key.
func (c *EpisodeClaim) Key() EpisodeKey {
	return EpisodeKey{PatientID: c.PatientID, Admit: c.Admit, Discharge: c.Discharge}
}

// Episode is the stay-level rollup of deduplicated claim lines.
type Episode struct {
	PatientID    string
	BirthDate    time.Time
	DeliveryDate time.Time
	Admit        time.Time
	Discharge    time.Time
	LOS          int
	StayType     string
	BirthType    string
	Contract     string
	BusinessLine string
	Product      string
	StudyYear    string

	Paid     float64
	BabyType string
}

// NewbornRecord aggregates a baby's surviving episodes within one
// (business line, product, study year) grouping.
type NewbornRecord struct {
	PatientID    string
	BirthDate    time.Time
	DeliveryDate time.Time
	BusinessLine string
	Product      string
	StudyYear    string

	Admit     time.Time
	Discharge time.Time
	Paid      float64
	LOS       int
	BabyType  string
	BirthType string
	Contract  string
}

// Key returns the record's episode key.
func (r *NewbornRecord) Key() EpisodeKey {
	return EpisodeKey{PatientID: r.PatientID, Admit: r.Admit, Discharge: r.Discharge}
}

// NicuRecord is the NICU subset of the newborn-level rollup.
type NicuRecord struct {
	NewbornRecord

	TotalNICUCost float64
}

// Provider is a directory entry resolved from the claims feed.
type Provider struct {
	TIN   string
	Name  string
	State string
}

// ProviderAttribution is the single best provider for an episode.
type ProviderAttribution struct {
	EpisodeKey

	ProviderID    string
	ProviderTIN   string
	ProviderName  string
	ProviderState string

	Paid          float64
	HospAdmit     time.Time
	HospDischarge time.Time
	HospLOS       int
}

// RevenueFeature carries the representative NICU revenue code per episode.
type RevenueFeature struct {
	EpisodeKey

	FinalRevenueCode string
	Leveling         bool
}

// DRGFeature carries the representative NICU DRG code per episode.
type DRGFeature struct {
	EpisodeKey

	FinalDRGCode string
}

// ProfessionalFees are the per-episode professional fee splits.
type ProfessionalFees struct {
	Total float64

	Manageable            float64
	ManageableServiceDays int

	CriticalCare     float64
	CriticalCareDays int
}

// Readmission counts later stays starting within the readmission window of
// an episode's discharge.
type Readmission struct {
	Count int
	Paid  float64
	LOS   int
}

// NicuRollup is the complete per-episode NICU feature row.
type NicuRollup struct {
	NicuRecord

	AllProfFee            float64
	ManageableProfFee     float64
	ManageableServiceDays int
	CriticalCareProfFee   float64
	CriticalCareDays      int
	FacilityRoomCost      float64

	Readmissions    int
	ReadmissionPaid float64
	ReadmissionLOS  int

	NAS                    bool
	GestationalAgeCategory string
	BirthweightCategory    string

	FinalRevenueCode string
	RevenueLeveling  bool
	FinalDRGCode     string

	LastDischargeStatus string

	ProviderID    string
	ProviderTIN   string
	ProviderName  string
	ProviderState string

	AllFacilityCost   float64
	LowPaidNICU       bool
	InappropriateNICU bool
}

// NewbornExport is one row of the final wide table. Nicu is nil for
// non-NICU newborns.
type NewbornExport struct {
	NewbornRecord

	Nicu *NicuRollup
}
