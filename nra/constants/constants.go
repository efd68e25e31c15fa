package constants

const Version = "1.2.0"

// Claim types assigned from place of service, revenue, CPT, and DRG codes.
const (
	ClaimTypeInpatient  = "IP"
	ClaimTypeER         = "ER"
	ClaimTypeOutpatient = "OP"
)

// Baby types.
const (
	BabyTypeNICU   = "NICU"
	BabyTypeNormal = "Normal Newborn"
)

// Contract types.
const (
	ContractDRG     = "DRG"
	ContractPerDiem = "Per-Diem"
)

// Birth types, ordered by priority (Multiple > Twin > Single).
const (
	BirthTypeMultiple = "Multiple"
	BirthTypeTwin     = "Twin"
	BirthTypeSingle   = "Single"
	BirthTypeUnknown  = "Unknown"
)

// Stay types.
const (
	StayTypeLong  = "Long Stay"
	StayTypeShort = "Short Stay"
)

// Study years within the 24-month birth window.
const (
	StudyYearPrevious = "Previous"
	StudyYearCurrent  = "Current"
)

// Reference table keys understood by the reference manager.
const (
	RefNewbornICD     = "REF_NEWBORN_ICD"
	RefSingletonICD   = "REF_SINGLETON_ICD"
	RefTwinICD        = "REF_TWIN_ICD"
	RefMultipleICD    = "REF_MULTIPLE_ICD"
	RefBirthweightICD = "REF_BIRTHWEIGHT_ICD"
	RefGestAgeICD     = "REF_GEST_AGE_ICD"
	RefNewbornRevCode = "REF_NEWBORN_REVCODE"
	RefNICURevCode    = "REF_NICU_REVCODE"
	RefNICUMSDRG      = "REF_NICU_MSDRG"
	RefNICUAPRDRG     = "REF_NICU_APRDRG"
)

const UnknownProvider = "Unknown"
