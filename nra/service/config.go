package service

import (
	"errors"

	"github.com/perinatalhealth/nra-app/conf"
	"github.com/perinatalhealth/nra-app/log"
	"github.com/perinatalhealth/nra-app/nra/rollup"
)

// Config carries every tunable the rollup pipeline reads. Values resolve
// from the environment once at startup; the zero-config defaults are the
// documented production thresholds.
type Config struct {
	Client string `conf:"NRA_CLIENT_DATA"`

	MinHistoryMonths  int `conf:"NRA_MIN_HISTORY_MONTHS" conf_default:"24"`
	BirthWindowMonths int `conf:"NRA_BIRTH_WINDOW_MONTHS" conf_default:"24"`
	RunoutMonths      int `conf:"NRA_RUNOUT_MONTHS" conf_default:"3"`

	HospitalGapDays   int `conf:"NRA_HOSPITAL_GAP_DAYS" conf_default:"4"`
	InitialWindowDays int `conf:"NRA_INITIAL_WINDOW_DAYS" conf_default:"4"`
	ReadmitWindowDays int `conf:"NRA_READMIT_WINDOW_DAYS" conf_default:"30"`
	LongStayDays      int `conf:"NRA_LONG_STAY_DAYS" conf_default:"3"`

	HighCostCeiling float64 `conf:"NRA_HIGH_COST_CEILING" conf_default:"500000"`
	LowPaidPerDiem  float64 `conf:"NRA_LOW_PAID_PER_DIEM" conf_default:"150"`

	InappropriateMaxLOS   int      `conf:"NRA_INAPPROPRIATE_MAX_LOS" conf_default:"5"`
	InappropriateRevCodes []string `conf:"NRA_INAPPROPRIATE_REV_CODES" conf_default:"170,171"`

	NICURevMin int `conf:"NRA_NICU_REV_MIN" conf_default:"170"`
	NICURevMax int `conf:"NRA_NICU_REV_MAX" conf_default:"179"`

	NICUMSDRGMin  int `conf:"NRA_NICU_MSDRG_MIN" conf_default:"580"`
	NICUMSDRGMax  int `conf:"NRA_NICU_MSDRG_MAX" conf_default:"640"`
	NICUAPRDRGMin int `conf:"NRA_NICU_APRDRG_MIN" conf_default:"789"`
	NICUAPRDRGMax int `conf:"NRA_NICU_APRDRG_MAX" conf_default:"795"`

	RoomBoardPrefixes []string `conf:"NRA_ROOM_BOARD_PREFIXES" conf_default:"011,012,013,014,015,016,017,020"`
	ManageableCPTs    []string `conf:"NRA_MANAGEABLE_CPTS" conf_default:"99231,99232,99233,99462,99478,99479,99480"`
	CriticalCareCPTs  []string `conf:"NRA_CRITICAL_CARE_CPTS" conf_default:"99468,99469,99471,99472"`
	NASDiagnosisCode  string   `conf:"NRA_NAS_DIAGNOSIS_CODE" conf_default:"P961"`
}

func LoadConfig() (cfg *Config, err error) {
	cfg = &Config{}
	if err := conf.Checkout(cfg); err != nil {
		return nil, err
	}

	if cfg.Client == "" {
		return nil, errors.New("invalid config, NRA_CLIENT_DATA must be set")
	}

	log.Pipeline.Info("Successfully loaded configuration for rollup service.")

	return cfg, nil
}

// Rules converts the resolved configuration into the engine's rule set.
func (c *Config) Rules() rollup.Rules {
	return rollup.Rules{
		HospitalGapDays:   c.HospitalGapDays,
		InitialWindowDays: c.InitialWindowDays,
		ReadmitWindowDays: c.ReadmitWindowDays,
		LongStayDays:      c.LongStayDays,

		HighCostCeiling: c.HighCostCeiling,
		LowPaidPerDiem:  c.LowPaidPerDiem,

		InappropriateMaxLOS:   c.InappropriateMaxLOS,
		InappropriateRevCodes: c.InappropriateRevCodes,

		NICURevMin: c.NICURevMin,
		NICURevMax: c.NICURevMax,
		DRGBands: [][2]int{
			{c.NICUMSDRGMin, c.NICUMSDRGMax},
			{c.NICUAPRDRGMin, c.NICUAPRDRGMax},
		},

		RoomBoardPrefixes: c.RoomBoardPrefixes,
		ManageableCPTs:    c.ManageableCPTs,
		CriticalCareCPTs:  c.CriticalCareCPTs,
		NASDiagnosisCode:  c.NASDiagnosisCode,
	}
}
