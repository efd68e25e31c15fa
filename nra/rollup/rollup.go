// Package rollup implements the claims-to-episode rollup engine: stitching
// inpatient claim lines into continuous hospital stays, classifying birth
// type and NICU status, resolving per-episode attributes through
// deterministic tie-breaks, and aggregating cost and readmission features.
//
// Every grouped or windowed aggregation is an explicit sort + partition +
// fold. The ordering keys are load-bearing: rerunning on identical input
// must produce bit-identical output regardless of input row order.
package rollup

// Rules carries every numeric threshold and code list the engine applies.
// Values are resolved once by the service config and never mutated.
type Rules struct {
	HospitalGapDays   int
	InitialWindowDays int
	ReadmitWindowDays int
	LongStayDays      int

	HighCostCeiling float64
	LowPaidPerDiem  float64

	InappropriateMaxLOS   int
	InappropriateRevCodes []string

	NICURevMin int
	NICURevMax int
	DRGBands   [][2]int

	RoomBoardPrefixes []string
	ManageableCPTs    []string
	CriticalCareCPTs  []string
	NASDiagnosisCode  string
}

// DefaultRules returns the documented production thresholds.
func DefaultRules() Rules {
	return Rules{
		HospitalGapDays:   4,
		InitialWindowDays: 4,
		ReadmitWindowDays: 30,
		LongStayDays:      3,

		HighCostCeiling: 500000,
		LowPaidPerDiem:  150,

		InappropriateMaxLOS:   5,
		InappropriateRevCodes: []string{"170", "171"},

		NICURevMin: 170,
		NICURevMax: 179,
		DRGBands:   [][2]int{{580, 640}, {789, 795}},

		RoomBoardPrefixes: []string{"011", "012", "013", "014", "015", "016", "017", "020"},
		ManageableCPTs:    []string{"99231", "99232", "99233", "99462", "99478", "99479", "99480"},
		CriticalCareCPTs:  []string{"99468", "99469", "99471", "99472"},
		NASDiagnosisCode:  "P961",
	}
}

// Engine evaluates the rollup stages against one immutable rule set.
type Engine struct {
	rules Rules
}

func New(rules Rules) *Engine {
	return &Engine{rules: rules}
}
