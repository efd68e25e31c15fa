package rollup

import (
	"sort"
	"strconv"
	"strings"

	"github.com/perinatalhealth/nra-app/nra/models"
)

// numericCode parses a revenue or DRG code, tolerating leading zeros
// ("0171" is 171). Non-numeric codes are skipped.
func numericCode(code string) (int, bool) {
	s := strings.TrimSpace(code)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractRevenueFeatures derives the representative revenue code per NICU
// episode: the minimum distinct numeric code inside the NICU level band.
// The leveling flag is set when a second distinct code exists, meaning the
// stay spanned more than one NICU acuity level.
func (e *Engine) ExtractRevenueFeatures(nicuClaims []*models.EpisodeClaim) []*models.RevenueFeature {
	distinct := make(map[models.EpisodeKey]map[int]struct{})
	for _, r := range nicuClaims {
		n, ok := numericCode(r.RevenueCode)
		if !ok || n < e.rules.NICURevMin || n > e.rules.NICURevMax {
			continue
		}
		k := r.Key()
		if distinct[k] == nil {
			distinct[k] = make(map[int]struct{})
		}
		distinct[k][n] = struct{}{}
	}

	out := make([]*models.RevenueFeature, 0, len(distinct))
	for k, codes := range distinct {
		min := 0
		first := true
		for n := range codes {
			if first || n < min {
				min = n
				first = false
			}
		}
		out = append(out, &models.RevenueFeature{
			EpisodeKey:       k,
			FinalRevenueCode: strconv.Itoa(min),
			Leveling:         len(codes) > 1,
		})
	}
	sort.Slice(out, func(i, j int) bool { return episodeKeyLess(out[i].EpisodeKey, out[j].EpisodeKey) })
	return out
}

// ExtractDRGFeatures derives the representative DRG code per NICU episode:
// the minimum distinct numeric code inside either NICU DRG band.
func (e *Engine) ExtractDRGFeatures(nicuClaims []*models.EpisodeClaim) []*models.DRGFeature {
	distinct := make(map[models.EpisodeKey]map[int]struct{})
	for _, r := range nicuClaims {
		n, ok := numericCode(r.DRG)
		if !ok || !e.inDRGBand(n) {
			continue
		}
		k := r.Key()
		if distinct[k] == nil {
			distinct[k] = make(map[int]struct{})
		}
		distinct[k][n] = struct{}{}
	}

	out := make([]*models.DRGFeature, 0, len(distinct))
	for k, codes := range distinct {
		min := 0
		first := true
		for n := range codes {
			if first || n < min {
				min = n
				first = false
			}
		}
		out = append(out, &models.DRGFeature{EpisodeKey: k, FinalDRGCode: strconv.Itoa(min)})
	}
	sort.Slice(out, func(i, j int) bool { return episodeKeyLess(out[i].EpisodeKey, out[j].EpisodeKey) })
	return out
}

func (e *Engine) inDRGBand(n int) bool {
	for _, band := range e.rules.DRGBands {
		if n >= band[0] && n <= band[1] {
			return true
		}
	}
	return false
}

func episodeKeyLess(a, b models.EpisodeKey) bool {
	if a.PatientID != b.PatientID {
		return a.PatientID < b.PatientID
	}
	if !a.Admit.Equal(b.Admit) {
		return a.Admit.Before(b.Admit)
	}
	return a.Discharge.Before(b.Discharge)
}
