package rollup

import (
	"sort"

	"github.com/perinatalhealth/nra-app/nra/models"
)

// dischargeStatusRank assigns the fixed priority used to pick one
// representative discharge status per episode. Lower ranks win.
func dischargeStatusRank(code string) int {
	switch code {
	case "20":
		return 0
	case "07":
		return 1
	case "02", "05", "66", "43", "62", "63", "65":
		return 2
	case "30":
		return 3
	case "01", "06":
		return 4
	}

	if len(code) < 2 {
		return 6
	}
	switch code {
	case "03", "04", "41", "50", "51", "64", "70":
		return 6
	}
	for _, band := range [][2]string{
		{"08", "19"}, {"21", "29"}, {"31", "39"},
		{"44", "49"}, {"52", "60"}, {"67", "69"}, {"71", "99"},
	} {
		if code >= band[0] && code <= band[1] {
			return 6
		}
	}

	return 9
}

// ResolveDischargeStatus picks one representative discharge status per
// episode. Candidates are ordered by rank ascending, then discharge date
// descending, service-from descending, and status code ascending; the
// ordering makes the pick independent of physical row order even when
// several claims share the minimum rank.
func (e *Engine) ResolveDischargeStatus(nicuClaims []*models.EpisodeClaim) map[models.EpisodeKey]string {
	type candidate struct {
		rank int
		row  *models.EpisodeClaim
	}
	byEpisode := make(map[models.EpisodeKey][]candidate)
	for _, r := range nicuClaims {
		code := r.DischargeStatus
		if code == "" || code == "0" || code == "00" {
			continue
		}
		k := r.Key()
		byEpisode[k] = append(byEpisode[k], candidate{rank: dischargeStatusRank(code), row: r})
	}

	out := make(map[models.EpisodeKey]string, len(byEpisode))
	for k, cands := range byEpisode {
		sort.Slice(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			if a.rank != b.rank {
				return a.rank < b.rank
			}
			if !a.row.DischargeDate.Equal(b.row.DischargeDate) {
				return a.row.DischargeDate.After(b.row.DischargeDate)
			}
			if !a.row.FromDate.Equal(b.row.FromDate) {
				return a.row.FromDate.After(b.row.FromDate)
			}
			return a.row.DischargeStatus < b.row.DischargeStatus
		})
		out[k] = cands[0].row.DischargeStatus
	}
	return out
}
