package rollup

import (
	"sort"
	"time"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// BuildProviderDirectory collapses the claims feed to one entry per
// provider id. When a provider appears with conflicting name/state values
// the lexicographically first pair wins, keeping the directory a pure
// function of the data.
func BuildProviderDirectory(claims []*models.Claim) map[string]models.Provider {
	dir := make(map[string]models.Provider)
	for _, c := range claims {
		if c.ProviderID == "" {
			continue
		}
		entry := models.Provider{TIN: c.ProviderTIN, Name: c.ProviderName, State: c.ProviderState}
		cur, ok := dir[c.ProviderID]
		if !ok || providerLess(entry, cur) {
			dir[c.ProviderID] = entry
		}
	}
	return dir
}

func providerLess(a, b models.Provider) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.State != b.State {
		return a.State < b.State
	}
	return a.TIN < b.TIN
}

type providerGroupKey struct {
	episode    models.EpisodeKey
	providerID string
}

// AttributeProviders picks the single best provider per episode among all
// providers billing within it: latest discharge first, then longest
// provider LOS, then highest paid, with provider id as the final
// deterministic key. A provider whose own record ends before the episode's
// discharge is credited one extra day.
func (e *Engine) AttributeProviders(nicuClaims []*models.EpisodeClaim, directory map[string]models.Provider) []*models.ProviderAttribution {
	type agg struct {
		paid      float64
		admit     time.Time
		discharge time.Time
	}
	groups := make(map[providerGroupKey]*agg)
	for _, r := range nicuClaims {
		if r.ProviderID == "" {
			continue
		}
		k := providerGroupKey{episode: r.Key(), providerID: r.ProviderID}
		a, ok := groups[k]
		if !ok {
			a = &agg{admit: r.AdmitDate, discharge: r.DischargeDate}
			groups[k] = a
		}
		a.paid += r.Paid
		if !r.AdmitDate.IsZero() && (a.admit.IsZero() || r.AdmitDate.Before(a.admit)) {
			a.admit = r.AdmitDate
		}
		if r.DischargeDate.After(a.discharge) {
			a.discharge = r.DischargeDate
		}
	}

	best := make(map[models.EpisodeKey]*models.ProviderAttribution)
	for k, a := range groups {
		los := utils.DaysBetween(a.admit, a.discharge)
		if !a.discharge.Equal(k.episode.Discharge) {
			los++
		}
		cand := &models.ProviderAttribution{
			EpisodeKey:    k.episode,
			ProviderID:    k.providerID,
			Paid:          a.paid,
			HospAdmit:     a.admit,
			HospDischarge: a.discharge,
			HospLOS:       los,
		}
		cur, ok := best[k.episode]
		if !ok || attributionLess(cur, cand) {
			best[k.episode] = cand
		}
	}

	out := make([]*models.ProviderAttribution, 0, len(best))
	for _, p := range best {
		if dir, ok := directory[p.ProviderID]; ok {
			p.ProviderTIN = dir.TIN
			p.ProviderName = dir.Name
			p.ProviderState = dir.State
		}
		if p.ProviderName == "" {
			p.ProviderName = constants.UnknownProvider
		}
		if p.ProviderState == "" {
			p.ProviderState = constants.UnknownProvider
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		if !a.Admit.Equal(b.Admit) {
			return a.Admit.Before(b.Admit)
		}
		return a.Discharge.Before(b.Discharge)
	})
	return out
}

// attributionLess reports whether candidate b outranks current a.
func attributionLess(a, b *models.ProviderAttribution) bool {
	if !a.HospDischarge.Equal(b.HospDischarge) {
		return b.HospDischarge.After(a.HospDischarge)
	}
	if a.HospLOS != b.HospLOS {
		return b.HospLOS > a.HospLOS
	}
	if a.Paid != b.Paid {
		return b.Paid > a.Paid
	}
	return b.ProviderID < a.ProviderID
}
