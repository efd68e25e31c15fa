// Package reference loads and caches the reference code tables the rollup
// engine matches claims against.
package reference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"

	"github.com/perinatalhealth/nra-app/conf"
	"github.com/perinatalhealth/nra-app/log"
	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/models"
)

var refTables = []string{
	constants.RefNewbornICD,
	constants.RefSingletonICD,
	constants.RefTwinICD,
	constants.RefMultipleICD,
	constants.RefBirthweightICD,
	constants.RefGestAgeICD,
	constants.RefNewbornRevCode,
	constants.RefNICURevCode,
	constants.RefNICUMSDRG,
	constants.RefNICUAPRDRG,
}

// Manager is a read-through cache over the reference code tables. Each
// table loads at most once per Manager; entries are never evicted or
// refreshed, so a run sees one consistent snapshot.
type Manager struct {
	repo models.Repository

	// localDir, when set, is scanned for <table>.csv files before falling
	// back to the repository. Used for local runs without database access.
	localDir string

	mu    sync.Mutex
	cache map[string][]models.ReferenceCode
}

func NewManager(repo models.Repository) *Manager {
	return &Manager{
		repo:     repo,
		localDir: conf.GetEnv("NRA_REF_DIR"),
		cache:    make(map[string][]models.ReferenceCode),
	}
}

// Get returns the rows of one reference table, loading and caching on
// first use.
func (m *Manager) Get(ctx context.Context, table string) ([]models.ReferenceCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rows, ok := m.cache[table]; ok {
		return rows, nil
	}

	rows, err := m.load(ctx, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load reference table %s", table)
	}
	m.cache[table] = rows
	log.Reference.WithField("table", table).Infof("loaded %d reference codes", len(rows))
	return rows, nil
}

func (m *Manager) load(ctx context.Context, table string) ([]models.ReferenceCode, error) {
	if m.localDir != "" {
		path := filepath.Join(m.localDir, strings.ToLower(table)+".csv")
		if _, err := os.Stat(path); err == nil {
			return readLocalTable(path)
		}
		log.Reference.Warnf("No local file for %s under %s. Falling back to repository.", table, m.localDir)
	}
	return m.repo.GetReferenceCodes(ctx, table)
}

// readLocalTable parses a reference CSV with CODE and optional DESCRIPTION
// columns.
func readLocalTable(path string) ([]models.ReferenceCode, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close() // #nosec G307

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to parse %s", path)
	}

	hasDescription := false
	for _, name := range df.Names() {
		if name == "DESCRIPTION" {
			hasDescription = true
		}
	}

	rows := make([]models.ReferenceCode, 0, df.Nrow())
	for _, record := range df.Maps() {
		code, ok := record["CODE"].(string)
		if !ok || code == "" {
			continue
		}
		rc := models.ReferenceCode{Code: code}
		if hasDescription {
			rc.Description, _ = record["DESCRIPTION"].(string)
		}
		rows = append(rows, rc)
	}
	return rows, nil
}

// PreloadAll warms the cache with every reference table.
func (m *Manager) PreloadAll(ctx context.Context) error {
	for _, table := range refTables {
		if _, err := m.Get(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// ResolveSet assembles the immutable reference set the rollup engine
// consumes. Membership tables become sets; the birthweight and gestational
// age tables become code-to-category maps.
func (m *Manager) ResolveSet(ctx context.Context) (*models.ReferenceSet, error) {
	set := &models.ReferenceSet{}

	codeSets := []struct {
		table string
		dst   *models.CodeSet
	}{
		{constants.RefNewbornICD, &set.NewbornICD},
		{constants.RefSingletonICD, &set.SingletonICD},
		{constants.RefTwinICD, &set.TwinICD},
		{constants.RefMultipleICD, &set.MultipleICD},
		{constants.RefNewbornRevCode, &set.NewbornRev},
		{constants.RefNICURevCode, &set.NICURev},
		{constants.RefNICUMSDRG, &set.NICUMSDRG},
		{constants.RefNICUAPRDRG, &set.NICUAPRDRG},
	}
	for _, cs := range codeSets {
		rows, err := m.Get(ctx, cs.table)
		if err != nil {
			return nil, err
		}
		s := make(models.CodeSet, len(rows))
		for _, r := range rows {
			if r.Code != "" {
				s[r.Code] = struct{}{}
			}
		}
		*cs.dst = s
	}

	codeMaps := []struct {
		table string
		dst   *models.CodeMap
	}{
		{constants.RefBirthweightICD, &set.BirthweightICD},
		{constants.RefGestAgeICD, &set.GestationalAgeICD},
	}
	for _, cm := range codeMaps {
		rows, err := m.Get(ctx, cm.table)
		if err != nil {
			return nil, err
		}
		mapped := make(models.CodeMap, len(rows))
		for _, r := range rows {
			if r.Code != "" {
				mapped[r.Code] = r.Description
			}
		}
		*cm.dst = mapped
	}

	return set, nil
}

// ClearCache drops every cached table.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string][]models.ReferenceCode)
}

// CacheInfo reports the cached table names and their row counts, sorted by
// name.
func (m *Manager) CacheInfo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := make([]string, 0, len(m.cache))
	for table, rows := range m.cache {
		info = append(info, fmt.Sprintf("%s (%d codes)", table, len(rows)))
	}
	sort.Strings(info)
	return info
}
