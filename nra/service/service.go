// Package service orchestrates the rollup pipeline: window derivation,
// claims loading and tagging, the rollup stages, and output persistence.
package service

import (
	"context"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perinatalhealth/nra-app/log"
	"github.com/perinatalhealth/nra-app/nra/claims"
	"github.com/perinatalhealth/nra-app/nra/models"
	"github.com/perinatalhealth/nra-app/nra/reference"
	"github.com/perinatalhealth/nra-app/nra/rollup"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// Ensure service satisfies the interface
var _ Service = &service{}

// Service contains all of the methods needed to run the rollup pipeline
// against the data represented in the models package.
type Service interface {
	// CalculateWindow derives the birth and runout windows from the
	// client's claims date coverage.
	CalculateWindow(ctx context.Context) (utils.BirthWindow, error)

	// RunRollup executes the full pipeline and persists the newborn rollup.
	// An empty cohort is a valid outcome: the run succeeds with zero rows.
	RunRollup(ctx context.Context) (*Result, error)
}

// Result summarizes one completed run.
type Result struct {
	RunID  string
	Window utils.BirthWindow

	NewbornKeys  int
	Newborns     int
	NicuNewborns int

	Export []*models.NewbornExport
}

type service struct {
	repository models.Repository
	refs       *reference.Manager
	engine     *rollup.Engine
	cfg        *Config
	logger     logrus.FieldLogger
}

func NewService(r models.Repository, refs *reference.Manager, cfg *Config) Service {
	return &service{
		repository: r,
		refs:       refs,
		engine:     rollup.New(cfg.Rules()),
		cfg:        cfg,
		logger:     log.Pipeline,
	}
}

func (s *service) CalculateWindow(ctx context.Context) (utils.BirthWindow, error) {
	dr, err := s.repository.GetClaimsDateRange(ctx, s.cfg.Client)
	if err != nil {
		return utils.BirthWindow{}, errors.Wrap(err, "failed to determine claims date coverage")
	}
	return utils.CalculateBirthWindow(dr, s.cfg.MinHistoryMonths, s.cfg.BirthWindowMonths, s.cfg.RunoutMonths)
}

func (s *service) RunRollup(ctx context.Context) (*Result, error) {
	runID := uuid.NewRandom().String()
	logger := s.logger.WithFields(logrus.Fields{"run_id": runID, "client": s.cfg.Client})
	logger.Info("Starting newborn rollup run")

	window, err := s.CalculateWindow(ctx)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"birth_start": window.Start.Format("2006-01-02"),
		"birth_end":   window.End.Format("2006-01-02"),
		"runout_end":  window.RunoutEnd.Format("2006-01-02"),
	}).Info("Derived birth window")

	refSet, err := s.refs.ResolveSet(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve reference code sets")
	}

	rawClaims, err := s.repository.GetClaims(ctx, s.cfg.Client, models.ClaimsWindow{
		BirthStart: window.Start,
		BirthEnd:   window.End,
		RunoutEnd:  window.RunoutEnd,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load claims")
	}
	if err := claims.Validate(rawClaims); err != nil {
		return nil, errors.Wrap(err, "claims feed failed validation")
	}

	claims.AssignClaimTypes(rawClaims)
	claims.TagReferenceFlags(rawClaims, refSet)

	keys := claims.IdentifyNewbornKeys(rawClaims)
	logger.Infof("Identified %d newborn keys from %d claims", len(keys), len(rawClaims))

	newbornClaims := filterToKeys(rawClaims, keys)
	babies, cohort := s.engine.ClassifyBirths(newbornClaims)

	result := &Result{RunID: runID, Window: window, NewbornKeys: len(keys)}
	if len(cohort) == 0 {
		logger.Warn("Cohort is empty, persisting an empty rollup")
		if err := s.repository.SaveNewbornRollup(ctx, s.cfg.Client, runID, nil); err != nil {
			return nil, errors.Wrap(err, "failed to persist rollup output")
		}
		return result, nil
	}
	logger.Infof("Classified %d babies across %d cohort claims", len(babies), len(cohort))

	stays := s.engine.StitchStays(cohort, window.RunoutEnd)
	tables := s.engine.BuildEpisodes(cohort, stays, window)
	logger.Infof("Built %d episodes, %d newborn records, %d NICU records",
		len(tables.Episodes), len(tables.Newborns), len(tables.Nicu))

	features := s.engine.BuildCostFeatures(tables.NicuClaims, tables.Nicu, stays, refSet)
	revenue := s.engine.ExtractRevenueFeatures(tables.NicuClaims)
	drg := s.engine.ExtractDRGFeatures(tables.NicuClaims)
	discharge := s.engine.ResolveDischargeStatus(tables.NicuClaims)
	providers := s.engine.AttributeProviders(tables.NicuClaims, rollup.BuildProviderDirectory(rawClaims))

	rollups := s.engine.MergeRollup(tables.Nicu, features, revenue, drg, discharge, providers)
	export := rollup.FinalExport(tables.Newborns, rollups)

	if err := s.repository.SaveNewbornRollup(ctx, s.cfg.Client, runID, export); err != nil {
		return nil, errors.Wrap(err, "failed to persist rollup output")
	}

	result.Newborns = len(tables.Newborns)
	result.NicuNewborns = len(rollups)
	result.Export = export
	logger.Infof("Completed rollup run with %d newborn rows (%d NICU)", len(export), len(rollups))
	return result, nil
}

func filterToKeys(rows []*models.Claim, keys []string) []*models.Claim {
	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}
	out := make([]*models.Claim, 0, len(rows))
	for _, c := range rows {
		if _, ok := keep[c.PatientID]; ok {
			out = append(out, c)
		}
	}
	return out
}
