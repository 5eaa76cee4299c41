package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tips-publish-system/models"

	"github.com/rs/zerolog/log"
)

// DefaultMaxBulkImport caps the number of entries accepted by one bulk import.
const DefaultMaxBulkImport = 50

const maxSlugAttempts = 5

// MatchService handles every admin write: create, edit, delete, bulk import
// and the result / live transitions.
type MatchService struct {
	store     MatchStore
	validator *InputValidator
	lifecycle *Lifecycle
	notifier  Notifier
	maxBulk   int

	// newSuffix disambiguates a slug when the kickoff date alone collides.
	newSuffix func() string
}

func NewMatchService(store MatchStore, validator *InputValidator, lifecycle *Lifecycle, notifier Notifier, maxBulk int) *MatchService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if maxBulk <= 0 {
		maxBulk = DefaultMaxBulkImport
	}
	return &MatchService{
		store:     store,
		validator: validator,
		lifecycle: lifecycle,
		notifier:  notifier,
		maxBulk:   maxBulk,
		newSuffix: shortSuffix,
	}
}

// ImportReport summarizes a bulk import. Errors hold one "<home> vs <away>: <reason>"
// line per rejected entry.
type ImportReport struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// Create validates in, assigns a unique slug and stores the match as upcoming.
func (s *MatchService) Create(ctx context.Context, in MatchInput) (*models.Match, error) {
	match, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.notifier.PredictionPublished(match)
	return match, nil
}

func (s *MatchService) create(ctx context.Context, in MatchInput) (*models.Match, error) {
	match, _, err := s.validator.NormalizeMatch(in, false)
	if err != nil {
		return nil, err
	}

	base := kickoffDisambiguator(match.MatchDate)
	disambiguator := base
	for attempt := 1; ; attempt++ {
		match.ID = 0
		match.Slug = MatchSlug(match.HomeTeam, match.AwayTeam, disambiguator)
		match.Status = models.MatchStatusUpcoming
		match.BetStatus = models.BetStatusPending
		match.ResultScore = nil
		match.Views = 0

		err := s.store.Create(ctx, match)
		if err == nil {
			break
		}

		var conflict *models.ConflictError
		if !errors.As(err, &conflict) || attempt >= maxSlugAttempts {
			return nil, fmt.Errorf("create match %q: %w", match.Slug, err)
		}
		log.Debug().Str("slug", match.Slug).Int("attempt", attempt).Msg("slug taken, retrying with suffix")
		disambiguator = base + "-" + s.newSuffix()
	}

	match.IsLive = s.lifecycle.IsLive(match)
	log.Info().Uint("id", match.ID).Str("slug", match.Slug).Msg("✅ Match created")
	return match, nil
}

// Get returns the match with the given id.
func (s *MatchService) Get(ctx context.Context, id uint) (*models.Match, error) {
	match, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	match.IsLive = s.lifecycle.IsLive(match)
	return match, nil
}

// Update merges the supplied content fields into an existing match. Status,
// result and slug are never touched here.
func (s *MatchService) Update(ctx context.Context, id uint, in MatchInput) (*models.Match, error) {
	changes, columns, err := s.validator.NormalizeMatch(in, true)
	if err != nil {
		return nil, err
	}

	match, err := s.store.Update(ctx, id, changes, columns)
	if err != nil {
		return nil, err
	}
	match.IsLive = s.lifecycle.IsLive(match)
	log.Info().Uint("id", id).Strs("columns", columns).Msg("✏️ Match updated")
	return match, nil
}

// Delete removes a match permanently.
func (s *MatchService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Uint("id", id).Msg("🗑️ Match deleted")
	return nil
}

// RecordResult moves a match to finished with its score and bet outcome.
func (s *MatchService) RecordResult(ctx context.Context, id uint, score, betStatus string) (*models.Match, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, columns, err := s.lifecycle.RecordResult(current, score, betStatus)
	if err != nil {
		return nil, err
	}

	match, err := s.store.Update(ctx, id, changes, columns)
	if err != nil {
		return nil, err
	}
	match.IsLive = s.lifecycle.IsLive(match)

	log.Info().Uint("id", id).Str("score", score).Str("bet_status", string(match.BetStatus)).Msg("🏁 Result recorded")
	s.notifier.ResultRecorded(match)
	return match, nil
}

// MarkLive flags an upcoming match as in play.
func (s *MatchService) MarkLive(ctx context.Context, id uint) (*models.Match, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, columns, err := s.lifecycle.MarkLive(current)
	if err != nil {
		return nil, err
	}

	match, err := s.store.Update(ctx, id, changes, columns)
	if err != nil {
		return nil, err
	}
	match.IsLive = true
	return match, nil
}

// BulkImport creates each entry independently and in order. A failed entry is
// reported and skipped; entries already stored stay stored.
func (s *MatchService) BulkImport(ctx context.Context, entries []BulkEntry) (*ImportReport, error) {
	if len(entries) > s.maxBulk {
		return nil, models.NewValidationError(fmt.Sprintf("Maximum %d matches allowed per import", s.maxBulk))
	}

	report := &ImportReport{Errors: []string{}}
	for _, entry := range entries {
		in := entry.Input
		err := entry.Err
		if err == nil {
			if in.League == nil || s.validator.Sanitize(string(*in.League)) == "" {
				in.League = Raw("Unknown")
			}
			_, err = s.create(ctx, in)
		}

		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s vs %s: %s",
				s.teamLabel(in.HomeTeam), s.teamLabel(in.AwayTeam), importReason(err)))
			continue
		}
		report.Imported++
	}

	log.Info().Int("imported", report.Imported).Int("failed", report.Failed).Msg("📦 Bulk import finished")
	return report, nil
}

func (s *MatchService) teamLabel(v *RawValue) string {
	if name := s.validator.Sanitize(v.text()); name != "" {
		return name
	}
	return "?"
}

func importReason(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return strings.Join(verr.Problems, ", ")
	}
	return err.Error()
}
