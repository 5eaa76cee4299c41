package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"tips-publish-system/models"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPerPage  = 20
	SearchLimit     = 10
	RelatedLimit    = 4
	minSearchLength = 2
)

// Dashboard filters.
const (
	FilterAll      = "all"
	FilterUpcoming = "upcoming"
	FilterFinished = "finished"
)

// QueryService serves every read: public listings, search, detail pages and
// the admin dashboard.
type QueryService struct {
	store         MatchStore
	lifecycle     *Lifecycle
	publicPerPage int
	adminPerPage  int
}

func NewQueryService(store MatchStore, lifecycle *Lifecycle, publicPerPage, adminPerPage int) *QueryService {
	if publicPerPage <= 0 {
		publicPerPage = DefaultPerPage
	}
	if adminPerPage <= 0 {
		adminPerPage = DefaultPerPage
	}
	return &QueryService{
		store:         store,
		lifecycle:     lifecycle,
		publicPerPage: publicPerPage,
		adminPerPage:  adminPerPage,
	}
}

// MatchPage is one page of a listing.
type MatchPage struct {
	Matches    []models.Match `json:"matches"`
	Pagination Pagination     `json:"pagination"`
}

// ResultsPage is a page of finished matches with the overall win rate.
type ResultsPage struct {
	MatchPage
	WinRate int `json:"win_rate"`
}

// DashboardPage is the admin overview.
type DashboardPage struct {
	MatchPage
	Filter string `json:"filter"`
	Stats  Stats  `json:"stats"`
}

// MatchDetail is everything shown on a prediction page.
type MatchDetail struct {
	Match      *models.Match   `json:"match"`
	Related    []models.Match  `json:"related"`
	Confidence ConfidenceLabel `json:"confidence"`
}

// Stats aggregates match counts. Won and Lost only count finished matches.
type Stats struct {
	Total    int64 `json:"total"`
	Upcoming int64 `json:"upcoming"`
	Finished int64 `json:"finished"`
	Won      int64 `json:"won"`
	Lost     int64 `json:"lost"`
	WinRate  int   `json:"win_rate"`
}

// WinRate is round(won / finished * 100), or 0 when nothing has finished.
func WinRate(won, finished int64) int {
	if finished <= 0 {
		return 0
	}
	return int(math.Round(float64(won) / float64(finished) * 100))
}

// Query returns one page of matches for the filter in the given order.
func (s *QueryService) Query(ctx context.Context, filter models.MatchFilter, sort models.MatchSort, page, perPage int) (*MatchPage, error) {
	window := Paginate(0, page, perPage)

	matches, total, err := s.store.List(ctx, models.MatchQuery{
		Filter: filter,
		Sort:   sort,
		Limit:  window.PerPage,
		Offset: window.Offset(),
	})
	if err != nil {
		return nil, err
	}

	s.lifecycle.Annotate(matches)
	return &MatchPage{
		Matches:    matches,
		Pagination: Paginate(total, window.CurrentPage, window.PerPage),
	}, nil
}

// Upcoming lists upcoming matches, soonest first.
func (s *QueryService) Upcoming(ctx context.Context, page int) (*MatchPage, error) {
	return s.Query(ctx, models.MatchFilter{Status: models.MatchStatusUpcoming}, models.SortKickoffAsc, page, s.publicPerPage)
}

// Results lists finished matches, most recent first.
func (s *QueryService) Results(ctx context.Context, page int) (*ResultsPage, error) {
	p, err := s.Query(ctx, models.MatchFilter{Status: models.MatchStatusFinished}, models.SortKickoffDesc, page, s.publicPerPage)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &ResultsPage{MatchPage: *p, WinRate: stats.WinRate}, nil
}

// League lists upcoming matches of one league, soonest first.
func (s *QueryService) League(ctx context.Context, league string, page int) (*MatchPage, error) {
	filter := models.MatchFilter{Status: models.MatchStatusUpcoming, League: league}
	return s.Query(ctx, filter, models.SortKickoffAsc, page, s.publicPerPage)
}

// Dashboard lists matches for the admin overview, most recent first.
// Unknown filters fall back to all.
func (s *QueryService) Dashboard(ctx context.Context, filterName string, page int) (*DashboardPage, error) {
	var filter models.MatchFilter
	switch filterName {
	case FilterUpcoming:
		filter.Status = models.MatchStatusUpcoming
	case FilterFinished:
		filter.Status = models.MatchStatusFinished
	default:
		filterName = FilterAll
	}

	p, err := s.Query(ctx, filter, models.SortKickoffDesc, page, s.adminPerPage)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardPage{MatchPage: *p, Filter: filterName, Stats: stats}, nil
}

// Search matches q case-insensitively against team and league names.
// Queries under two characters return nothing without hitting the store.
func (s *QueryService) Search(ctx context.Context, q string) ([]models.Match, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSearchLength {
		return []models.Match{}, nil
	}

	matches, _, err := s.store.List(ctx, models.MatchQuery{
		Filter: models.MatchFilter{Search: q},
		Sort:   models.SortKickoffDesc,
		Limit:  SearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	s.lifecycle.Annotate(matches)
	return matches, nil
}

// Detail loads a prediction page by slug and counts the view.
func (s *QueryService) Detail(ctx context.Context, slug string) (*MatchDetail, error) {
	if !ValidSlug(slug) {
		return nil, &models.NotFoundError{Entity: "match", Key: slug}
	}

	match, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.store.IncrementViews(ctx, match.ID); err != nil {
		log.Warn().Err(err).Uint("id", match.ID).Msg("failed to increment views")
	} else {
		match.Views++
	}
	match.IsLive = s.lifecycle.IsLive(match)

	related, _, err := s.store.List(ctx, models.MatchQuery{
		Filter: models.MatchFilter{
			Status:    models.MatchStatusUpcoming,
			League:    match.League,
			ExcludeID: match.ID,
		},
		Sort:  models.SortKickoffAsc,
		Limit: RelatedLimit,
	})
	if err != nil {
		return nil, err
	}
	s.lifecycle.Annotate(related)

	return &MatchDetail{
		Match:      match,
		Related:    related,
		Confidence: LabelConfidence(match.Confidence),
	}, nil
}

// Stats counts matches by state and outcome.
func (s *QueryService) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		dst    *int64
		filter models.MatchFilter
	}{
		{&stats.Total, models.MatchFilter{}},
		{&stats.Upcoming, models.MatchFilter{Status: models.MatchStatusUpcoming}},
		{&stats.Finished, models.MatchFilter{Status: models.MatchStatusFinished}},
		{&stats.Won, models.MatchFilter{Status: models.MatchStatusFinished, BetStatus: models.BetStatusWon}},
		{&stats.Lost, models.MatchFilter{Status: models.MatchStatusFinished, BetStatus: models.BetStatusLost}},
	}

	for _, c := range counts {
		n, err := s.store.Count(ctx, c.filter)
		if err != nil {
			return Stats{}, err
		}
		*c.dst = n
	}

	stats.WinRate = WinRate(stats.Won, stats.Finished)
	return stats, nil
}
