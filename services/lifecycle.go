package services

import (
	"time"

	"tips-publish-system/models"

	"github.com/jonboulle/clockwork"
)

// DefaultLiveWindow is how long after kickoff an upcoming match is shown as live.
const DefaultLiveWindow = 120 * time.Minute

// Lifecycle guards match status transitions and derives the read-time live flag.
type Lifecycle struct {
	clock      clockwork.Clock
	liveWindow time.Duration
	validator  *InputValidator
}

func NewLifecycle(clock clockwork.Clock, liveWindow time.Duration, validator *InputValidator) *Lifecycle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if liveWindow <= 0 {
		liveWindow = DefaultLiveWindow
	}
	return &Lifecycle{clock: clock, liveWindow: liveWindow, validator: validator}
}

// IsLive is true for matches an admin marked live, and for upcoming matches
// whose kickoff was less than the live window ago.
func (l *Lifecycle) IsLive(m *models.Match) bool {
	switch m.Status {
	case models.MatchStatusLive:
		return true
	case models.MatchStatusUpcoming:
		now := l.clock.Now()
		return !now.Before(m.MatchDate) && now.Before(m.MatchDate.Add(l.liveWindow))
	default:
		return false
	}
}

// Annotate fills the IsLive flag on every match in place.
func (l *Lifecycle) Annotate(matches []models.Match) {
	for i := range matches {
		matches[i].IsLive = l.IsLive(&matches[i])
	}
}

// RecordResult validates the transition of m into finished and returns the
// changes to persist. Every problem is reported in one ValidationError.
func (l *Lifecycle) RecordResult(m *models.Match, score, betStatus string) (*models.Match, []string, error) {
	if m.Status == models.MatchStatusFinished {
		return nil, nil, models.NewValidationError("Match already finished")
	}

	cleanScore, bet, err := l.validator.ValidateResult(score, betStatus)
	if err != nil {
		return nil, nil, err
	}

	changes := &models.Match{
		Status:      models.MatchStatusFinished,
		ResultScore: &cleanScore,
		BetStatus:   bet,
	}
	return changes, []string{"status", "result_score", "bet_status"}, nil
}

// MarkLive validates the admin transition upcoming -> live.
func (l *Lifecycle) MarkLive(m *models.Match) (*models.Match, []string, error) {
	if m.Status != models.MatchStatusUpcoming {
		return nil, nil, models.NewValidationError("Only upcoming matches can be marked live")
	}
	return &models.Match{Status: models.MatchStatusLive}, []string{"status"}, nil
}
