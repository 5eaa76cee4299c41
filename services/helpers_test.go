package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"tips-publish-system/config"
	"tips-publish-system/models"
	"tips-publish-system/repository"
	"tips-publish-system/services"

	"github.com/glebarez/sqlite"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var kickoff = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type recordingNotifier struct {
	published []string
	results   []string
}

func (n *recordingNotifier) PredictionPublished(m *models.Match) {
	n.published = append(n.published, m.Slug)
}

func (n *recordingNotifier) ResultRecorded(m *models.Match) {
	n.results = append(n.results, m.Slug)
}

type fixture struct {
	store    *repository.MatchRepository
	clock    *clockwork.FakeClock
	matches  *services.MatchService
	queries  *services.QueryService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMatchRepository(openTestDB(t))
	clock := clockwork.NewFakeClockAt(kickoff.Add(-72 * time.Hour))
	validator := services.NewInputValidator()
	lifecycle := services.NewLifecycle(clock, services.DefaultLiveWindow, validator)
	notifier := &recordingNotifier{}

	return &fixture{
		store:    store,
		clock:    clock,
		matches:  services.NewMatchService(store, validator, lifecycle, notifier, services.DefaultMaxBulkImport),
		queries:  services.NewQueryService(store, lifecycle, 20, 20),
		notifier: notifier,
	}
}

func matchInput(league, home, away string, at time.Time) services.MatchInput {
	return services.MatchInput{
		League:     services.Raw(league),
		HomeTeam:   services.Raw(home),
		AwayTeam:   services.Raw(away),
		MatchDate:  services.Raw(at.Format(time.RFC3339)),
		Prediction: services.Raw("Home win"),
	}
}

func (f *fixture) create(t *testing.T, in services.MatchInput) *models.Match {
	t.Helper()
	m, err := f.matches.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return m
}
