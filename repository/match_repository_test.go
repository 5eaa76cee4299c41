package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tips-publish-system/config"
	"tips-publish-system/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

var kickoff = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)

func newMatch(slug, league, home, away string, at time.Time) *models.Match {
	return &models.Match{
		Slug:       slug,
		League:     league,
		HomeTeam:   home,
		AwayTeam:   away,
		MatchDate:  at,
		Prediction: "Home win",
		Confidence: 70,
		HomeForm:   models.DefaultForm,
		AwayForm:   models.DefaultForm,
		Status:     models.MatchStatusUpcoming,
		BetStatus:  models.BetStatusPending,
	}
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	m := newMatch("arsenal-vs-chelsea-prediction-2025-03-01", "Premier League", "Arsenal", "Chelsea", kickoff)
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	byID, err := repo.FindByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Slug != m.Slug {
		t.Errorf("slug = %q, want %q", byID.Slug, m.Slug)
	}

	bySlug, err := repo.FindBySlug(ctx, m.Slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if bySlug.ID != m.ID {
		t.Errorf("id = %d, want %d", bySlug.ID, m.ID)
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	if err := repo.Create(ctx, newMatch("a-vs-b", "Serie A", "A", "B", kickoff)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := repo.Create(ctx, newMatch("a-vs-b", "Serie A", "A", "B", kickoff))
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Field != "slug" {
		t.Errorf("field = %q, want slug", conflict.Field)
	}
}

func TestFindMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	var nf *models.NotFoundError
	if _, err := repo.FindByID(ctx, 42); !errors.As(err, &nf) {
		t.Errorf("FindByID: expected NotFoundError, got %v", err)
	}
	if _, err := repo.FindBySlug(ctx, "nope"); !errors.As(err, &nf) {
		t.Errorf("FindBySlug: expected NotFoundError, got %v", err)
	}
}

func TestUpdateOnlySelectedColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	m := newMatch("x-vs-y", "La Liga", "X", "Y", kickoff)
	m.Analysis = "keep me"
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	changes := &models.Match{Prediction: "Draw", Slug: "changed", Analysis: ""}
	updated, err := repo.Update(ctx, m.ID, changes, []string{"prediction"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Prediction != "Draw" {
		t.Errorf("prediction = %q, want Draw", updated.Prediction)
	}
	if updated.Analysis != "keep me" {
		t.Errorf("analysis = %q, want untouched", updated.Analysis)
	}
	if updated.Slug != "x-vs-y" {
		t.Errorf("slug = %q, want unchanged", updated.Slug)
	}
}

func TestUpdateMissing(t *testing.T) {
	repo := NewMatchRepository(openTestDB(t))

	_, err := repo.Update(context.Background(), 99, &models.Match{Prediction: "Draw"}, []string{"prediction"})
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	m := newMatch("del-me", "MLS", "LA", "NY", kickoff)
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("first Delete: %v", err)
	}

	var nf *models.NotFoundError
	if err := repo.Delete(ctx, m.ID); !errors.As(err, &nf) {
		t.Fatalf("second Delete: expected NotFoundError, got %v", err)
	}
}

func TestIncrementViews(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	m := newMatch("views", "MLS", "LA", "NY", kickoff)
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementViews(ctx, m.ID); err != nil {
			t.Fatalf("IncrementViews: %v", err)
		}
	}

	got, err := repo.FindByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Views != 3 {
		t.Errorf("views = %d, want 3", got.Views)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(openTestDB(t))

	fixtures := []*models.Match{
		newMatch("m1", "Premier League", "Arsenal", "Chelsea", kickoff.Add(48*time.Hour)),
		newMatch("m2", "Premier League", "Liverpool", "Everton", kickoff),
		newMatch("m3", "La Liga", "Real Madrid", "Barcelona", kickoff.Add(24*time.Hour)),
		newMatch("m4", "Serie A", "Inter", "Milan", kickoff.Add(-24*time.Hour)),
	}
	fixtures[3].Status = models.MatchStatusFinished
	fixtures[3].BetStatus = models.BetStatusWon
	for _, m := range fixtures {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.Slug, err)
		}
	}

	tests := []struct {
		name      string
		query     models.MatchQuery
		wantSlugs []string
		wantTotal int64
	}{
		{
			name:      "upcoming ascending",
			query:     models.MatchQuery{Filter: models.MatchFilter{Status: models.MatchStatusUpcoming}, Sort: models.SortKickoffAsc},
			wantSlugs: []string{"m2", "m3", "m1"},
			wantTotal: 3,
		},
		{
			name:      "all descending",
			query:     models.MatchQuery{Sort: models.SortKickoffDesc},
			wantSlugs: []string{"m1", "m3", "m2", "m4"},
			wantTotal: 4,
		},
		{
			name:      "league",
			query:     models.MatchQuery{Filter: models.MatchFilter{League: "Premier League"}},
			wantSlugs: []string{"m2", "m1"},
			wantTotal: 2,
		},
		{
			name:      "exclude id",
			query:     models.MatchQuery{Filter: models.MatchFilter{League: "Premier League", ExcludeID: fixtures[1].ID}},
			wantSlugs: []string{"m1"},
			wantTotal: 1,
		},
		{
			name:      "search is case-insensitive across teams and league",
			query:     models.MatchQuery{Filter: models.MatchFilter{Search: "LIGA"}},
			wantSlugs: []string{"m3"},
			wantTotal: 1,
		},
		{
			name:      "search matches away team",
			query:     models.MatchQuery{Filter: models.MatchFilter{Search: "chel"}},
			wantSlugs: []string{"m1"},
			wantTotal: 1,
		},
		{
			name:      "search treats wildcards literally",
			query:     models.MatchQuery{Filter: models.MatchFilter{Search: "%"}},
			wantSlugs: []string{},
			wantTotal: 0,
		},
		{
			name:      "limit and offset keep full total",
			query:     models.MatchQuery{Sort: models.SortKickoffAsc, Limit: 2, Offset: 1},
			wantSlugs: []string{"m2", "m3"},
			wantTotal: 4,
		},
		{
			name:      "finished and won",
			query:     models.MatchQuery{Filter: models.MatchFilter{Status: models.MatchStatusFinished, BetStatus: models.BetStatusWon}},
			wantSlugs: []string{"m4"},
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if got == nil {
				t.Fatal("List returned nil slice")
			}

			slugs := make([]string, 0, len(got))
			for _, m := range got {
				slugs = append(slugs, m.Slug)
			}
			if strings.Join(slugs, ",") != strings.Join(tt.wantSlugs, ",") {
				t.Errorf("slugs = %v, want %v", slugs, tt.wantSlugs)
			}
		})
	}

	count, err := repo.Count(ctx, models.MatchFilter{Status: models.MatchStatusUpcoming})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}
