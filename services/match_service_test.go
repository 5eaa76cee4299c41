package services_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"tips-publish-system/models"
	"tips-publish-system/services"
)

func TestCreateAssignsDeterministicSlug(t *testing.T) {
	f := newFixture(t)

	m := f.create(t, matchInput("Premier League", "Arsenal", "Chelsea", kickoff))

	if m.Slug != "arsenal-vs-chelsea-prediction-2025-03-01" {
		t.Errorf("Slug = %q", m.Slug)
	}
	if got := services.MatchSlug("Arsenal", "Chelsea", "2025-03-01"); got != m.Slug {
		t.Errorf("MatchSlug = %q, want %q", got, m.Slug)
	}
	if m.Status != models.MatchStatusUpcoming || m.BetStatus != models.BetStatusPending || m.ResultScore != nil {
		t.Errorf("initial lifecycle = %s/%s/%v", m.Status, m.BetStatus, m.ResultScore)
	}
	if !reflect.DeepEqual(f.notifier.published, []string{m.Slug}) {
		t.Errorf("published = %v", f.notifier.published)
	}
}

func TestCreateDisambiguatesCollidingSlug(t *testing.T) {
	f := newFixture(t)
	services.SetSlugSuffix(f.matches, func() string { return "abcd1234" })

	first := f.create(t, matchInput("Premier League", "Arsenal", "Chelsea", kickoff))
	second := f.create(t, matchInput("Premier League", "Arsenal", "Chelsea", kickoff.Add(2*time.Hour)))

	if first.Slug == second.Slug {
		t.Fatalf("slugs collide: %q", first.Slug)
	}
	if second.Slug != "arsenal-vs-chelsea-prediction-2025-03-01-abcd1234" {
		t.Errorf("second slug = %q", second.Slug)
	}

	// A constant suffix can never resolve the third collision.
	_, err := f.matches.Create(context.Background(), matchInput("Premier League", "Arsenal", "Chelsea", kickoff))
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError after retries, got %v", err)
	}
}

func TestCreateRejectsInvalidConfidence(t *testing.T) {
	f := newFixture(t)

	in := matchInput("Serie A", "Inter", "Milan", kickoff)
	in.Confidence = services.Raw("150")

	_, err := f.matches.Create(context.Background(), in)
	validationProblems(t, err)

	total, err := f.store.Count(context.Background(), models.MatchFilter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 0 {
		t.Errorf("stored %d matches after a rejected create", total)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.create(t, matchInput("Bundesliga", "Bayern", "Dortmund", kickoff))

	updated, err := f.matches.Update(ctx, m.ID, services.MatchInput{
		HomeTeam:   services.Raw("FC Bayern"),
		Confidence: services.Raw("88"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.HomeTeam != "FC Bayern" || updated.Confidence != 88 {
		t.Errorf("updated = %s/%d", updated.HomeTeam, updated.Confidence)
	}
	if updated.AwayTeam != "Dortmund" || updated.Prediction != "Home win" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.Slug != m.Slug {
		t.Errorf("slug changed from %q to %q", m.Slug, updated.Slug)
	}

	_, err = f.matches.Update(ctx, m.ID, services.MatchInput{Confidence: services.Raw("0")})
	validationProblems(t, err)

	var nf *models.NotFoundError
	if _, err := f.matches.Update(ctx, 999, services.MatchInput{Prediction: services.Raw("Draw")}); !errors.As(err, &nf) {
		t.Errorf("update missing: expected NotFoundError, got %v", err)
	}
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.create(t, matchInput("La Liga", "Real Madrid", "Barcelona", kickoff))

	_, err := f.matches.RecordResult(ctx, m.ID, "2:1", "")
	want := []string{"Score must be in format X-X", "Bet status is required"}
	if problems := validationProblems(t, err); !reflect.DeepEqual(problems, want) {
		t.Errorf("problems = %v, want %v", problems, want)
	}

	got, err := f.matches.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.MatchStatusUpcoming {
		t.Fatalf("rejected result changed status to %s", got.Status)
	}

	finished, err := f.matches.RecordResult(ctx, m.ID, "2-1", "won")
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if finished.Status != models.MatchStatusFinished || finished.BetStatus != models.BetStatusWon {
		t.Errorf("lifecycle = %s/%s", finished.Status, finished.BetStatus)
	}
	if finished.ResultScore == nil || *finished.ResultScore != "2-1" {
		t.Errorf("ResultScore = %v", finished.ResultScore)
	}
	if !reflect.DeepEqual(f.notifier.results, []string{m.Slug}) {
		t.Errorf("results notified = %v", f.notifier.results)
	}

	_, err = f.matches.RecordResult(ctx, m.ID, "3-1", "lost")
	validationProblems(t, err)
}

func TestMarkLive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.create(t, matchInput("MLS", "LA Galaxy", "LAFC", kickoff))

	live, err := f.matches.MarkLive(ctx, m.ID)
	if err != nil {
		t.Fatalf("MarkLive: %v", err)
	}
	if live.Status != models.MatchStatusLive || !live.IsLive {
		t.Errorf("status = %s, is_live = %v", live.Status, live.IsLive)
	}

	if _, err := f.matches.MarkLive(ctx, m.ID); err == nil {
		t.Error("second MarkLive: expected error")
	}

	if _, err := f.matches.RecordResult(ctx, m.ID, "1-1", "push"); err != nil {
		t.Errorf("RecordResult from live: %v", err)
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.create(t, matchInput("Eredivisie", "Ajax", "PSV", kickoff))

	if err := f.matches.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var nf *models.NotFoundError
	if err := f.matches.Delete(ctx, m.ID); !errors.As(err, &nf) {
		t.Fatalf("second Delete: expected NotFoundError, got %v", err)
	}
	if _, err := f.matches.Get(ctx, m.ID); !errors.As(err, &nf) {
		t.Fatalf("Get after delete: expected NotFoundError, got %v", err)
	}
}

func bulkEntries(n int) []services.BulkEntry {
	entries := make([]services.MatchInput, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, matchInput("Championship",
			fmt.Sprintf("Home %d", i), fmt.Sprintf("Away %d", i), kickoff.Add(time.Duration(i)*time.Hour)))
	}
	return services.Entries(entries...)
}

func TestBulkImportRejectsOversizedBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.matches.BulkImport(ctx, bulkEntries(52))
	if problems := validationProblems(t, err); !reflect.DeepEqual(problems, []string{"Maximum 50 matches allowed per import"}) {
		t.Errorf("problems = %v", problems)
	}

	total, _ := f.store.Count(ctx, models.MatchFilter{})
	if total != 0 {
		t.Errorf("stored %d matches from a rejected batch", total)
	}
}

func TestBulkImportPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entries := bulkEntries(10)
	entries[4].Input.MatchDate = services.Raw("not a date")

	report, err := f.matches.BulkImport(ctx, entries)
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}

	if report.Imported != 9 || report.Failed != 1 {
		t.Errorf("imported/failed = %d/%d, want 9/1", report.Imported, report.Failed)
	}
	if len(report.Errors) != 1 || report.Errors[0] != "Home 5 vs Away 5: Invalid date format" {
		t.Errorf("errors = %v", report.Errors)
	}

	total, err := f.store.Count(ctx, models.MatchFilter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 9 {
		t.Errorf("stored = %d, want 9", total)
	}
	if len(f.notifier.published) != 0 {
		t.Errorf("bulk import should not announce each match, got %d", len(f.notifier.published))
	}
}

func TestBulkImportDefaultsLeague(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entries := bulkEntries(2)
	entries[0].Input.League = nil
	entries[1].Input.League = services.Raw(" ")

	report, err := f.matches.BulkImport(ctx, entries)
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}
	if report.Imported != 2 {
		t.Fatalf("imported = %d, errors = %v", report.Imported, report.Errors)
	}

	n, err := f.store.Count(ctx, models.MatchFilter{League: "Unknown"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("matches in Unknown league = %d, want 2", n)
	}
}

func TestDecodeBulkImport(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantCount   int
		wantErr     bool
	}{
		{name: "json array", body: `[{"home_team":"A","away_team":"B","confidence":80}]`, contentType: "application/json", wantCount: 1},
		{name: "jsonData wrapper", body: `{"jsonData":"[{\"home_team\":\"A\"},{\"home_team\":\"C\"}]"}`, contentType: "application/json", wantCount: 2},
		{name: "yaml list", body: "- home_team: A\n  away_team: B\n  confidence: 75\n- home_team: C\n", contentType: "application/yaml", wantCount: 2},
		{name: "empty array", body: `[]`, contentType: "application/json", wantCount: 0},
		{name: "object instead of array", body: `{"home_team":"A"}`, contentType: "application/json", wantErr: true},
		{name: "garbage", body: `not json`, contentType: "application/json", wantErr: true},
		{name: "yaml mapping", body: "home_team: A\n", contentType: "application/x-yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := services.DecodeBulkImport([]byte(tt.body), tt.contentType)
			if tt.wantErr {
				validationProblems(t, err)
				return
			}
			if err != nil {
				t.Fatalf("DecodeBulkImport: %v", err)
			}
			if len(entries) != tt.wantCount {
				t.Errorf("entries = %d, want %d", len(entries), tt.wantCount)
			}
		})
	}

	entries, err := services.DecodeBulkImport([]byte(`[{"confidence":80,"home_team":"A"}]`), "application/json")
	if err != nil {
		t.Fatalf("DecodeBulkImport: %v", err)
	}
	if in := entries[0].Input; in.Confidence == nil || string(*in.Confidence) != "80" {
		t.Errorf("numeric confidence not kept as text: %v", in.Confidence)
	}
	if in := entries[0].Input; in.AwayTeam != nil {
		t.Errorf("absent field decoded as %q", strings.TrimSpace(string(*in.AwayTeam)))
	}
}

func TestDecodeBulkImportKeepsMalformedEntries(t *testing.T) {
	valid := `{"league":"Serie A","home_team":"Roma","away_team":"Lazio","match_date":"2025-03-01","prediction":"Draw"}`

	tests := []struct {
		name        string
		body        string
		contentType string
		badIndex    int
	}{
		{name: "json string entry", body: "[" + valid + `,"oops",` + valid + "]", contentType: "application/json", badIndex: 1},
		{name: "json number entry", body: "[" + valid + ",5," + valid + "]", contentType: "application/json", badIndex: 1},
		{
			name:        "yaml list field",
			body:        "- home_team: Roma\n  away_team: Lazio\n- league: [PL, LL]\n  home_team: Leeds\n  away_team: Hull\n- home_team: Inter\n",
			contentType: "application/yaml",
			badIndex:    1,
		},
		{name: "yaml scalar entry", body: "- home_team: Roma\n- oops\n- home_team: Inter\n", contentType: "application/yaml", badIndex: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := services.DecodeBulkImport([]byte(tt.body), tt.contentType)
			if err != nil {
				t.Fatalf("DecodeBulkImport: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("entries = %d, want 3", len(entries))
			}
			for i, e := range entries {
				if (e.Err != nil) != (i == tt.badIndex) {
					t.Errorf("entry %d: Err = %v", i, e.Err)
				}
			}
		})
	}
}

func TestBulkImportRecordsUndecodableEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	body := `[
		{"league":"Serie A","home_team":"Roma","away_team":"Lazio","match_date":"2025-03-01","prediction":"Draw"},
		"oops",
		{"league":["PL"],"home_team":"Leeds","away_team":"Hull","match_date":"2025-03-02","prediction":"Home win"},
		{"league":"Serie A","home_team":"Inter","away_team":"Milan","match_date":"2025-03-03","prediction":"Away win"}
	]`
	entries, err := services.DecodeBulkImport([]byte(body), "application/json")
	if err != nil {
		t.Fatalf("DecodeBulkImport: %v", err)
	}

	report, err := f.matches.BulkImport(ctx, entries)
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}
	if report.Imported != 3 || report.Failed != 1 {
		t.Errorf("imported/failed = %d/%d, want 3/1 (errors %v)", report.Imported, report.Failed, report.Errors)
	}
	if want := []string{"? vs ?: Invalid match entry"}; !reflect.DeepEqual(report.Errors, want) {
		t.Errorf("errors = %v, want %v", report.Errors, want)
	}

	yamlBody := "- home_team: Ajax\n  away_team: PSV\n  match_date: 2025-03-04\n  prediction: Draw\n" +
		"- league: [PL, LL]\n  home_team: Leeds\n  away_team: Hull\n" +
		"- home_team: Porto\n  away_team: Benfica\n  match_date: 2025-03-05\n  prediction: Draw\n"
	entries, err = services.DecodeBulkImport([]byte(yamlBody), "application/yaml")
	if err != nil {
		t.Fatalf("DecodeBulkImport yaml: %v", err)
	}
	report, err = f.matches.BulkImport(ctx, entries)
	if err != nil {
		t.Fatalf("BulkImport yaml: %v", err)
	}
	if want := []string{"Leeds vs Hull: Invalid match entry"}; report.Imported != 2 || !reflect.DeepEqual(report.Errors, want) {
		t.Errorf("yaml report = %+v", report)
	}

	total, err := f.store.Count(ctx, models.MatchFilter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 5 {
		t.Errorf("stored = %d, want 5", total)
	}
}
