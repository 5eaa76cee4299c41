package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tips-publish-system/models"

	"gorm.io/gorm"
)

// MatchRepository is the GORM-backed match store.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match. A taken slug is reported as *models.ConflictError.
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Match{}).Where("slug = ?", match.Slug).Count(&count).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if count > 0 {
		return &models.ConflictError{Field: "slug", Value: match.Slug}
	}

	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &models.ConflictError{Field: "slug", Value: match.Slug}
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// FindByID returns the match with the given id.
func (r *MatchRepository) FindByID(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "match", Key: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, fmt.Errorf("find match %d: %w", id, err)
	}
	return &match, nil
}

// FindBySlug returns the match with the exact slug.
func (r *MatchRepository) FindBySlug(ctx context.Context, slug string) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "match", Key: slug}
		}
		return nil, fmt.Errorf("find match %q: %w", slug, err)
	}
	return &match, nil
}

// Update writes only the listed columns from changes and returns the fresh row.
func (r *MatchRepository) Update(ctx context.Context, id uint, changes *models.Match, columns []string) (*models.Match, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}

	if len(columns) > 0 {
		changes.UpdatedAt = time.Now()
		err := r.db.WithContext(ctx).
			Model(&models.Match{ID: id}).
			Select(append(append([]string{}, columns...), "updated_at")).
			Omit("id", "slug", "created_at", "views").
			Updates(changes).Error
		if err != nil {
			return nil, fmt.Errorf("update match %d: %w", id, err)
		}
	}

	return r.FindByID(ctx, id)
}

// Delete hard-deletes a match. Deleting a missing id yields *models.NotFoundError.
func (r *MatchRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Match{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete match %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "match", Key: strconv.FormatUint(uint64(id), 10)}
	}
	return nil
}

// IncrementViews bumps the view counter in a single statement.
func (r *MatchRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment views %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "match", Key: strconv.FormatUint(uint64(id), 10)}
	}
	return nil
}

// List returns one window of matching rows plus the total count for the filter.
func (r *MatchRepository) List(ctx context.Context, q models.MatchQuery) ([]models.Match, int64, error) {
	var total int64
	if err := r.filtered(ctx, q.Filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	matches := []models.Match{}
	if total == 0 {
		return matches, 0, nil
	}

	db := r.filtered(ctx, q.Filter)
	switch q.Sort {
	case models.SortKickoffDesc:
		db = db.Order("match_date DESC").Order("id DESC")
	default:
		db = db.Order("match_date ASC").Order("id ASC")
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	if err := db.Find(&matches).Error; err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	return matches, total, nil
}

// Count returns the number of rows matching the filter.
func (r *MatchRepository) Count(ctx context.Context, filter models.MatchFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return total, nil
}

func (r *MatchRepository) filtered(ctx context.Context, f models.MatchFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Match{})

	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.BetStatus != "" {
		db = db.Where("bet_status = ?", f.BetStatus)
	}
	if f.League != "" {
		db = db.Where("league = ?", f.League)
	}
	if f.ExcludeID != 0 {
		db = db.Where("id <> ?", f.ExcludeID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		db = db.Where(
			`(LOWER(home_team) LIKE ? ESCAPE '\' OR LOWER(away_team) LIKE ? ESCAPE '\' OR LOWER(league) LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
