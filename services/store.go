package services

import (
	"context"

	"tips-publish-system/models"
)

// MatchStore defines what the services need from match persistence.
// Missing records are reported as *models.NotFoundError and slug collisions
// as *models.ConflictError.
type MatchStore interface {
	Create(ctx context.Context, match *models.Match) error
	FindByID(ctx context.Context, id uint) (*models.Match, error)
	FindBySlug(ctx context.Context, slug string) (*models.Match, error)
	Update(ctx context.Context, id uint, changes *models.Match, columns []string) (*models.Match, error)
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, q models.MatchQuery) ([]models.Match, int64, error)
	Count(ctx context.Context, filter models.MatchFilter) (int64, error)
}
