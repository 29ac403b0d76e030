package recovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists the admin intervention queue.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIntervention(ctx context.Context, intervention *models.AdminIntervention) error
	ListPendingInterventions(ctx context.Context, limit int) ([]models.AdminIntervention, error)
	// ResolveIntervention marks a pending intervention resolved. It reports
	// false when the row was missing or already resolved.
	ResolveIntervention(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a recovery repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateIntervention(ctx context.Context, intervention *models.AdminIntervention) error {
	return r.db.WithContext(ctx).Create(intervention).Error
}

func (r *repository) ListPendingInterventions(ctx context.Context, limit int) ([]models.AdminIntervention, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.AdminIntervention
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.InterventionStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ResolveIntervention(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AdminIntervention{}).
		Where("id = ? AND status = ?", id, enums.InterventionStatusPending).
		Updates(map[string]any{
			"status":      enums.InterventionStatusResolved,
			"resolved_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
