package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists orders and loads the catalog rows the splitter needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	// UpdateOrderStatus performs a compare-and-set on the order status. It
	// reports false when no row matched, meaning the order was not in the
	// expected from status at update time.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) ([]models.Order, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params ListParams) ([]models.Order, error)
	FindPendingApprovalBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	FindOverdueActive(ctx context.Context, asOf time.Time) ([]models.Order, error)
	LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	LoadRentalPeriods(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.RentalPeriod, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) ([]models.Order, error) {
	return r.list(ctx, "customer_id = ?", customerID, params)
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params ListParams) ([]models.Order, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, params)
}

func (r *repository) list(ctx context.Context, where string, id uuid.UUID, params ListParams) ([]models.Order, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where(where, id).
		Order("created_at DESC").
		Limit(limit)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindPendingApprovalBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPendingVendorApproval, cutoff).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindOverdueActive(ctx context.Context, asOf time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_at IS NOT NULL AND due_at < ?", enums.OrderStatusActiveRental, asOf).
		Order("due_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repository) LoadRentalPeriods(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.RentalPeriod, error) {
	var periods []models.RentalPeriod
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&periods).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.RentalPeriod, len(periods))
	for _, p := range periods {
		out[p.ID] = p
	}
	return out, nil
}
