package invoices

import (
	"context"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists invoices and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	// FindPrimaryByOrder returns the order's non-refund invoice.
	FindPrimaryByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error)
	AddLineItem(ctx context.Context, item *models.InvoiceLineItem) error
	UpdateInvoice(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invoices repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindPrimaryByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("order_id = ? AND original_invoice_id IS NULL", orderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) AddLineItem(ctx context.Context, item *models.InvoiceLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateInvoice(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(updates).Error
}
