package orders

import (
	"sort"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
)

// CartLine is one item in a customer's cart as handed over by the HTTP layer.
type CartLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	RentalPeriodID uuid.UUID
	Qty            int
	UnitPricePaise int64
}

// VendorGroup is the per-vendor partition of a cart: the lines owned by one
// vendor plus the totals and the flags that decide the initial order status.
type VendorGroup struct {
	VendorID             uuid.UUID
	Lines                []ResolvedLine
	SubtotalPaise        int64
	DepositPaise         int64
	RequiresVerification bool
	MaxRentalDays        int
}

// TotalPaise is the order total for the group: rental subtotal plus deposit.
func (g VendorGroup) TotalPaise() int64 {
	return g.SubtotalPaise + g.DepositPaise
}

// ResolvedLine is a cart line joined with its product.
type ResolvedLine struct {
	CartLine
	Product      models.Product
	RentalDays   int
	TotalPaise   int64
	DepositPaise int64
}

// SplitByVendor partitions cart lines by the vendor owning each product and
// computes per-vendor totals. The whole cart is rejected when any referenced
// product is missing or inactive. Groups come back sorted by vendor id so
// creation order is deterministic.
func SplitByVendor(lines []CartLine, products map[uuid.UUID]models.Product, periods map[uuid.UUID]models.RentalPeriod) ([]VendorGroup, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	grouped := make(map[uuid.UUID]*VendorGroup)
	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		if line.UnitPricePaise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line unit price must not be negative").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		if !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available for rental").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		period, ok := periods[line.RentalPeriodID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rental period not found").
				WithDetails(map[string]any{"rental_period_id": line.RentalPeriodID.String()})
		}

		group, ok := grouped[product.VendorID]
		if !ok {
			group = &VendorGroup{VendorID: product.VendorID}
			grouped[product.VendorID] = group
		}

		resolved := ResolvedLine{
			CartLine:     line,
			Product:      product,
			RentalDays:   period.Days,
			TotalPaise:   line.UnitPricePaise * int64(line.Qty),
			DepositPaise: product.DepositPaise * int64(line.Qty),
		}
		group.Lines = append(group.Lines, resolved)
		group.SubtotalPaise += resolved.TotalPaise
		group.DepositPaise += resolved.DepositPaise
		if product.RequiresVerification {
			group.RequiresVerification = true
		}
		if period.Days > group.MaxRentalDays {
			group.MaxRentalDays = period.Days
		}
	}

	groups := make([]VendorGroup, 0, len(grouped))
	for _, group := range grouped {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].VendorID.String() < groups[j].VendorID.String()
	})
	return groups, nil
}

// InitialStatus applies the vendor-group status rule: any verification-required
// item puts the whole group behind vendor approval.
func (g VendorGroup) InitialStatus() enums.OrderStatus {
	if g.RequiresVerification {
		return enums.OrderStatusPendingVendorApproval
	}
	return enums.OrderStatusAutoApproved
}
