package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/api/responses"
	"github.com/kiraya-market/kiraya-backend/api/validators"
	"github.com/kiraya-market/kiraya-backend/internal/invoices"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
)

type addServiceChargeRequest struct {
	ItemType       string `json:"itemType" validate:"required"`
	Description    string `json:"description" validate:"required,min=3"`
	Qty            int    `json:"qty" validate:"required,gt=0"`
	UnitPricePaise int64  `json:"unitPricePaise" validate:"required,gt=0"`
}

// GetInvoice returns one invoice with its line items.
func GetInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := invoiceIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Get(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// ListOrderInvoices returns all invoices for an order, primary and refunds.
func ListOrderInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AddServiceCharge appends a billable line to a draft invoice.
func AddServiceCharge(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireVendor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := invoiceIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addServiceChargeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemType, err := enums.ParseInvoiceItemType(body.ItemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}
		invoice, err := svc.AddServiceCharge(r.Context(), invoices.AddServiceChargeInput{
			InvoiceID:      invoiceID,
			ItemType:       itemType,
			Description:    body.Description,
			Qty:            body.Qty,
			UnitPricePaise: body.UnitPricePaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

func invoiceIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "invoiceID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id")
	}
	return id, nil
}
