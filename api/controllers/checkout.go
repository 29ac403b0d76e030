package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/api/middleware"
	"github.com/kiraya-market/kiraya-backend/api/responses"
	"github.com/kiraya-market/kiraya-backend/api/validators"
	"github.com/kiraya-market/kiraya-backend/internal/orders"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
)

type createPaymentOrderRequest struct {
	AmountPaise int64          `json:"amountPaise" validate:"required,gt=0"`
	Metadata    map[string]any `json:"metadata"`
}

type cartLineRequest struct {
	ProductID      string  `json:"productId" validate:"required,uuid"`
	VariantID      *string `json:"variantId" validate:"omitempty,uuid"`
	RentalPeriodID string  `json:"rentalPeriodId" validate:"required,uuid"`
	Qty            int     `json:"qty" validate:"required,gt=0"`
	UnitPricePaise int64   `json:"unitPricePaise" validate:"required,gt=0"`
}

type verifyCheckoutRequest struct {
	GatewayOrderID   string            `json:"gatewayOrderId" validate:"required"`
	GatewayPaymentID string            `json:"gatewayPaymentId" validate:"required"`
	Signature        string            `json:"signature" validate:"required"`
	Lines            []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreatePaymentOrder opens a payment intent with the gateway for the cart
// total. The client completes the gateway checkout and then calls verify.
func CreatePaymentOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPaymentOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.CreatePaymentOrder(r.Context(), payments.CreatePaymentOrderInput{
			AmountPaise: body.AmountPaise,
			CustomerID:  customerID,
			Metadata:    body.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// VerifyCheckout checks the gateway signature and, when it holds, splits the
// cart into per-vendor orders. A bad signature creates nothing: the customer
// is notified through the recovery policy and the request fails.
func VerifyCheckout(paymentSvc payments.Service, orderSvc orders.Service, recoverer recovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyCheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := paymentSvc.VerifyAndCapturePayment(r.Context(), body.GatewayOrderID, body.GatewayPaymentID, body.Signature)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payment == nil {
			if reportErr := recoverer.ReportFailure(r.Context(), recovery.FailureInput{
				Category:   enums.FailurePaymentVerification,
				CustomerID: customerID,
				Details: map[string]any{
					"gateway_order_id": body.GatewayOrderID,
				},
			}); reportErr != nil {
				logg.Error(r.Context(), "report verification failure", reportErr)
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "payment could not be verified"))
			return
		}

		lines := make([]orders.CartLine, 0, len(body.Lines))
		for _, line := range body.Lines {
			parsed, err := parseCartLine(line)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			lines = append(lines, parsed)
		}

		result, err := orderSvc.CreateFromPayment(r.Context(), orders.CreateOrdersInput{
			CustomerID: customerID,
			PaymentID:  payment.ID,
			Lines:      lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if len(result.Failures) > 0 {
			// Some vendor orders failed; the successful ones stand.
			status = http.StatusMultiStatus
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func parseCartLine(line cartLineRequest) (orders.CartLine, error) {
	productID, err := uuid.Parse(line.ProductID)
	if err != nil {
		return orders.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	periodID, err := uuid.Parse(line.RentalPeriodID)
	if err != nil {
		return orders.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rental period id")
	}
	parsed := orders.CartLine{
		ProductID:      productID,
		RentalPeriodID: periodID,
		Qty:            line.Qty,
		UnitPricePaise: line.UnitPricePaise,
	}
	if line.VariantID != nil {
		variantID, err := uuid.Parse(*line.VariantID)
		if err != nil {
			return orders.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
		}
		parsed.VariantID = &variantID
	}
	return parsed, nil
}

func requireCustomer(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	return id, nil
}

func requireVendor(r *http.Request) (uuid.UUID, error) {
	raw := middleware.VendorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
	}
	return id, nil
}
