package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/api/middleware"
	"github.com/vendorbooks/payables-backend/api/responses"
	"github.com/vendorbooks/payables-backend/api/validators"
	"github.com/vendorbooks/payables-backend/internal/payments"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	pkgerrors "github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/logger"
	"github.com/vendorbooks/payables-backend/pkg/pagination"
)

type paymentCreateRequest struct {
	VendorID        string  `json:"vendor_id" validate:"required,uuid"`
	Amount          string  `json:"amount" validate:"required"`
	Method          string  `json:"method" validate:"required"`
	ReferenceNumber *string `json:"reference_number,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	PaymentDate     *string `json:"payment_date,omitempty"`
}

func (r paymentCreateRequest) toInput(performedBy string) (payments.RecordPaymentInput, error) {
	vendorID, err := validators.ParsePathUUID("vendor_id", r.VendorID)
	if err != nil {
		return payments.RecordPaymentInput{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}

	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.Method))
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	input := payments.RecordPaymentInput{
		VendorID:        vendorID,
		Amount:          amount,
		Method:          method,
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
	}
	if performedBy != "" {
		input.PerformedBy = &performedBy
	}
	if r.PaymentDate != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.PaymentDate))
		if err != nil {
			return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment date")
		}
		input.PaymentDate = parsed
	}
	return input, nil
}

// PaymentCreate records a completed vendor payment: the payment row, its
// ledger entry, and the new cached balance commit atomically.
func PaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithPaymentNo(r.Context(), result.Payment.PaymentNo)
			logg.Info(ctx, "payment.recorded")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentGet returns one payment by id.
func PaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID("paymentId", chi.URLParam(r, "paymentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// PaymentListByVendor returns a vendor's payments, newest first.
func PaymentListByVendor(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		vendorID, err := validators.ParsePathUUID("vendorId", chi.URLParam(r, "vendorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.ListByVendor(r.Context(), vendorID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := struct {
			Payments   any    `json:"payments"`
			NextCursor string `json:"next_cursor,omitempty"`
		}{
			Payments:   list,
			NextCursor: next,
		}
		responses.WriteSuccess(w, resp)
	}
}

type paymentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PaymentUpdateStatus moves a payment to bounced or cancelled. The ledger
// is untouched; offsets are booked as new entries.
func PaymentUpdateStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID("paymentId", chi.URLParam(r, "paymentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePaymentStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		payment, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}
