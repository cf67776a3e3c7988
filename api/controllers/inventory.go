package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/api/middleware"
	"github.com/vendorbooks/payables-backend/api/responses"
	"github.com/vendorbooks/payables-backend/api/validators"
	"github.com/vendorbooks/payables-backend/internal/inventory"
	"github.com/vendorbooks/payables-backend/pkg/enums"
	pkgerrors "github.com/vendorbooks/payables-backend/pkg/errors"
	"github.com/vendorbooks/payables-backend/pkg/logger"
)

type transactionCreateRequest struct {
	VendorID        *string `json:"vendor_id,omitempty" validate:"omitempty,uuid"`
	TransactionType string  `json:"transaction_type" validate:"required"`
	TotalCost       string  `json:"total_cost" validate:"required"`
	InvoiceNo       string  `json:"invoice_no,omitempty"`
	TransactionDate *string `json:"transaction_date,omitempty"`
}

func (r transactionCreateRequest) toInput() (inventory.CreateTransactionInput, error) {
	txType, err := enums.ParseInventoryTransactionType(strings.TrimSpace(r.TransactionType))
	if err != nil {
		return inventory.CreateTransactionInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type")
	}

	cost, err := decimal.NewFromString(strings.TrimSpace(r.TotalCost))
	if err != nil {
		return inventory.CreateTransactionInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid total cost")
	}

	input := inventory.CreateTransactionInput{
		TransactionType: txType,
		TotalCost:       cost,
		InvoiceNo:       strings.TrimSpace(r.InvoiceNo),
	}
	if r.VendorID != nil {
		vendorID, err := uuid.Parse(strings.TrimSpace(*r.VendorID))
		if err != nil {
			return inventory.CreateTransactionInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
		}
		input.VendorID = &vendorID
	}
	if r.TransactionDate != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.TransactionDate))
		if err != nil {
			return inventory.CreateTransactionInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction date")
		}
		input.TransactionDate = parsed
	}
	return input, nil
}

// TransactionCreate registers an inventory transaction in pending status.
func TransactionCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload transactionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// TransactionGet returns one inventory transaction by id.
func TransactionGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID("transactionId", chi.URLParam(r, "transactionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

// TransactionApprove commits the transition into approved and books the
// derived ledger entry when the transaction qualifies. Replays are no-ops.
func TransactionApprove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID("transactionId", chi.URLParam(r, "transactionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var approvedBy *string
		if actor := middleware.ActorFromContext(r.Context()); actor != "" {
			approvedBy = &actor
		}

		result, err := svc.Approve(r.Context(), id, approvedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// TransactionCancel cancels a not-yet-approved transaction.
func TransactionCancel(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID("transactionId", chi.URLParam(r, "transactionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}
