package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/api/responses"
	"github.com/rmoralesp/clinicdesk-backend/api/validators"
	"github.com/rmoralesp/clinicdesk-backend/internal/ledger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/pagination"
)

type recordPaymentRequest struct {
	ClientID    *uuid.UUID      `json:"clientId,omitempty"`
	BookingID   *uuid.UUID      `json:"bookingId,omitempty"`
	GrossAmount decimal.Decimal `json:"grossAmount" validate:"required"`
	Discount    decimal.Decimal `json:"discount"`
	Currency    string          `json:"currency,omitempty"`
	Status      string          `json:"status,omitempty"`
	OccurredAt  *time.Time      `json:"occurredAt,omitempty"`
	DueAt       *time.Time      `json:"dueAt,omitempty"`
	Notes       *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Recurrence  *string         `json:"recurrence,omitempty"`
}

type recordPaymentResponse struct {
	Entry         any    `json:"entry"`
	Confirmed     bool   `json:"confirmed"`
	Reconstructed bool   `json:"reconstructed"`
	Strategy      string `json:"strategy"`
}

// RecordPayment writes one payment into the ledger.
func RecordPayment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent := ledger.PaymentIntent{
			OwnerID:     ownerID,
			ClientID:    req.ClientID,
			BookingID:   req.BookingID,
			GrossAmount: req.GrossAmount,
			Discount:    req.Discount,
			Currency:    enums.Currency(req.Currency),
			Status:      enums.PaymentStatus(req.Status),
			DueAt:       req.DueAt,
			Notes:       req.Notes,
		}
		if req.OccurredAt != nil {
			intent.OccurredAt = *req.OccurredAt
		}
		if req.Recurrence != nil {
			kind, err := enums.ParseRecurrenceKind(*req.Recurrence)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recurrence"))
				return
			}
			intent.Recurrence = &kind
		}

		result, err := svc.RecordPayment(r.Context(), intent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, recordPaymentResponse{
			Entry:         result.Entry,
			Confirmed:     result.Confirmed,
			Reconstructed: result.Reconstructed,
			Strategy:      result.Strategy,
		})
	}
}

type settlePaymentRequest struct {
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

// SettlePayment transitions a pending or overdue entry to paid.
func SettlePayment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entryID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id"))
			return
		}

		var req settlePaymentRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		entry, err := svc.SettlePending(r.Context(), ownerID, entryID, req.PaidAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// ListPayments returns a cursor page of the tenant's ledger entries.
func ListPayments(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := ledger.ListPaymentsParams{OwnerID: ownerID}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Status = strings.TrimSpace(r.URL.Query().Get("status"))
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		if from := strings.TrimSpace(r.URL.Query().Get("from")); from != "" {
			value, err := time.Parse(time.RFC3339, from)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp"))
				return
			}
			params.From = &value
		}
		if to := strings.TrimSpace(r.URL.Query().Get("to")); to != "" {
			value, err := time.Parse(time.RFC3339, to)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp"))
				return
			}
			params.To = &value
		}

		result, err := svc.ListPayments(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
