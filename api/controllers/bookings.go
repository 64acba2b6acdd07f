package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/api/responses"
	"github.com/rmoralesp/clinicdesk-backend/api/validators"
	"github.com/rmoralesp/clinicdesk-backend/internal/bookings"
	"github.com/rmoralesp/clinicdesk-backend/internal/recurrence"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
)

type recurrenceRequest struct {
	Kind     string `json:"kind" validate:"required"`
	Weekdays []int  `json:"weekdays,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
	Count    int    `json:"count" validate:"omitempty,min=1"`
}

type createBookingRequest struct {
	ClientID        uuid.UUID          `json:"clientId" validate:"required"`
	StaffID         uuid.UUID          `json:"staffId" validate:"required"`
	Date            string             `json:"date" validate:"required"`
	StartTime       string             `json:"startTime" validate:"required"`
	DurationMinutes int                `json:"durationMinutes" validate:"required,min=1"`
	Notes           *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Recurrence      *recurrenceRequest `json:"recurrence,omitempty"`
}

// CreateBooking persists one booking, or a recurring batch of them.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD"))
			return
		}

		params := bookings.CreateParams{
			OwnerID:         ownerID,
			ClientID:        req.ClientID,
			StaffID:         req.StaffID,
			Date:            date,
			StartTime:       req.StartTime,
			DurationMinutes: req.DurationMinutes,
			Notes:           sanitizedNotes(req.Notes),
		}
		if req.Recurrence != nil {
			kind, err := enums.ParseRecurrenceKind(req.Recurrence.Kind)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recurrence kind"))
				return
			}
			rule := recurrence.Rule{Kind: kind, Count: req.Recurrence.Count}
			for _, day := range req.Recurrence.Weekdays {
				rule.Weekdays = append(rule.Weekdays, time.Weekday(day))
			}
			params.Recurrence = &rule
		}

		created, err := svc.Create(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type completeBookingRequest struct {
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

// CompleteBooking finalizes a booking into its billable session.
func CompleteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		var req completeBookingRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		booking, err := svc.Complete(r.Context(), bookings.CompleteParams{
			OwnerID:   ownerID,
			BookingID: bookingID,
			UnitPrice: req.UnitPrice,
			Discount:  req.Discount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// ListBookings returns the tenant's bookings inside a date window.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, to, err := parseDateWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByDateRange(r.Context(), ownerID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func sanitizedNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*notes, 2000)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// parseDateWindow reads from/to query dates, defaulting to the current week.
func parseDateWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	if raw := r.URL.Query().Get("from"); raw != "" {
		value, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "from must be YYYY-MM-DD")
		}
		from = value
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		value, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "to must be YYYY-MM-DD")
		}
		to = value
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
	}
	return from, to, nil
}
