package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/api/responses"
	"github.com/rmoralesp/clinicdesk-backend/api/validators"
	"github.com/rmoralesp/clinicdesk-backend/internal/goals"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
)

type createGoalRequest struct {
	Category    string          `json:"category" validate:"required"`
	Title       string          `json:"title" validate:"required,max=200"`
	TargetValue decimal.Decimal `json:"targetValue" validate:"required"`
}

// CreateGoal registers a progress goal for the tenant.
func CreateGoal(svc goals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createGoalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseGoalCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid goal category"))
			return
		}

		goal, err := svc.Create(r.Context(), goals.CreateGoalInput{
			OwnerID:     ownerID,
			Category:    category,
			Title:       req.Title,
			TargetValue: req.TargetValue,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, goal)
	}
}

// ListGoals returns every goal for the tenant.
func ListGoals(svc goals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
