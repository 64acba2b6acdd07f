package controllers

import (
	"net/http"
	"strings"

	"github.com/rmoralesp/clinicdesk-backend/api/responses"
	"github.com/rmoralesp/clinicdesk-backend/internal/reports"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
)

func reportPeriod(r *http.Request) (enums.ReportPeriod, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return enums.ReportPeriodDaily, nil
	}
	return enums.ParseReportPeriod(raw)
}

// RevenueReport returns bucketed revenue for the requested period.
func RevenueReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		period, err := reportPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period"))
			return
		}

		buckets, err := svc.Report(r.Context(), ownerID, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"period":  period,
			"buckets": buckets,
		})
	}
}

// RevenueSummary returns the aggregate totals for the requested period.
func RevenueSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		period, err := reportPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period"))
			return
		}

		summary, err := svc.Summarize(r.Context(), ownerID, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
