package controllers

import (
	"net/http"
	"time"

	"github.com/rmoralesp/clinicdesk-backend/api/responses"
	"github.com/rmoralesp/clinicdesk-backend/internal/quotas"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
)

// QuotaSnapshot reports current usage against the tenant's plan limits.
func QuotaSnapshot(svc quotas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		usage, err := svc.Snapshot(r.Context(), ownerID, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, usage)
	}
}
