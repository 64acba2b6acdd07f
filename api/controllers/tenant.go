package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rmoralesp/clinicdesk-backend/api/middleware"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
)

// tenantID resolves the authenticated tenant from the request context.
func tenantID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.OwnerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant id")
	}
	return id, nil
}
