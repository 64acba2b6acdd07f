package controllers

import (
	"net/http"

	"github.com/rmoralesp/clinicdesk-backend/api/middleware"
	"github.com/rmoralesp/clinicdesk-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if owner := middleware.OwnerIDFromContext(r.Context()); owner != "" {
			payload["owner_id"] = owner
		}
		responses.WriteSuccess(w, payload)
	}
}
