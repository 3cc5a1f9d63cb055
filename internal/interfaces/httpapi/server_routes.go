package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
	mux.HandleFunc("GET /v1/schema/revision", handler.SchemaRevision)
	mux.HandleFunc("GET /v1/schema/history", handler.SchemaHistory)
}

func registerProfileRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/profiles", handler.CreateProfile)
	mux.HandleFunc("GET /v1/profiles/{profileID}", handler.GetProfile)
	mux.HandleFunc("PATCH /v1/profiles/{profileID}", handler.UpdateProfile)
	mux.HandleFunc("PUT /v1/profiles/{profileID}", handler.UpsertProfile)
	mux.HandleFunc("DELETE /v1/profiles/{profileID}", handler.DeleteProfile)
}
