package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/seasons/active", handler.GetActiveSeason)
	mux.HandleFunc("GET /v1/divisions/{divisionID}/standings", handler.ListDivisionStandings)
	mux.HandleFunc("GET /v1/divisions/{divisionID}/matches", handler.ListDivisionMatches)
	mux.HandleFunc("GET /v1/players/top", handler.ListTopPlayers)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/players/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyProfile)))
	mux.Handle("GET /v1/players/me/rating-history", RequireAuth(verifier, http.HandlerFunc(handler.GetMyRatingHistory)))

	mux.Handle("POST /v1/matches", RequireAuth(verifier, http.HandlerFunc(handler.SubmitMatchResult)))
	mux.Handle("GET /v1/matches/pending", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPendingMatches)))
	mux.Handle("POST /v1/matches/preview", RequireAuth(verifier, http.HandlerFunc(handler.PreviewMatchResult)))
	mux.Handle("POST /v1/matches/{matchID}/confirm", RequireAuth(verifier, http.HandlerFunc(handler.ConfirmMatchResult)))
	mux.Handle("POST /v1/matches/{matchID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectMatchResult)))

	mux.Handle("POST /v1/game-requests", RequireAuth(verifier, http.HandlerFunc(handler.CreateGameRequest)))
	mux.Handle("GET /v1/game-requests", RequireAuth(verifier, http.HandlerFunc(handler.ListMyGameRequests)))
	mux.Handle("GET /v1/game-requests/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyOwnGameRequests)))
	mux.Handle("POST /v1/game-requests/{requestID}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptGameRequest)))
	mux.Handle("POST /v1/game-requests/{requestID}/cancel", RequireAuth(verifier, http.HandlerFunc(handler.CancelGameRequest)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/reconcile-settlements", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReconcileSettlementsJob)))
}
