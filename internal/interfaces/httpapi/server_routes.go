package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func registerSystemRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/healthz", handler.Healthz).Methods(http.MethodGet)
	router.HandleFunc("/auth/login", handler.Login).Methods(http.MethodPost)
}

func registerDataRoutes(router *mux.Router, handler *Handler, verifier TokenVerifier) {
	router.Handle("/data/games", RequireAuth(verifier, http.HandlerFunc(handler.ListGames))).Methods(http.MethodGet)
	router.Handle("/data/game-players", RequireAuth(verifier, http.HandlerFunc(handler.ListGamePlayers))).Methods(http.MethodGet)
}

func registerSelectionRoutes(router *mux.Router, handler *Handler, verifier TokenVerifier) {
	router.Handle("/selections", RequireAuth(verifier, http.HandlerFunc(handler.ListSelections))).Methods(http.MethodGet)
	router.Handle("/selections", RequireAuth(verifier, http.HandlerFunc(handler.CreateSelection))).Methods(http.MethodPost)
	router.Handle("/selections/{gameId}/{teamId}", RequireAuth(verifier, http.HandlerFunc(handler.GetSelection))).Methods(http.MethodGet)
	router.Handle("/selections/{id}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteSelection))).Methods(http.MethodDelete)
}
