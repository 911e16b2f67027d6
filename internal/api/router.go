package api

import (
	"delivery-route-engine/internal/api/handlers"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires HTTP handlers and returns an http.Handler.
// Handlers stay unaware of concrete adapters; the caller supplies a configured RouteHandler.
func NewRouter(route *handlers.RouteHandler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	rt := r.PathPrefix("/route").Subrouter()
	rt.HandleFunc("", route.Get).Methods(http.MethodGet)
	rt.HandleFunc("/stops", route.LoadStops).Methods(http.MethodPut)
	rt.HandleFunc("/stops/{id:[0-9]+}/move", route.Move).Methods(http.MethodPost)
	rt.HandleFunc("/stops/{id:[0-9]+}/delivered", route.Delivered).Methods(http.MethodPost)
	rt.HandleFunc("/reoptimize", route.Reoptimize).Methods(http.MethodPost)
	rt.HandleFunc("/proximity", route.Proximity).Methods(http.MethodGet)

	r.Use(requestIDMiddleware, loggingMiddleware)

	return r
}
