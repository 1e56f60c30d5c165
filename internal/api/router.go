package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func NewRouter(h *Handlers, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	// App names travel in the path and may contain escaped slashes.
	r.UseEncodedPath()
	r.Use(requestLogger(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods("GET")

	r.HandleFunc("/", h.DashboardHandler).Methods("GET")
	r.HandleFunc("/index.html", h.DashboardHandler).Methods("GET")
	r.HandleFunc("/apps/add", h.AddAppHandler).Methods("POST")
	r.HandleFunc("/apps/remove", h.RemoveAppsHandler).Methods("POST")
	r.HandleFunc("/apps/clear", h.ClearAppsHandler).Methods("POST")
	r.HandleFunc("/qr.png", h.DynamicQRHandler).Methods("GET")
	r.HandleFunc("/apps/{name}/qr.png", h.AppQRHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/apps", h.ListAppsHandler).Methods("GET")
	api.HandleFunc("/apps", h.CreateAppHandler).Methods("POST")
	api.HandleFunc("/apps/remove", h.RemoveAppsAPIHandler).Methods("POST")
	api.HandleFunc("/apps/clear", h.ClearAppsAPIHandler).Methods("POST")
	return r
}
