package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"qrdash/internal/files"
	"qrdash/internal/models"
	"qrdash/internal/utils"
)

type appsResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Apps    []models.AppEntry `json:"apps"`
}

type CreateAppRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type RemoveAppsRequest struct {
	Names   []string `json:"names"`
	Confirm bool     `json:"confirm"`
}

type ClearAppsRequest struct {
	Confirm bool `json:"confirm"`
}

// ListAppsHandler returns the registry in insertion order.
func (h *Handlers) ListAppsHandler(w http.ResponseWriter, r *http.Request) {
	reg, err := h.store.Load()
	if err != nil {
		h.fail(w, r, "failed to load apps", err)
		return
	}
	writeApps(w, http.StatusOK, "", reg)
}

// CreateAppHandler adds or overwrites one app.
func (h *Handlers) CreateAppHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reg, added, err := h.store.Add(req.Name, req.URL)
	if err != nil {
		h.fail(w, r, "failed to save apps", err)
		return
	}
	if !added {
		writeWarning(w, utils.ErrMissingFields, reg)
		return
	}
	writeApps(w, http.StatusCreated, "Added "+req.Name+"!", reg)
}

// RemoveAppsAPIHandler removes the named apps once confirmed.
func (h *Handlers) RemoveAppsAPIHandler(w http.ResponseWriter, r *http.Request) {
	var req RemoveAppsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reg, removed, err := h.store.Remove(req.Names, req.Confirm)
	if err != nil {
		h.warnOrFail(w, r, err)
		return
	}
	msg := "None of the selected apps exist."
	if len(removed) > 0 {
		msg = "Removed: " + strings.Join(removed, ", ")
	}
	writeApps(w, http.StatusOK, msg, reg)
}

// ClearAppsAPIHandler empties the registry once confirmed.
func (h *Handlers) ClearAppsAPIHandler(w http.ResponseWriter, r *http.Request) {
	var req ClearAppsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reg, err := h.store.Clear(req.Confirm)
	if err != nil {
		h.warnOrFail(w, r, err)
		return
	}
	writeApps(w, http.StatusOK, "All apps cleared!", reg)
}

// warnOrFail answers a warning with the current, unchanged registry.
func (h *Handlers) warnOrFail(w http.ResponseWriter, r *http.Request, err error) {
	warn, ok := utils.AsWarning(err)
	if !ok {
		h.fail(w, r, "failed to save apps", err)
		return
	}
	reg, err := h.store.Load()
	if err != nil {
		h.fail(w, r, "failed to load apps", err)
		return
	}
	writeWarning(w, warn, reg)
}

func writeWarning(w http.ResponseWriter, warn *utils.Warning, reg *files.Registry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(warn.Code)
	_ = json.NewEncoder(w).Encode(appsResponse{Status: "warning", Message: warn.Message, Apps: reg.Entries()})
}

func writeApps(w http.ResponseWriter, status int, msg string, reg *files.Registry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(appsResponse{Status: "ok", Message: msg, Apps: reg.Entries()})
}
