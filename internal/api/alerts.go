package api

import (
	"net/http"
	"strconv"
)

type alertsAPI struct {
	monitor Monitor
}

func (a *alertsAPI) list(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}
	result, err := a.monitor.ListAlerts(r.Context(), r.URL.Query().Get("filter"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *alertsAPI) clear(w http.ResponseWriter, r *http.Request) {
	if err := a.monitor.ClearAlerts(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
