package api

import (
	"net/http"
	"strconv"
)

type resourcesAPI struct {
	monitor Monitor
}

// snapshot serves the cached snapshot; ?refresh=1 (or any true boolean)
// samples again.
func (a *resourcesAPI) snapshot(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	writeJSON(w, http.StatusOK, a.monitor.GetSnapshot(r.Context(), force))
}

// check runs the same pipeline as the scheduler.
func (a *resourcesAPI) check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.monitor.Check(r.Context()))
}
