package api

import (
	"net/http"

	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/settings"
)

type settingsAPI struct {
	monitor Monitor
}

func (a *settingsAPI) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.monitor.Settings())
}

func (a *settingsAPI) thresholds(w http.ResponseWriter, r *http.Request) {
	var body map[string]model.ThresholdPair
	if !decodeJSON(w, r, &body) {
		return
	}
	levels := make(map[model.ResourceType]model.ThresholdPair, len(body))
	for k, v := range body {
		t, ok := model.ParseResourceType(k)
		if !ok {
			writeError(w, model.NewValidationError("unknown resource type %q", k))
			return
		}
		levels[t] = v
	}
	if err := a.monitor.SaveThresholds(r.Context(), levels); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.monitor.Settings())
}

func (a *settingsAPI) baseThresholds(w http.ResponseWriter, r *http.Request) {
	var body map[string]float64
	if !decodeJSON(w, r, &body) {
		return
	}
	thresholds := make(map[model.ResourceType]float64, len(body))
	for k, v := range body {
		t, ok := model.ParseResourceType(k)
		if !ok {
			writeError(w, model.NewValidationError("unknown resource type %q", k))
			return
		}
		thresholds[t] = v
	}
	if err := a.monitor.SaveBaseThresholds(r.Context(), thresholds); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.monitor.Settings())
}

func (a *settingsAPI) email(w http.ResponseWriter, r *http.Request) {
	var body settings.EmailInput
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := a.monitor.SaveEmailSettings(r.Context(), body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.monitor.Settings())
}

func (a *settingsAPI) pollInterval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Interval string `json:"interval"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := a.monitor.UpdatePollInterval(r.Context(), model.PollInterval(body.Interval)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.monitor.Settings())
}

func (a *settingsAPI) refreshInterval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds int `json:"seconds"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := a.monitor.SaveRefreshInterval(r.Context(), body.Seconds); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.monitor.Settings())
}
