package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/monitor"
	"github.com/playok/resmon/internal/settings"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSnapshotRefreshFlag(t *testing.T) {
	mon := &MonitorMock{}
	snap := model.NewSnapshot(map[model.ResourceType]bool{model.ResourceDisk: true})
	mon.On("GetSnapshot", mock.Anything, false).Return(snap).Times(4)
	mon.On("GetSnapshot", mock.Anything, true).Return(snap).Twice()
	h := NewRouter(mon, nil, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/snapshot", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Support[model.ResourceDisk])
	assert.Equal(t, model.NotAvailable, got.Resources[model.ResourceCPU].Value)

	for _, q := range []string{"refresh=1", "refresh=true", "refresh=0", "refresh=false", "refresh=yes"} {
		rec = do(t, h, http.MethodGet, "/api/v1/snapshot?"+q, "")
		assert.Equal(t, http.StatusOK, rec.Code, q)
	}
	mon.AssertExpectations(t)
}

func TestCheckEndpoint(t *testing.T) {
	mon := &MonitorMock{}
	mon.On("Check", mock.Anything).Return(monitor.CheckResult{
		Snapshot: model.NewSnapshot(nil),
		Alerts:   []model.AlertRecord{{ID: 7, AlertType: model.ResourceDisk}},
		Notified: true,
	})

	rec := do(t, NewRouter(mon, nil, Options{}), http.MethodPost, "/api/v1/check", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"notified":true`)
	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestAlertsListParsesQuery(t *testing.T) {
	mon := &MonitorMock{}
	mon.On("ListAlerts", mock.Anything, "disk", 3).Return(&model.AlertPage{Alerts: []model.AlertRecord{}, Total: 45, Pages: 3, Page: 3}, nil)
	mon.On("ListAlerts", mock.Anything, "", 1).Return(&model.AlertPage{Alerts: []model.AlertRecord{}, Page: 1}, nil)
	h := NewRouter(mon, nil, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/alerts?filter=disk&page=3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":45`)

	rec = do(t, h, http.MethodGet, "/api/v1/alerts?page=abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	mon.AssertExpectations(t)
}

func TestAlertsPersistenceErrorIs500(t *testing.T) {
	mon := &MonitorMock{}
	mon.On("ListAlerts", mock.Anything, "", 1).Return(nil, model.NewPersistenceError("list alerts", errors.New("locked")))
	mon.On("ClearAlerts", mock.Anything).Return(model.NewPersistenceError("clear alerts", errors.New("locked")))
	h := NewRouter(mon, nil, Options{})

	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/v1/alerts", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodDelete, "/api/v1/alerts", "").Code)
}

func TestSaveThresholds(t *testing.T) {
	mon := &MonitorMock{}
	mon.On("SaveThresholds", mock.Anything, map[model.ResourceType]model.ThresholdPair{
		model.ResourceDisk: {Warning: 70, Critical: 95},
	}).Return(nil)
	mon.On("Settings").Return(model.DefaultSettings())
	h := NewRouter(mon, nil, Options{})

	rec := do(t, h, http.MethodPut, "/api/v1/settings/thresholds", `{"disk":{"warning":70,"critical":95}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	mon.AssertExpectations(t)
}

func TestSaveThresholdsValidation(t *testing.T) {
	mon := &MonitorMock{}
	mon.On("SaveThresholds", mock.Anything, mock.Anything).
		Return(model.NewValidationError("Memory: critical level must be greater than warning level"))
	h := NewRouter(mon, nil, Options{})

	rec := do(t, h, http.MethodPut, "/api/v1/settings/thresholds", `{"memory":{"warning":90,"critical":80}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "critical level must be greater")

	rec = do(t, h, http.MethodPut, "/api/v1/settings/thresholds", `{"network":{"warning":1,"critical":2}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/settings/thresholds", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveEmailAndIntervals(t *testing.T) {
	mon := &MonitorMock{}
	mon.On("SaveEmailSettings", mock.Anything, settings.EmailInput{
		Enabled: true, Recipients: []string{"ops@example.com"}, Frequency: "daily", NotifyCritical: true,
	}).Return(nil)
	mon.On("UpdatePollInterval", mock.Anything, model.Poll15Min).Return(nil)
	mon.On("SaveRefreshInterval", mock.Anything, 5).Return(model.NewValidationError("refresh interval must be between 10 and 300 seconds"))
	mon.On("SaveBaseThresholds", mock.Anything, map[model.ResourceType]float64{model.ResourceCPU: 4}).Return(nil)
	mon.On("Settings").Return(model.DefaultSettings())
	h := NewRouter(mon, nil, Options{})

	rec := do(t, h, http.MethodPut, "/api/v1/settings/email",
		`{"enabled":true,"recipients":["ops@example.com"],"frequency":"daily","notify_critical":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/settings/poll-interval", `{"interval":"15min"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/settings/refresh-interval", `{"seconds":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/settings/base-thresholds", `{"CPU":4}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	mon.AssertExpectations(t)
}

func TestHealthzAndBasePath(t *testing.T) {
	mon := &MonitorMock{}
	pinger := &PingerMock{}
	pinger.On("Ping", mock.Anything).Return(nil).Once()
	pinger.On("Ping", mock.Anything).Return(errors.New("database is closed")).Once()
	h := NewRouter(mon, nil, Options{BasePath: "/resmon/", Health: pinger})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/resmon/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/resmon/healthz", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodOptions, "/resmon/api/v1/alerts", "").Code)
}

func TestMetricsRoute(t *testing.T) {
	h := NewRouter(&MonitorMock{}, nil, Options{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("resmon_checks_total 1\n"))
		}),
	})
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "resmon_checks_total")

	assert.Equal(t, http.StatusNotFound, do(t, NewRouter(&MonitorMock{}, nil, Options{}), http.MethodGet, "/metrics", "").Code)
}

func TestHubPushesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)
	greeting := model.NewSnapshot(nil)
	greeting.Hostname = "greeting"
	hub.SetGreeting(func(context.Context) *model.Snapshot { return greeting })

	srv := httptest.NewServer(NewRouter(&MonitorMock{}, hub, Options{}))
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() map[string]json.RawMessage {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	first := read()
	assert.JSONEq(t, `"snapshot"`, string(first["type"]))
	assert.Contains(t, string(first["snapshot"]), `"hostname":"greeting"`)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.BroadcastAlerts([]model.AlertRecord{{ID: 1, AlertType: model.ResourceCPU}})

	second := read()
	assert.JSONEq(t, `"alerts"`, string(second["type"]))
}
