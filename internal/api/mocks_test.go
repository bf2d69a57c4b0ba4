package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/monitor"
	"github.com/playok/resmon/internal/settings"
)

// MonitorMock is a mock implementation of the Monitor interface.
type MonitorMock struct {
	mock.Mock
}

func (m *MonitorMock) GetSnapshot(ctx context.Context, force bool) *model.Snapshot {
	args := m.Called(ctx, force)
	return args.Get(0).(*model.Snapshot)
}

func (m *MonitorMock) Check(ctx context.Context) monitor.CheckResult {
	args := m.Called(ctx)
	return args.Get(0).(monitor.CheckResult)
}

func (m *MonitorMock) Settings() model.Settings {
	args := m.Called()
	return args.Get(0).(model.Settings)
}

func (m *MonitorMock) SaveThresholds(ctx context.Context, levels map[model.ResourceType]model.ThresholdPair) error {
	args := m.Called(ctx, levels)
	return args.Error(0)
}

func (m *MonitorMock) SaveBaseThresholds(ctx context.Context, thresholds map[model.ResourceType]float64) error {
	args := m.Called(ctx, thresholds)
	return args.Error(0)
}

func (m *MonitorMock) SaveEmailSettings(ctx context.Context, in settings.EmailInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MonitorMock) SaveRefreshInterval(ctx context.Context, seconds int) error {
	args := m.Called(ctx, seconds)
	return args.Error(0)
}

func (m *MonitorMock) UpdatePollInterval(ctx context.Context, p model.PollInterval) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MonitorMock) ListAlerts(ctx context.Context, filter string, page int) (*model.AlertPage, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AlertPage), args.Error(1)
}

func (m *MonitorMock) ClearAlerts(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// PingerMock is a mock implementation of the Pinger interface.
type PingerMock struct {
	mock.Mock
}

func (m *PingerMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
