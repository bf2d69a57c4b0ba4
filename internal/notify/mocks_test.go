package notify

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/playok/resmon/internal/model"
)

// MailerMock is a mock implementation of the Mailer interface.
type MailerMock struct {
	mock.Mock
}

func (m *MailerMock) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// SettingsStoreMock is a mock implementation of the SettingsStore interface.
type SettingsStoreMock struct {
	mock.Mock
}

func (m *SettingsStoreMock) Current() model.Settings {
	args := m.Called()
	return args.Get(0).(model.Settings)
}

func (m *SettingsStoreMock) MarkSent(ctx context.Context, t time.Time) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
