package automation

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockSensorActivator struct {
	mock.Mock
}

func (m *MockSensorActivator) ActivateSensor(ctx context.Context, sensorDeviceId, thermostatDeviceId string, headless bool) error {
	args := m.Called(ctx, sensorDeviceId, thermostatDeviceId, headless)
	return args.Error(0)
}
