package automation

import (
	"context"
	"errors"
)

// ErrActivationFailed is returned when the automation agent accepts a
// command but reports that the sensor switch did not complete.
var ErrActivationFailed = errors.New("agent reported activation failure")

// SensorActivator switches the temperature sensor a thermostat reads
// from by driving the external home-automation system. Implementations
// are expected to be slow and to fail in uninteresting ways; callers
// must bound the call with the context deadline.
type SensorActivator interface {
	ActivateSensor(ctx context.Context, sensorDeviceId, thermostatDeviceId string, headless bool) error
}
