package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

const (
	actionActivateSensor = "activate-sensor"

	statusOK    = "ok"
	statusError = "error"

	defaultCommandTimeout = 90 * time.Second
	maxResultSize         = 4096
)

// AgentCommand is the request frame sent to the automation agent.
type AgentCommand struct {
	Id                 string `json:"id"`
	Action             string `json:"action"`
	SensorDeviceId     string `json:"sensor_device_id"`
	ThermostatDeviceId string `json:"thermostat_device_id"`
	Headless           bool   `json:"headless"`
}

// AgentResult is the response frame read back from the agent.
type AgentResult struct {
	Id     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// AgentClient drives the browser-automation agent over a websocket. One
// connection is dialed per command and closed when the result arrives.
type AgentClient struct {
	log             *log.Logger
	agentURL        string
	timeout         time.Duration
	dialer          *websocket.Dialer
	generateShortId func() (string, error)
}

func NewAgentClient(logger *log.Logger, agentURL string, timeout time.Duration) *AgentClient {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	return &AgentClient{
		log:             logger,
		agentURL:        agentURL,
		timeout:         timeout,
		dialer:          websocket.DefaultDialer,
		generateShortId: shortid.Generate,
	}
}

func (c *AgentClient) ActivateSensor(ctx context.Context, sensorDeviceId, thermostatDeviceId string, headless bool) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	id, err := c.generateShortId()
	if err != nil {
		return fmt.Errorf("generate command id: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.agentURL, nil)
	if err != nil {
		return fmt.Errorf("dial agent: %w", err)
	}
	defer conn.Close()

	// Unblock reads if the caller goes away before the agent answers.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	cmd := AgentCommand{
		Id:                 id,
		Action:             actionActivateSensor,
		SensorDeviceId:     sensorDeviceId,
		ThermostatDeviceId: thermostatDeviceId,
		Headless:           headless,
	}

	conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("send command %s: %w", id, err)
	}

	c.log.Printf("agent: sent command %s for sensor %s on thermostat %s", id, sensorDeviceId, thermostatDeviceId)

	conn.SetReadLimit(maxResultSize)
	conn.SetReadDeadline(deadline)
	for {
		var res AgentResult
		if err := conn.ReadJSON(&res); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("read result for command %s: %w", id, ctx.Err())
			}
			return fmt.Errorf("read result for command %s: %w", id, err)
		}

		if res.Id != id {
			c.log.Printf("agent: discarding result for unknown command %q", res.Id)
			continue
		}

		if res.Status != statusOK {
			return fmt.Errorf("command %s: %w: %s", id, ErrActivationFailed, res.Error)
		}

		return nil
	}
}
