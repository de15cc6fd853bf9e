package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/labstack/echo/v4"
)

// heartbeatInterval keeps idle SSE connections alive through proxies that
// reap silent streams.
const heartbeatInterval = 25 * time.Second

// SSEHandler streams registry events to one participant over Server-Sent
// Events. The connection stays registered until the client disconnects.
type SSEHandler struct {
	registry *ConnectionRegistry
}

// NewSSEHandler creates an SSE handler backed by the given registry.
func NewSSEHandler(registry *ConnectionRegistry) *SSEHandler {
	return &SSEHandler{registry: registry}
}

// Stream subscribes the participant and writes events until the request
// context is cancelled.
func (h *SSEHandler) Stream(c echo.Context, role ports.Role, id kernel.UUID) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	sub, cancel := h.registry.Subscribe(role, id)
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(resp, ": keep-alive\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		case event, open := <-sub.Events():
			if !open {
				return nil
			}
			if err := writeEvent(resp, event); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

func writeEvent(resp *echo.Response, event ports.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event.Type, payload)
	return err
}
