// Package notify talks to the push-notification relay. Every call is
// fire-and-forget with a hard 2-second timeout and no retry; a failed
// notification is logged by the caller and never blocks or reverses the
// operation that triggered it.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const requestTimeout = 2 * time.Second

type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: requestTimeout},
	}
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) post(endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notification relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification relay returned %d for %s", resp.StatusCode, endpoint)
	}
	var parsed relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decoding relay response for %s: %w", endpoint, err)
	}
	if !parsed.Success {
		return fmt.Errorf("relay rejected %s: %s", endpoint, parsed.Message)
	}
	return nil
}

// RouteAssigned tells a driver their new route.
func (c *Client) RouteAssigned(driverID, routeID string) error {
	return c.post("/ruta-asignada", map[string]string{
		"driverId": driverID,
		"routeId":  routeID,
	})
}

// IncidentNew tells the managers a new incident was filed.
func (c *Client) IncidentNew(incidentID string) error {
	return c.post("/incidencia-nueva", map[string]string{"incidentId": incidentID})
}

// IncidentAssigned tells the involved driver about an incident filed
// against their vehicle.
func (c *Client) IncidentAssigned(incidentID string) error {
	return c.post("/incidencia-asignada", map[string]string{"incidentId": incidentID})
}

// IncidentUpdated tells the involved driver their incident advanced.
func (c *Client) IncidentUpdated(incidentID string) error {
	return c.post("/incidencia-actualizada", map[string]string{"incidentId": incidentID})
}
