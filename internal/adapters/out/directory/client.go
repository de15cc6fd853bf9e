// Package directory resolves participant ids against the profile service.
// The coordinator stores only references; names and phone numbers used to
// enrich notifications are owned by that service.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// contactResponse is the profile service's wire format.
type contactResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// HTTPDirectory implements ports.Directory over the profile service's REST API.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory creates a directory client with sane defaults.
func NewHTTPDirectory(baseURL string, client *http.Client) (*HTTPDirectory, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("directory base URL is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPDirectory{baseURL: baseURL, client: client}, nil
}

// ResolveCustomer returns the customer's display identity.
func (d *HTTPDirectory) ResolveCustomer(ctx context.Context, id kernel.UUID) (ports.Contact, error) {
	return d.resolve(ctx, "customers", id)
}

// ResolveVendor returns the vendor's display identity.
func (d *HTTPDirectory) ResolveVendor(ctx context.Context, id kernel.UUID) (ports.Contact, error) {
	return d.resolve(ctx, "vendors", id)
}

// ResolveCourier returns the courier's display identity.
func (d *HTTPDirectory) ResolveCourier(ctx context.Context, id kernel.UUID) (ports.Contact, error) {
	return d.resolve(ctx, "couriers", id)
}

func (d *HTTPDirectory) resolve(ctx context.Context, kind string, id kernel.UUID) (ports.Contact, error) {
	if err := id.Validate(); err != nil {
		return ports.Contact{}, err
	}

	url := fmt.Sprintf("%s/%s/%s", d.baseURL, kind, id.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.Contact{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return ports.Contact{}, fmt.Errorf("call directory: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return ports.Contact{}, errs.NewObjectNotFoundError(kind, id.String())
	default:
		return ports.Contact{}, fmt.Errorf("directory returned %s for %s %s", resp.Status, kind, id.String())
	}

	var body contactResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.Contact{}, fmt.Errorf("decode directory response: %w", err)
	}

	contactID, err := kernel.UUIDFromString(body.ID)
	if err != nil {
		return ports.Contact{}, fmt.Errorf("decode directory response: %w", err)
	}

	return ports.Contact{
		ID:    contactID,
		Name:  body.Name,
		Phone: body.Phone,
	}, nil
}
