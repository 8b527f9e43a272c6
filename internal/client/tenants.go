package client

import (
	"context"
	"fmt"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// GetTenants implements schoolnet.RosterClient.GetTenants. Tenants come back
// in a single response; no paging parameters are sent.
func (c *Client) GetTenants(ctx context.Context) ([]schoolnet.Record, error) {
	payload, err := c.get(ctx, "tenants", nil)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}

	if !payload.IsList {
		return []schoolnet.Record{}, nil
	}

	return payload.List, nil
}
